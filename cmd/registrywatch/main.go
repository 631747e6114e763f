package main

import (
	"registrywatch-backend/cmd/registrywatch/commands"
	"registrywatch-backend/lib/serviceutil"
	"registrywatch-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(serviceutil.SignalContext())
}
