package commands

import (
	"context"
	"fmt"

	"registrywatch-backend/lib/configutil"
	configsqlite "registrywatch-backend/lib/configutil/sqlite"
	"registrywatch-backend/lib/serviceutil"
	"registrywatch-backend/lib/telemetry"
	"registrywatch-backend/services/monitor"
	"registrywatch-backend/services/monitor/history"
	"registrywatch-backend/services/monitor/renderer"

	"github.com/spf13/cobra"
)

type Config struct {
	Database configsqlite.Struct    `json:"database"`
	Renderer renderer.ClientOptions `json:"renderer"`
	Monitor  monitor.Options        `json:"monitor"`
}

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every configured identifier once and persist the change report.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		t, err := telemetry.SetupFromEnv(ctx, "registrywatch")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		db, err := config.Database.OpenDB(history.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer db.Close()

		client, err := renderer.NewClient(config.Renderer)
		if err != nil {
			serviceutil.Fatal("failed to initialize render client", err)
		}

		service := monitor.NewService(history.NewStore(db), client, config.Monitor)
		rep, err := service.Run(ctx)
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}

		fmt.Println(rep.Subject)
	},
}
