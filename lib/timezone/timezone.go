package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Rome")
	if err != nil {
		panic(err)
	}
}

// force the registry timezone because the servers may end up in another
// region, which would skew reporting-year math based on
// <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}
