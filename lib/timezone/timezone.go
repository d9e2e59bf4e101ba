package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Riga")
	if err != nil {
		panic(err)
	}
}

// force timezone to be site-local because the portal renders result
// dates in Latvian local time; interpreting them in whatever zone the
// server happens to run in shifts dates across midnight
func Now() time.Time {
	return time.Now().In(Location)
}

// Date truncates t to midnight site-local, the canonical form for
// result dates.
func Date(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
