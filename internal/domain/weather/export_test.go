package weather

import "time"

// SetClock replaces the clock of a service built by NewService.
func SetClock(svc Service, now func() time.Time) {
	svc.(*service).now = now
}
