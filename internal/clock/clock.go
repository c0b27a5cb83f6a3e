// Package clock supplies the current time to the collector and CLI, so
// scrape timestamps and default report windows can be pinned in tests.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// Now returns the current system time
func (RealClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock stopped at one instant
type Fixed time.Time

// Now returns the stopped instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// MonthToDate returns the first day of the current month at midnight and the
// current time, both in the clock's location.
func MonthToDate(c Clock) (start, end time.Time) {
	end = c.Now()
	start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	return start, end
}
