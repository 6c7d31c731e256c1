package scheduling

import "time"

// Clock supplies the current time to the scheduling core.  Everything that
// windows on "today" goes through it so tests can pin the calendar.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }
