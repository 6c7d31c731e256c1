package scheduling

import "time"

// The schema stores weekdays Sunday-based: 0=Sunday .. 6=Saturday.  Go's
// time.Weekday happens to use the same numbering, but that is a coincidence
// of the host language; all conversions go through these helpers so the
// convention lives in one place.

// NormalizeWeekday maps a calendar date to the schema's weekday value.
func NormalizeWeekday(t time.Time) int {
	return int(t.Weekday())
}

// AlignToWeekday returns the first date on or after t that falls on the
// schema weekday wd.
func AlignToWeekday(t time.Time, wd int) time.Time {
	delta := (wd - NormalizeWeekday(t) + 7) % 7
	return t.AddDate(0, 0, delta)
}

// atMidnight truncates a timestamp to its UTC calendar date.
func atMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfDay returns 23:59:59 on t's UTC calendar date.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

// sameDate reports whether two timestamps fall on the same UTC calendar date.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
