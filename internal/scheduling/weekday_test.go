package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeekday(t *testing.T) {
	// 2026-01-04 is a Sunday.
	for wd := 0; wd < 7; wd++ {
		d := date(2026, time.January, 4+wd)
		assert.Equal(t, wd, NormalizeWeekday(d), "date %s", d.Format("2006-01-02"))
	}
}

func TestAlignToWeekday(t *testing.T) {
	cases := []struct {
		name    string
		from    time.Time
		weekday int
		want    time.Time
	}{
		{"same day", date(2026, time.January, 6), 2, date(2026, time.January, 6)},
		{"later this week", date(2026, time.January, 5), 4, date(2026, time.January, 8)},
		{"wraps to next week", date(2026, time.January, 8), 2, date(2026, time.January, 13)},
		{"sunday target", date(2026, time.January, 5), 0, date(2026, time.January, 11)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AlignToWeekday(tc.from, tc.weekday))
		})
	}
}

func TestEndOfDay(t *testing.T) {
	got := endOfDay(time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 15, 23, 59, 59, 0, time.UTC), got)
}
