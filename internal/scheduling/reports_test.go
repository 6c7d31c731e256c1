package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

func TestCoverageReport(t *testing.T) {
	m := newMemStore()
	tpl := spinTemplate(m, 2) // Tuesday
	m.addTemplate(model.ClassTemplate{
		ClassTypeID: tpl.ClassTypeID, VenueID: 1, Weekday: 3,
		StartTimeLocal: "09:00:00", DurationMin: 45,
	})
	svc := NewService(m, fixedClock{date(2026, time.January, 1)})

	// Generate only the first two January Tuesdays.
	_, err := svc.GenerateSessions(context.Background(), tpl.ID,
		date(2026, time.January, 1), date(2026, time.January, 14))
	require.NoError(t, err)

	report, err := svc.CoverageReport(context.Background(),
		date(2026, time.January, 1), date(2026, time.January, 31))
	require.NoError(t, err)
	require.Len(t, report, 1, "inactive templates stay out of the report")

	cov := report[0]
	assert.Equal(t, tpl.ID, cov.TemplateID)
	assert.Equal(t, 4, cov.Expected)
	assert.Equal(t, 2, cov.Existing)
	require.Len(t, cov.MissingDates, 2)
	assert.Equal(t, date(2026, time.January, 20), cov.MissingDates[0])
	assert.Equal(t, date(2026, time.January, 27), cov.MissingDates[1])

	_, err = svc.CoverageReport(context.Background(),
		date(2026, time.January, 31), date(2026, time.January, 1))
	assert.True(t, IsValidation(err))
}

func TestTemplateAvailableSeats(t *testing.T) {
	m := newMemStore()
	tpl := spinTemplate(m, 2)
	a1 := m.addVenueSeat(tpl.VenueID, "A1")
	m.addVenueSeat(tpl.VenueID, "A2")
	person := m.addPerson("Ada", true)
	m.addBooking(model.StandingBooking{
		PersonID: person.ID, SubscriptionID: 1, TemplateID: tpl.ID, SeatID: &a1.ID,
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.January, 31),
		Status: model.StandingActive,
	})
	svc := NewService(m, fixedClock{date(2026, time.January, 5)})

	// No date: the running booking holds A1.
	seats, err := svc.TemplateAvailableSeats(context.Background(), tpl.ID, nil)
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "A2", seats[0].Label)

	// The date must land on the template's weekday.
	_, err = svc.TemplateAvailableSeats(context.Background(), tpl.ID,
		ptr(date(2026, time.January, 7))) // Wednesday
	assert.True(t, IsValidation(err))

	// A date without a session falls back to standing occupancy.
	seats, err = svc.TemplateAvailableSeats(context.Background(), tpl.ID,
		ptr(date(2026, time.January, 6)))
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "A2", seats[0].Label)

	// Once the session exists, its reservations answer; nothing has been
	// materialized yet, so both seats are free.
	_, err = svc.GenerateSessions(context.Background(), tpl.ID,
		date(2026, time.January, 6), date(2026, time.January, 6))
	require.NoError(t, err)
	seats, err = svc.TemplateAvailableSeats(context.Background(), tpl.ID,
		ptr(date(2026, time.January, 6)))
	require.NoError(t, err)
	assert.Len(t, seats, 2)

	_, err = svc.TemplateAvailableSeats(context.Background(), 9999, nil)
	assert.True(t, IsValidation(err))
}
