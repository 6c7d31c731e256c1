package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// fixture is the usual January setup: a Tuesday spinning template, one
// member with an active subscription and standing booking over the month,
// and sessions already generated for the window.
type fixture struct {
	m       *memStore
	svc     *Service
	tpl     *model.ClassTemplate
	person  *model.Person
	sub     *model.MembershipSubscription
	booking *model.StandingBooking
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := newMemStore()
	tpl := spinTemplate(m, 2)
	person := m.addPerson("Ada", true)
	sub := m.addSubscription(model.MembershipSubscription{
		PersonID: person.ID, PlanID: 1,
		StartAt: date(2026, time.January, 1), EndAt: endOfDay(date(2026, time.January, 31)),
		Status: model.SubscriptionActive,
	})
	booking := m.addBooking(model.StandingBooking{
		PersonID: person.ID, SubscriptionID: sub.ID, TemplateID: tpl.ID,
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.January, 31),
		Status: model.StandingActive,
	})
	svc := NewService(m, fixedClock{date(2026, time.January, 1)})
	_, err := svc.GenerateSessions(context.Background(), tpl.ID,
		date(2026, time.January, 1), date(2026, time.January, 31))
	require.NoError(t, err)
	return &fixture{m: m, svc: svc, tpl: tpl, person: person, sub: sub, booking: booking}
}

func (f *fixture) window() WindowOptions {
	return WindowOptions{From: date(2026, time.January, 1), To: date(2026, time.January, 31)}
}

func TestMaterializeWindowCreatesReservations(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ProcessedBookings)
	assert.Equal(t, 4, stats.CreatedReservations) // Jan 6, 13, 20, 27
	assert.Empty(t, stats.Errors)
	require.Len(t, f.m.reservations, 4)
	for _, r := range f.m.reservations {
		assert.Equal(t, f.person.ID, r.PersonID)
		assert.Equal(t, model.ReservationReserved, r.Status)
		assert.Equal(t, model.SourceStanding, r.Source)
		require.NotNil(t, r.IdempotencyKey)
		assert.NotEmpty(t, *r.IdempotencyKey)
	}
}

func TestMaterializeWindowIdempotent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)

	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Zero(t, stats.CreatedReservations)
	assert.Equal(t, 4, stats.SkippedExisting)
	assert.Len(t, f.m.reservations, 4)
}

func TestMaterializeWindowCanceledReservationStillCounts(t *testing.T) {
	// A canceled reservation still blocks re-creation: staff removed the
	// member from that session on purpose.
	f := newFixture(t)
	_, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	require.NoError(t, f.m.Reservations().UpdateStatus(context.Background(),
		f.m.reservations[0].ID, model.ReservationCanceled))

	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Zero(t, stats.CreatedReservations)
	assert.Equal(t, 4, stats.SkippedExisting)
}

func TestMaterializeWindowNoCapacity(t *testing.T) {
	f := newFixture(t)
	// Shrink every session to one spot and fill it with someone else.
	for i := range f.m.sessions {
		f.m.sessions[i].Capacity = 1
		f.m.reservations = append(f.m.reservations, model.Reservation{
			ID: f.m.id(), SessionID: f.m.sessions[i].ID, PersonID: 999,
			Status: model.ReservationReserved, Source: model.SourceManual,
		})
	}
	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Zero(t, stats.CreatedReservations)
	assert.Equal(t, 4, stats.SkippedNoCapacity)
}

func TestMaterializeWindowSeatBookingIgnoresHeadcount(t *testing.T) {
	// Seat uniqueness is the capacity mechanism for seat bookings: a session
	// full by headcount still admits a booking whose seat is free.
	f := newFixture(t)
	seat := f.m.addVenueSeat(f.tpl.VenueID, "A1")
	f.booking.SeatID = &seat.ID
	for i := range f.m.sessions {
		f.m.sessions[i].Capacity = 1
		f.m.reservations = append(f.m.reservations, model.Reservation{
			ID: f.m.id(), SessionID: f.m.sessions[i].ID, PersonID: 999,
			Status: model.ReservationReserved, Source: model.SourceManual,
		})
	}

	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.CreatedReservations)
	assert.Zero(t, stats.SkippedNoCapacity)
}

func TestMaterializeWindowSeatTaken(t *testing.T) {
	f := newFixture(t)
	seat := f.m.addVenueSeat(f.tpl.VenueID, "A1")
	f.booking.SeatID = &seat.ID
	// Someone else holds the seat on the first Tuesday only.
	f.m.reservations = append(f.m.reservations, model.Reservation{
		ID: f.m.id(), SessionID: f.m.sessions[0].ID, PersonID: 999, SeatID: &seat.ID,
		Status: model.ReservationReserved, Source: model.SourceManual,
	})

	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedSeatTaken)
	assert.Equal(t, 3, stats.CreatedReservations)
}

func TestMaterializeWindowHonorsExceptions(t *testing.T) {
	f := newFixture(t)
	// Skip Jan 13, reschedule Jan 20 onto an ad-hoc session.
	alt := f.m.addSession(model.ClassSession{
		ClassTypeID: f.tpl.ClassTypeID, VenueID: f.tpl.VenueID,
		StartAt: date(2026, time.January, 21).Add(18 * time.Hour),
		Capacity: 10, Status: model.SessionScheduled,
	})
	f.m.exceptions = append(f.m.exceptions,
		model.StandingBookingException{
			ID: f.m.id(), StandingBookingID: f.booking.ID,
			SessionDate: date(2026, time.January, 13), Action: model.ExceptionSkip,
		},
		model.StandingBookingException{
			ID: f.m.id(), StandingBookingID: f.booking.ID,
			SessionDate: date(2026, time.January, 20), Action: model.ExceptionReschedule,
			NewSessionID: &alt.ID,
		},
	)

	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedExceptions)
	assert.Equal(t, 3, stats.CreatedReservations) // Jan 6, Jan 27, and the rescheduled slot

	var overrides int
	for _, r := range f.m.reservations {
		if r.SessionID == alt.ID {
			overrides++
			assert.Equal(t, model.SourceOverride, r.Source)
		}
	}
	assert.Equal(t, 1, overrides)
}

func TestMaterializeWindowMissingSessionIsSilent(t *testing.T) {
	m := newMemStore()
	tpl := spinTemplate(m, 2)
	person := m.addPerson("Ada", true)
	m.addBooking(model.StandingBooking{
		PersonID: person.ID, SubscriptionID: 1, TemplateID: tpl.ID,
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.January, 31),
		Status: model.StandingActive,
	})
	svc := NewService(m, nil)

	stats, err := svc.MaterializeWindow(context.Background(),
		WindowOptions{From: date(2026, time.January, 1), To: date(2026, time.January, 31)})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProcessedBookings)
	assert.Zero(t, stats.CreatedReservations)
	assert.Empty(t, stats.Errors, "missing sessions are not errors")
}

func TestMaterializeWindowClampsToBookingRange(t *testing.T) {
	f := newFixture(t)
	f.m.bookings[0].StartDate = date(2026, time.January, 10)
	f.m.bookings[0].EndDate = date(2026, time.January, 22)

	stats, err := f.svc.MaterializeWindow(context.Background(), f.window())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CreatedReservations) // Jan 13 and Jan 20 only
}

func TestMaterializeWindowRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.MaterializeWindow(context.Background(), WindowOptions{
		From: date(2026, time.January, 31), To: date(2026, time.January, 1),
	})
	assert.True(t, IsValidation(err))
}

func TestMaterializeWindowScopedBySubscription(t *testing.T) {
	f := newFixture(t)
	other := f.m.addPerson("Grace", true)
	otherSub := f.m.addSubscription(model.MembershipSubscription{
		PersonID: other.ID, PlanID: 1,
		StartAt: date(2026, time.January, 1), EndAt: endOfDay(date(2026, time.January, 31)),
		Status: model.SubscriptionActive,
	})
	f.m.addBooking(model.StandingBooking{
		PersonID: other.ID, SubscriptionID: otherSub.ID, TemplateID: f.tpl.ID,
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.January, 31),
		Status: model.StandingActive,
	})

	opts := f.window()
	opts.SubscriptionID = &otherSub.ID
	stats, err := f.svc.MaterializeWindow(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProcessedBookings)
	assert.Equal(t, 4, stats.CreatedReservations)
	for _, r := range f.m.reservations {
		assert.Equal(t, other.ID, r.PersonID)
	}
}

func TestMaterializeForSession(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.MaterializeForSession(context.Background(), f.m.sessions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProcessedBookings)
	assert.Equal(t, 1, stats.CreatedReservations)

	// Running it again is a skip, not a duplicate.
	stats, err = f.svc.MaterializeForSession(context.Background(), f.m.sessions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedExisting)
}

func TestMaterializeForSessionAdHoc(t *testing.T) {
	f := newFixture(t)
	sess := f.m.addSession(model.ClassSession{
		ClassTypeID: f.tpl.ClassTypeID, VenueID: f.tpl.VenueID,
		StartAt: date(2026, time.January, 7), Capacity: 10, Status: model.SessionScheduled,
	})
	stats, err := f.svc.MaterializeForSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.ProcessedBookings, "ad-hoc sessions have no standing bookings")
}

func TestPreviewWindow(t *testing.T) {
	f := newFixture(t)
	// Pre-book Jan 6, skip Jan 13, and remove the Jan 20 session.
	f.m.reservations = append(f.m.reservations, model.Reservation{
		ID: f.m.id(), SessionID: f.m.sessions[0].ID, PersonID: f.person.ID,
		Status: model.ReservationReserved, Source: model.SourceManual,
	})
	f.m.exceptions = append(f.m.exceptions, model.StandingBookingException{
		ID: f.m.id(), StandingBookingID: f.booking.ID,
		SessionDate: date(2026, time.January, 13), Action: model.ExceptionSkip,
	})
	require.NoError(t, f.m.Sessions().UpdateStatus(context.Background(),
		f.m.sessions[2].ID, model.SessionCanceled))

	entries, err := f.svc.PreviewWindow(context.Background(), f.window())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byDate := map[string]PreviewEntry{}
	for _, e := range entries {
		byDate[e.Date] = e
	}
	assert.Equal(t, PreviewExisting, byDate["2026-01-06"].Outcome)
	assert.Equal(t, PreviewSkipped, byDate["2026-01-13"].Outcome)
	assert.Equal(t, PreviewNoSession, byDate["2026-01-20"].Outcome)
	assert.Equal(t, PreviewWillCreate, byDate["2026-01-27"].Outcome)

	// Preview never writes.
	assert.Len(t, f.m.reservations, 1)
}

func TestPreviewWindowBlockedReason(t *testing.T) {
	f := newFixture(t)
	for i := range f.m.sessions {
		f.m.sessions[i].Capacity = 0
	}
	entries, err := f.svc.PreviewWindow(context.Background(), f.window())
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, PreviewBlocked, e.Outcome)
		assert.Equal(t, "no capacity", e.Reason)
	}

	// With a free seat, zero headcount capacity does not block the preview.
	seat := f.m.addVenueSeat(f.tpl.VenueID, "A1")
	f.booking.SeatID = &seat.ID
	entries, err = f.svc.PreviewWindow(context.Background(), f.window())
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, PreviewWillCreate, e.Outcome)
	}
}

func TestPreviewWindowScopedByStandingBooking(t *testing.T) {
	f := newFixture(t)
	other := f.m.addPerson("Grace", true)
	f.m.addBooking(model.StandingBooking{
		PersonID: other.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.January, 31),
		Status: model.StandingActive,
	})

	opts := f.window()
	opts.StandingBookingID = &f.booking.ID
	entries, err := f.svc.PreviewWindow(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, f.booking.ID, e.StandingBookingID)
	}

	stats, err := f.svc.MaterializeWindow(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProcessedBookings)
	assert.Equal(t, 4, stats.CreatedReservations)
	for _, r := range f.m.reservations {
		assert.Equal(t, f.person.ID, r.PersonID)
	}
}
