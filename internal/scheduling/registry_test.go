package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

func registryFixture(t *testing.T) *fixture {
	t.Helper()
	m := newMemStore()
	tpl := spinTemplate(m, 2)
	person := m.addPerson("Ada", true)
	sub := m.addSubscription(model.MembershipSubscription{
		PersonID: person.ID, PlanID: 1,
		StartAt: date(2026, time.January, 1), EndAt: endOfDay(date(2026, time.January, 31)),
		Status: model.SubscriptionActive,
	})
	return &fixture{m: m, svc: NewService(m, nil), tpl: tpl, person: person, sub: sub}
}

func TestCreateStandingBookingDefaultsToSubscriptionRange(t *testing.T) {
	f := registryFixture(t)
	b, err := f.svc.CreateStandingBooking(context.Background(), CreateStandingBookingInput{
		PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.January, 1), b.StartDate)
	assert.Equal(t, date(2026, time.January, 31), b.EndDate, "end-of-day timestamp collapses to the date")
	assert.Equal(t, model.StandingActive, b.Status)
}

func TestCreateStandingBookingValidation(t *testing.T) {
	f := registryFixture(t)
	inactive := f.m.addPerson("Bob", false)
	outsider := f.m.addPerson("Mallory", true)
	otherVenueSeat := f.m.addVenueSeat(f.tpl.VenueID+1, "B1")
	seat := f.m.addVenueSeat(f.tpl.VenueID, "A1")

	rival := f.m.addPerson("Eve", true)
	f.m.addBooking(model.StandingBooking{
		PersonID: rival.ID, SubscriptionID: 99, TemplateID: f.tpl.ID, SeatID: &seat.ID,
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.January, 31),
		Status: model.StandingPaused,
	})

	cases := []struct {
		name string
		in   CreateStandingBookingInput
	}{
		{"unknown person", CreateStandingBookingInput{PersonID: 9999, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID}},
		{"inactive person", CreateStandingBookingInput{PersonID: inactive.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID}},
		{"foreign subscription", CreateStandingBookingInput{PersonID: outsider.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID}},
		{"unknown template", CreateStandingBookingInput{PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: 9999}},
		{"seat in wrong venue", CreateStandingBookingInput{PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID, SeatID: &otherVenueSeat.ID}},
		{"seat held by paused booking", CreateStandingBookingInput{PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID, SeatID: &seat.ID}},
		{"end before start", CreateStandingBookingInput{
			PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
			StartDate: ptr(date(2026, time.January, 20)), EndDate: ptr(date(2026, time.January, 10)),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateStandingBooking(context.Background(), tc.in)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Len(t, f.m.bookings, 1, "only the seeded rival booking exists")
}

func TestCreateStandingBookingRejectsSecondForSameTemplate(t *testing.T) {
	f := registryFixture(t)
	_, err := f.svc.CreateStandingBooking(context.Background(), CreateStandingBookingInput{
		PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateStandingBooking(context.Background(), CreateStandingBookingInput{
		PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
	})
	assert.True(t, IsValidation(err))
}

func TestUpdateStandingBookingStatus(t *testing.T) {
	f := registryFixture(t)
	b, err := f.svc.CreateStandingBooking(context.Background(), CreateStandingBookingInput{
		PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
	})
	require.NoError(t, err)

	got, err := f.svc.UpdateStandingBookingStatus(context.Background(), b.ID, model.StandingPaused)
	require.NoError(t, err)
	assert.Equal(t, model.StandingPaused, got.Status)

	got, err = f.svc.UpdateStandingBookingStatus(context.Background(), b.ID, model.StandingCanceled)
	require.NoError(t, err)
	assert.Equal(t, model.StandingCanceled, got.Status)

	// Reactivation is allowed.
	got, err = f.svc.UpdateStandingBookingStatus(context.Background(), b.ID, model.StandingActive)
	require.NoError(t, err)
	assert.Equal(t, model.StandingActive, got.Status)

	_, err = f.svc.UpdateStandingBookingStatus(context.Background(), b.ID, "done")
	assert.True(t, IsValidation(err))
	_, err = f.svc.UpdateStandingBookingStatus(context.Background(), 9999, model.StandingPaused)
	assert.True(t, IsValidation(err))
}

func TestCreateException(t *testing.T) {
	f := registryFixture(t)
	b, err := f.svc.CreateStandingBooking(context.Background(), CreateStandingBookingInput{
		PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
	})
	require.NoError(t, err)

	e, err := f.svc.CreateException(context.Background(), CreateExceptionInput{
		StandingBookingID: b.ID,
		SessionDate:       date(2026, time.January, 13),
		Action:            model.ExceptionSkip,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ExceptionSkip, e.Action)

	// One exception per date.
	_, err = f.svc.CreateException(context.Background(), CreateExceptionInput{
		StandingBookingID: b.ID,
		SessionDate:       date(2026, time.January, 13),
		Action:            model.ExceptionSkip,
	})
	assert.True(t, IsValidation(err))
}

func TestCreateExceptionValidation(t *testing.T) {
	f := registryFixture(t)
	b, err := f.svc.CreateStandingBooking(context.Background(), CreateStandingBookingInput{
		PersonID: f.person.ID, SubscriptionID: f.sub.ID, TemplateID: f.tpl.ID,
	})
	require.NoError(t, err)

	canceled := f.m.addSession(model.ClassSession{
		ClassTypeID: f.tpl.ClassTypeID, VenueID: f.tpl.VenueID,
		StartAt: date(2026, time.January, 14), Capacity: 10, Status: model.SessionCanceled,
	})
	sid := canceled.ID

	cases := []struct {
		name string
		in   CreateExceptionInput
	}{
		{"unknown booking", CreateExceptionInput{StandingBookingID: 9999, SessionDate: date(2026, time.January, 13), Action: model.ExceptionSkip}},
		{"date outside range", CreateExceptionInput{StandingBookingID: b.ID, SessionDate: date(2026, time.February, 3), Action: model.ExceptionSkip}},
		{"skip naming a session", CreateExceptionInput{StandingBookingID: b.ID, SessionDate: date(2026, time.January, 13), Action: model.ExceptionSkip, NewSessionID: &sid}},
		{"reschedule without session", CreateExceptionInput{StandingBookingID: b.ID, SessionDate: date(2026, time.January, 13), Action: model.ExceptionReschedule}},
		{"reschedule to canceled session", CreateExceptionInput{StandingBookingID: b.ID, SessionDate: date(2026, time.January, 13), Action: model.ExceptionReschedule, NewSessionID: &sid}},
		{"unknown action", CreateExceptionInput{StandingBookingID: b.ID, SessionDate: date(2026, time.January, 13), Action: "move"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateException(context.Background(), tc.in)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}
