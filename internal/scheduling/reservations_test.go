package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

func reserveFixture(t *testing.T) (*memStore, *Service, *model.ClassSession, *model.Person) {
	t.Helper()
	m := newMemStore()
	sess := m.addSession(model.ClassSession{
		ClassTypeID: 1, VenueID: 1, Capacity: 2,
		StartAt: date(2026, time.January, 6).Add(18 * time.Hour),
		Status:  model.SessionScheduled,
	})
	person := m.addPerson("Ada", true)
	return m, NewService(m, fixedClock{date(2026, time.January, 5)}), sess, person
}

func TestReserve(t *testing.T) {
	m, svc, sess, person := reserveFixture(t)
	r, err := svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: person.ID})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, r.Status)
	assert.Equal(t, model.SourceManual, r.Source)
	require.NotNil(t, r.IdempotencyKey)
	assert.Len(t, m.reservations, 1)

	// Same person cannot book the session twice.
	_, err = svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: person.ID})
	assert.True(t, IsValidation(err))
}

func TestReserveSeatChecks(t *testing.T) {
	m, svc, sess, person := reserveFixture(t)
	seat := m.addVenueSeat(sess.VenueID, "A1")
	wrongVenue := m.addVenueSeat(sess.VenueID+1, "Z9")
	rival := m.addPerson("Eve", true)

	_, err := svc.Reserve(context.Background(), ReserveInput{
		SessionID: sess.ID, PersonID: person.ID, SeatID: &wrongVenue.ID,
	})
	assert.True(t, IsValidation(err))

	_, err = svc.Reserve(context.Background(), ReserveInput{
		SessionID: sess.ID, PersonID: person.ID, SeatID: &seat.ID,
	})
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), ReserveInput{
		SessionID: sess.ID, PersonID: rival.ID, SeatID: &seat.ID,
	})
	assert.True(t, IsValidation(err), "seat already taken")
}

func TestReserveCapacity(t *testing.T) {
	m, svc, sess, _ := reserveFixture(t)
	a := m.addPerson("P1", true)
	b := m.addPerson("P2", true)
	c := m.addPerson("P3", true)

	_, err := svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: a.ID})
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: b.ID})
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: c.ID})
	assert.True(t, IsValidation(err), "session is full")
}

func TestReserveRejectsClosedSessionAndInactivePerson(t *testing.T) {
	m, svc, sess, person := reserveFixture(t)
	inactive := m.addPerson("Bob", false)

	_, err := svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: inactive.ID})
	assert.True(t, IsValidation(err))

	require.NoError(t, m.Sessions().UpdateStatus(context.Background(), sess.ID, model.SessionCanceled))
	_, err = svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: person.ID})
	assert.True(t, IsValidation(err))
}

func TestReservationLifecycle(t *testing.T) {
	_, svc, sess, person := reserveFixture(t)
	r, err := svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: person.ID})
	require.NoError(t, err)

	// Cannot check out before checking in.
	assert.True(t, IsValidation(svc.CheckOut(context.Background(), r.ID)))

	require.NoError(t, svc.CheckIn(context.Background(), r.ID))
	// Double check-in conflicts.
	assert.True(t, IsValidation(svc.CheckIn(context.Background(), r.ID)))

	require.NoError(t, svc.CheckOut(context.Background(), r.ID))

	// A checked-in reservation cannot be canceled.
	assert.True(t, IsValidation(svc.CancelReservation(context.Background(), r.ID)))
}

func TestCancelReservation(t *testing.T) {
	m, svc, sess, person := reserveFixture(t)
	r, err := svc.Reserve(context.Background(), ReserveInput{SessionID: sess.ID, PersonID: person.ID})
	require.NoError(t, err)

	require.NoError(t, svc.CancelReservation(context.Background(), r.ID))
	got, err := m.Reservations().GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCanceled, got.Status)

	// Canceling again is a no-op.
	require.NoError(t, svc.CancelReservation(context.Background(), r.ID))

	assert.True(t, IsValidation(svc.CancelReservation(context.Background(), 9999)))
}

func TestAvailableSeats(t *testing.T) {
	m, svc, sess, person := reserveFixture(t)
	a1 := m.addVenueSeat(sess.VenueID, "A1")
	m.addVenueSeat(sess.VenueID, "A2")
	m.addVenueSeat(sess.VenueID+1, "B1") // different venue
	broken := m.addVenueSeat(sess.VenueID, "A3")
	broken.IsActive = false

	_, err := svc.Reserve(context.Background(), ReserveInput{
		SessionID: sess.ID, PersonID: person.ID, SeatID: &a1.ID,
	})
	require.NoError(t, err)

	seats, err := svc.AvailableSeats(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "A2", seats[0].Label)
}
