package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

// ReserveInput describes a one-off manual reservation taken at the front
// desk, outside any standing booking.
type ReserveInput struct {
	SessionID uint64
	PersonID  uint64
	SeatID    *uint64
}

// Reserve books one person onto one session.  Same gate order as the
// materializer: existing reservation, then seat conflict, then capacity.
// All outcomes that the materializer would count as skips come back here as
// validation errors, because a human asked for this specific spot.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (*model.Reservation, error) {
	sess, err := s.store.Sessions().GetByID(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, invalid("session %d not found", in.SessionID)
		}
		return nil, err
	}
	if sess.Status != model.SessionScheduled {
		return nil, invalid("session %d is not open for reservations", in.SessionID)
	}

	person, err := s.store.People().GetByID(ctx, in.PersonID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return nil, invalid("person %d not found", in.PersonID)
		}
		return nil, err
	}
	if !person.IsActive {
		return nil, invalid("person %d is not active", in.PersonID)
	}

	exists, err := s.store.Reservations().ExistsForPerson(ctx, sess.ID, in.PersonID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid("person %d already has a reservation on session %d", in.PersonID, sess.ID)
	}

	if in.SeatID != nil {
		seat, err := s.store.Seats().GetByID(ctx, *in.SeatID)
		if err != nil {
			if errors.Is(err, repository.ErrSeatNotFound) {
				return nil, invalid("seat %d not found", *in.SeatID)
			}
			return nil, err
		}
		if seat.VenueID != sess.VenueID {
			return nil, invalid("seat %d does not belong to the session's venue", *in.SeatID)
		}
		taken, err := s.store.Reservations().SeatTaken(ctx, sess.ID, *in.SeatID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, invalid("seat %d is already taken on session %d", *in.SeatID, sess.ID)
		}
	}

	count, err := s.store.Reservations().CountActive(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if count >= sess.Capacity {
		return nil, invalid("session %d is full", sess.ID)
	}

	key := uuid.NewString()
	r := &model.Reservation{
		SessionID:      sess.ID,
		PersonID:       in.PersonID,
		SeatID:         in.SeatID,
		Status:         model.ReservationReserved,
		Source:         model.SourceManual,
		IdempotencyKey: &key,
		ReservedAt:     s.clock.Now(),
	}
	if err := s.store.Reservations().Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("the spot was taken while reserving")
		}
		return nil, err
	}
	return r, nil
}

// CancelReservation flips a live reservation to canceled.  The row stays for
// history; the unconditional (session, person) index means the person cannot
// rebook the same session afterwards.
func (s *Service) CancelReservation(ctx context.Context, reservationID uint64) error {
	r, err := s.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return invalid("reservation %d not found", reservationID)
		}
		return err
	}
	switch r.Status {
	case model.ReservationCanceled:
		return nil
	case model.ReservationCheckedIn:
		return invalid("reservation %d is already checked in", reservationID)
	}
	return s.store.Reservations().UpdateStatus(ctx, reservationID, model.ReservationCanceled)
}

// CheckIn marks a reserved spot as attended.
func (s *Service) CheckIn(ctx context.Context, reservationID uint64) error {
	err := s.store.Reservations().CheckIn(ctx, reservationID, s.clock.Now())
	if errors.Is(err, repository.ErrConflict) {
		return invalid("reservation %d cannot check in from its current status", reservationID)
	}
	if errors.Is(err, repository.ErrReservationNotFound) {
		return invalid("reservation %d not found", reservationID)
	}
	return err
}

// CheckOut stamps the checkout time on a checked-in reservation.
func (s *Service) CheckOut(ctx context.Context, reservationID uint64) error {
	err := s.store.Reservations().CheckOut(ctx, reservationID, s.clock.Now())
	if errors.Is(err, repository.ErrConflict) {
		return invalid("reservation %d is not checked in", reservationID)
	}
	if errors.Is(err, repository.ErrReservationNotFound) {
		return invalid("reservation %d not found", reservationID)
	}
	return err
}

// AvailableSeats returns the active seats of the session's venue that no
// live reservation holds.
func (s *Service) AvailableSeats(ctx context.Context, sessionID uint64) ([]model.Seat, error) {
	sess, err := s.store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.Seats().ListByVenue(ctx, sess.VenueID)
	if err != nil {
		return nil, err
	}
	takenIDs, err := s.store.Reservations().TakenSeatIDs(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	taken := make(map[uint64]struct{}, len(takenIDs))
	for _, id := range takenIDs {
		taken[id] = struct{}{}
	}
	free := make([]model.Seat, 0, len(seats))
	for _, seat := range seats {
		if _, ok := taken[seat.ID]; !ok {
			free = append(free, seat)
		}
	}
	return free, nil
}
