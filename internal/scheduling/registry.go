package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

// CreateStandingBookingInput describes a new recurring weekly slot claim.
// StartDate and EndDate default to the subscription's validity range.
type CreateStandingBookingInput struct {
	PersonID       uint64
	SubscriptionID uint64
	TemplateID     uint64
	SeatID         *uint64
	StartDate      *time.Time
	EndDate        *time.Time
}

// CreateStandingBooking validates and registers a standing booking.  It does
// not materialize anything; callers run a window pass when they want
// reservations to appear.
func (s *Service) CreateStandingBooking(ctx context.Context, in CreateStandingBookingInput) (*model.StandingBooking, error) {
	st := s.store

	person, err := st.People().GetByID(ctx, in.PersonID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return nil, invalid("person %d not found", in.PersonID)
		}
		return nil, err
	}
	if !person.IsActive {
		return nil, invalid("person %d is not active", in.PersonID)
	}

	sub, err := st.Subscriptions().GetByID(ctx, in.SubscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return nil, invalid("subscription %d not found", in.SubscriptionID)
		}
		return nil, err
	}
	if sub.PersonID != in.PersonID {
		return nil, invalid("subscription %d does not belong to person %d", in.SubscriptionID, in.PersonID)
	}
	if sub.Status != model.SubscriptionActive {
		return nil, invalid("subscription %d is not active", in.SubscriptionID)
	}

	t, err := st.Templates().GetByID(ctx, in.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, invalid("class template %d not found", in.TemplateID)
		}
		return nil, err
	}
	if !t.IsActive {
		return nil, invalid("class template %d is not active", in.TemplateID)
	}

	if in.SeatID != nil {
		seat, err := st.Seats().GetByID(ctx, *in.SeatID)
		if err != nil {
			if errors.Is(err, repository.ErrSeatNotFound) {
				return nil, invalid("seat %d not found", *in.SeatID)
			}
			return nil, err
		}
		if seat.VenueID != t.VenueID {
			return nil, invalid("seat %d does not belong to the template's venue", *in.SeatID)
		}
		held, err := st.Bookings().SeatHeldByOther(ctx, t.ID, *in.SeatID, in.PersonID)
		if err != nil {
			return nil, err
		}
		if held {
			return nil, invalid("seat %d is already held by another standing booking", *in.SeatID)
		}
	}

	has, err := st.Bookings().HasActiveForPersonTemplate(ctx, in.PersonID, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, invalid("person %d already has a standing booking for template %d", in.PersonID, in.TemplateID)
	}

	start := atMidnight(sub.StartAt)
	if in.StartDate != nil {
		start = atMidnight(*in.StartDate)
	}
	end := atMidnight(sub.EndAt)
	if in.EndDate != nil {
		end = atMidnight(*in.EndDate)
	}
	if end.Before(start) {
		return nil, invalid("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	b := &model.StandingBooking{
		PersonID:       in.PersonID,
		SubscriptionID: in.SubscriptionID,
		TemplateID:     in.TemplateID,
		SeatID:         in.SeatID,
		StartDate:      start,
		EndDate:        end,
		Status:         model.StandingActive,
	}
	if err := st.Bookings().Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("a conflicting standing booking already exists")
		}
		return nil, err
	}
	return b, nil
}

// UpdateStandingBookingStatus moves a booking between active, paused and
// canceled.  Any transition among the three is allowed; reactivating a
// canceled booking is a deliberate admin action, not an error.  Already
// materialized reservations are left untouched.
func (s *Service) UpdateStandingBookingStatus(ctx context.Context, bookingID uint64, status string) (*model.StandingBooking, error) {
	switch status {
	case model.StandingActive, model.StandingPaused, model.StandingCanceled:
	default:
		return nil, invalid("unknown standing booking status %q", status)
	}
	if err := s.store.Bookings().UpdateStatus(ctx, bookingID, status); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, invalid("standing booking %d not found", bookingID)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("reactivating would conflict with another standing booking")
		}
		return nil, err
	}
	return s.store.Bookings().GetByID(ctx, bookingID)
}

// CreateExceptionInput overrides one occurrence of a standing booking.
type CreateExceptionInput struct {
	StandingBookingID uint64
	SessionDate       time.Time
	Action            string
	NewSessionID      *uint64
	Notes             *string
}

// CreateException registers a skip or reschedule for a single date.  The
// date must fall inside the booking's validity range, and a reschedule must
// name a scheduled session.  One exception per (booking, date).
func (s *Service) CreateException(ctx context.Context, in CreateExceptionInput) (*model.StandingBookingException, error) {
	b, err := s.store.Bookings().GetByID(ctx, in.StandingBookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, invalid("standing booking %d not found", in.StandingBookingID)
		}
		return nil, err
	}

	date := atMidnight(in.SessionDate)
	if date.Before(atMidnight(b.StartDate)) || date.After(atMidnight(b.EndDate)) {
		return nil, invalid("date %s is outside the booking's validity range", date.Format("2006-01-02"))
	}

	switch in.Action {
	case model.ExceptionSkip:
		if in.NewSessionID != nil {
			return nil, invalid("a skip exception cannot name a session")
		}
	case model.ExceptionReschedule:
		if in.NewSessionID == nil {
			return nil, invalid("a reschedule exception must name a session")
		}
		sess, err := s.store.Sessions().GetByID(ctx, *in.NewSessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return nil, invalid("session %d not found", *in.NewSessionID)
			}
			return nil, err
		}
		if sess.Status != model.SessionScheduled {
			return nil, invalid("session %d is not scheduled", *in.NewSessionID)
		}
	default:
		return nil, invalid("unknown exception action %q", in.Action)
	}

	e := &model.StandingBookingException{
		StandingBookingID: in.StandingBookingID,
		SessionDate:       date,
		Action:            in.Action,
		NewSessionID:      in.NewSessionID,
		Notes:             in.Notes,
	}
	if err := s.store.Exceptions().Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("an exception already exists for %s", date.Format("2006-01-02"))
		}
		return nil, err
	}
	return e, nil
}
