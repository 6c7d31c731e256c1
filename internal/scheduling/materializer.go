package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

// WindowOptions scopes a materialization pass.  From/To are calendar dates,
// inclusive.  SubscriptionID and TemplateID narrow the worklist; renewal
// passes its fresh subscription so it only touches its own bookings.
// StandingBookingID narrows to a single booking, which is how preview
// answers "what would my booking produce".
type WindowOptions struct {
	From              time.Time
	To                time.Time
	SubscriptionID    *uint64
	TemplateID        *uint64
	StandingBookingID *uint64
}

// scopeToBooking drops every booking but the named one.  A nil id keeps the
// list as is.
func scopeToBooking(bookings []model.StandingBooking, id *uint64) []model.StandingBooking {
	if id == nil {
		return bookings
	}
	kept := bookings[:0]
	for _, b := range bookings {
		if b.ID == *id {
			kept = append(kept, b)
		}
	}
	return kept
}

// MaterializeWindow expands every active standing booking intersecting the
// window into concrete reservations, honoring per-date exceptions.  The pass
// is idempotent: occurrences that already hold a reservation count as
// skipped_existing, full sessions as skipped_no_capacity, taken seats as
// skipped_seat_taken.  Individual failures are collected into Stats.Errors
// and do not stop the pass.
func (s *Service) MaterializeWindow(ctx context.Context, opts WindowOptions) (*Stats, error) {
	return s.materializeWindow(ctx, s.store, opts)
}

func (s *Service) materializeWindow(ctx context.Context, st Store, opts WindowOptions) (*Stats, error) {
	stats := &Stats{}
	if opts.To.Before(opts.From) {
		return nil, invalid("window end %s is before start %s",
			opts.To.Format("2006-01-02"), opts.From.Format("2006-01-02"))
	}

	bookings, err := st.Bookings().ListActiveIntersecting(ctx, opts.From, opts.To, opts.SubscriptionID, opts.TemplateID)
	if err != nil {
		return nil, err
	}
	bookings = scopeToBooking(bookings, opts.StandingBookingID)
	if len(bookings) == 0 {
		return stats, nil
	}

	exceptions, err := s.loadExceptions(ctx, st, bookings, opts.From, opts.To)
	if err != nil {
		return nil, err
	}

	templates := make(map[uint64]*model.ClassTemplate)
	for i := range bookings {
		b := &bookings[i]
		stats.ProcessedBookings++

		t, ok := templates[b.TemplateID]
		if !ok {
			t, err = st.Templates().GetByID(ctx, b.TemplateID)
			if err != nil {
				stats.Errors = append(stats.Errors,
					fmt.Sprintf("booking %d: template %d: %v", b.ID, b.TemplateID, err))
				continue
			}
			templates[b.TemplateID] = t
		}

		s.materializeBooking(ctx, st, b, t, opts.From, opts.To, exceptions, stats)
	}
	return stats, nil
}

// materializeBooking walks the booking's occurrences inside the window.
func (s *Service) materializeBooking(ctx context.Context, st Store, b *model.StandingBooking, t *model.ClassTemplate, from, to time.Time, exceptions map[exceptionKey]*model.StandingBookingException, stats *Stats) {
	start := atMidnight(from)
	if b.StartDate.After(start) {
		start = atMidnight(b.StartDate)
	}
	end := atMidnight(to)
	if b.EndDate.Before(end) {
		end = atMidnight(b.EndDate)
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if NormalizeWeekday(d) != t.Weekday {
			continue
		}

		if exc, ok := exceptions[exceptionKey{b.ID, d.Format("2006-01-02")}]; ok {
			switch exc.Action {
			case model.ExceptionSkip:
				stats.SkippedExceptions++
				continue
			case model.ExceptionReschedule:
				if exc.NewSessionID == nil {
					stats.Errors = append(stats.Errors,
						fmt.Sprintf("booking %d %s: reschedule exception without session", b.ID, d.Format("2006-01-02")))
					continue
				}
				sess, err := st.Sessions().GetByID(ctx, *exc.NewSessionID)
				if err != nil {
					stats.Errors = append(stats.Errors,
						fmt.Sprintf("booking %d %s: rescheduled session %d: %v", b.ID, d.Format("2006-01-02"), *exc.NewSessionID, err))
					continue
				}
				s.attemptReservation(ctx, st, sess, b, model.SourceOverride, stats)
				continue
			}
		}

		sess, err := st.Sessions().FindByTemplateDate(ctx, t.ID, d)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				continue
			}
			stats.Errors = append(stats.Errors,
				fmt.Sprintf("booking %d %s: %v", b.ID, d.Format("2006-01-02"), err))
			continue
		}
		s.attemptReservation(ctx, st, sess, b, model.SourceStanding, stats)
	}
}

// attemptReservation creates one reservation for the booking on the session
// if nothing stands in the way.  The existing-reservation check runs first,
// then either the seat conflict check (seat bookings) or the headcount check
// (seatless bookings), never both.  A duplicate-key race on insert lands in
// the same buckets the pre-checks would have used.
func (s *Service) attemptReservation(ctx context.Context, st Store, sess *model.ClassSession, b *model.StandingBooking, source string, stats *Stats) {
	res := st.Reservations()

	exists, err := res.ExistsForPerson(ctx, sess.ID, b.PersonID)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("booking %d session %d: %v", b.ID, sess.ID, err))
		return
	}
	if exists {
		stats.SkippedExisting++
		return
	}

	// Seat bookings are gated by seat uniqueness alone; only seatless
	// bookings compete on headcount.
	if b.SeatID != nil {
		taken, err := res.SeatTaken(ctx, sess.ID, *b.SeatID)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("booking %d session %d: %v", b.ID, sess.ID, err))
			return
		}
		if taken {
			stats.SkippedSeatTaken++
			return
		}
	} else {
		count, err := res.CountActive(ctx, sess.ID)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("booking %d session %d: %v", b.ID, sess.ID, err))
			return
		}
		if count >= sess.Capacity {
			stats.SkippedNoCapacity++
			return
		}
	}

	key := uuid.NewString()
	err = res.Create(ctx, &model.Reservation{
		SessionID:      sess.ID,
		PersonID:       b.PersonID,
		SeatID:         b.SeatID,
		Status:         model.ReservationReserved,
		Source:         source,
		IdempotencyKey: &key,
		ReservedAt:     s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if b.SeatID != nil {
				stats.SkippedSeatTaken++
			} else {
				stats.SkippedExisting++
			}
			return
		}
		stats.Errors = append(stats.Errors, fmt.Sprintf("booking %d session %d: %v", b.ID, sess.ID, err))
		return
	}
	stats.CreatedReservations++
}

// MaterializeForSession runs materialization for a single session right
// after it appears.  Exceptions are not consulted here: an exception names a
// booking and a date, and dates reached through this path are fresh sessions
// nobody could have excepted yet.  Sessions without a template have no
// standing bookings and yield an empty tally.
func (s *Service) MaterializeForSession(ctx context.Context, sessionID uint64) (*Stats, error) {
	stats := &Stats{}
	sess, err := s.store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.TemplateID == nil || sess.Status != model.SessionScheduled {
		return stats, nil
	}

	bookings, err := s.store.Bookings().ListActiveForTemplateOn(ctx, *sess.TemplateID, sess.StartAt)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		stats.ProcessedBookings++
		s.attemptReservation(ctx, s.store, sess, &bookings[i], model.SourceStanding, stats)
	}
	return stats, nil
}

type exceptionKey struct {
	bookingID uint64
	date      string
}

func (s *Service) loadExceptions(ctx context.Context, st Store, bookings []model.StandingBooking, from, to time.Time) (map[exceptionKey]*model.StandingBookingException, error) {
	ids := make([]uint64, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
	}
	excs, err := st.Exceptions().ListForBookings(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}
	out := make(map[exceptionKey]*model.StandingBookingException, len(excs))
	for i := range excs {
		e := &excs[i]
		out[exceptionKey{e.StandingBookingID, e.SessionDate.Format("2006-01-02")}] = e
	}
	return out, nil
}

// PreviewWindow reports what MaterializeWindow would do over the window
// without writing anything.  Each occurrence of each booking becomes one
// entry classified as will_create, existing, blocked (seat or capacity),
// skipped, rescheduled, or no_session.
func (s *Service) PreviewWindow(ctx context.Context, opts WindowOptions) ([]PreviewEntry, error) {
	if opts.To.Before(opts.From) {
		return nil, invalid("window end %s is before start %s",
			opts.To.Format("2006-01-02"), opts.From.Format("2006-01-02"))
	}
	bookings, err := s.store.Bookings().ListActiveIntersecting(ctx, opts.From, opts.To, opts.SubscriptionID, opts.TemplateID)
	if err != nil {
		return nil, err
	}
	bookings = scopeToBooking(bookings, opts.StandingBookingID)
	exceptions, err := s.loadExceptions(ctx, s.store, bookings, opts.From, opts.To)
	if err != nil {
		return nil, err
	}

	entries := make([]PreviewEntry, 0)
	templates := make(map[uint64]*model.ClassTemplate)
	for i := range bookings {
		b := &bookings[i]
		t, ok := templates[b.TemplateID]
		if !ok {
			t, err = s.store.Templates().GetByID(ctx, b.TemplateID)
			if err != nil {
				return nil, err
			}
			templates[b.TemplateID] = t
		}

		start := atMidnight(opts.From)
		if b.StartDate.After(start) {
			start = atMidnight(b.StartDate)
		}
		end := atMidnight(opts.To)
		if b.EndDate.Before(end) {
			end = atMidnight(b.EndDate)
		}

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if NormalizeWeekday(d) != t.Weekday {
				continue
			}
			entry := PreviewEntry{
				StandingBookingID: b.ID,
				PersonID:          b.PersonID,
				TemplateID:        b.TemplateID,
				Date:              d.Format("2006-01-02"),
			}

			if exc, ok := exceptions[exceptionKey{b.ID, entry.Date}]; ok {
				if exc.Action == model.ExceptionSkip {
					entry.Outcome = PreviewSkipped
					entries = append(entries, entry)
					continue
				}
				entry.Outcome = PreviewRescheduled
				entry.SessionID = exc.NewSessionID
				if exc.NewSessionID != nil {
					if e, err := s.classify(ctx, *exc.NewSessionID, b); err == nil && e != PreviewWillCreate {
						entry.Reason = e
					}
				}
				entries = append(entries, entry)
				continue
			}

			sess, err := s.store.Sessions().FindByTemplateDate(ctx, t.ID, d)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					entry.Outcome = PreviewNoSession
					entries = append(entries, entry)
					continue
				}
				return nil, err
			}
			entry.SessionID = &sess.ID
			outcome, err := s.classify(ctx, sess.ID, b)
			if err != nil {
				return nil, err
			}
			entry.Outcome = outcome
			switch outcome {
			case PreviewBlocked:
				entry.Reason = s.blockReason(ctx, sess, b)
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// classify mirrors attemptReservation's checks without writing.
func (s *Service) classify(ctx context.Context, sessionID uint64, b *model.StandingBooking) (string, error) {
	sess, err := s.store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	exists, err := s.store.Reservations().ExistsForPerson(ctx, sess.ID, b.PersonID)
	if err != nil {
		return "", err
	}
	if exists {
		return PreviewExisting, nil
	}
	if b.SeatID != nil {
		taken, err := s.store.Reservations().SeatTaken(ctx, sess.ID, *b.SeatID)
		if err != nil {
			return "", err
		}
		if taken {
			return PreviewBlocked, nil
		}
		return PreviewWillCreate, nil
	}
	count, err := s.store.Reservations().CountActive(ctx, sess.ID)
	if err != nil {
		return "", err
	}
	if count >= sess.Capacity {
		return PreviewBlocked, nil
	}
	return PreviewWillCreate, nil
}

func (s *Service) blockReason(ctx context.Context, sess *model.ClassSession, b *model.StandingBooking) string {
	if b.SeatID != nil {
		if taken, err := s.store.Reservations().SeatTaken(ctx, sess.ID, *b.SeatID); err == nil && taken {
			return "seat taken"
		}
	}
	return "no capacity"
}
