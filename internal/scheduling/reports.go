package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

// TemplateCoverage summarizes how well the generated sessions cover one
// template over a window.
type TemplateCoverage struct {
	TemplateID   uint64      `json:"template_id"`
	Expected     int         `json:"expected"`
	Existing     int         `json:"existing"`
	MissingDates []time.Time `json:"missing_dates,omitempty"`
}

// CoverageReport walks every active template across [from, to] and counts
// the occurrences the window calls for against the sessions that exist,
// listing the dates of any gaps.  Fully covered templates still appear, so
// the report doubles as a schedule inventory.
func (s *Service) CoverageReport(ctx context.Context, from, to time.Time) ([]TemplateCoverage, error) {
	if to.Before(from) {
		return nil, invalid("window end %s is before start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	templates, err := s.store.Templates().ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TemplateCoverage, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		cov := TemplateCoverage{TemplateID: t.ID}
		for d := atMidnight(from); !d.After(atMidnight(to)); d = d.AddDate(0, 0, 1) {
			if NormalizeWeekday(d) != t.Weekday {
				continue
			}
			cov.Expected++
			exists, err := s.store.Sessions().ExistsForTemplateDate(ctx, t.ID, d)
			if err != nil {
				return nil, err
			}
			if exists {
				cov.Existing++
			} else {
				cov.MissingDates = append(cov.MissingDates, d)
			}
		}
		out = append(out, cov)
	}
	return out, nil
}

// TemplateAvailableSeats reports which of the venue's seats a new standing
// booking could claim on the template.  With a date it answers for that
// occurrence: the generated session's reservations when one exists, otherwise
// the standing bookings covering the date.  Without a date it answers for the
// slot itself, treating every active booking that is still running or
// upcoming as holding its seat.
func (s *Service) TemplateAvailableSeats(ctx context.Context, templateID uint64, date *time.Time) ([]model.Seat, error) {
	t, err := s.store.Templates().GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, invalid("class template %d not found", templateID)
		}
		return nil, err
	}

	var bookings []model.StandingBooking
	if date != nil {
		d := atMidnight(*date)
		if NormalizeWeekday(d) != t.Weekday {
			return nil, invalid("%s does not fall on the template's weekday", d.Format("2006-01-02"))
		}
		sess, err := s.store.Sessions().FindByTemplateDate(ctx, t.ID, d)
		if err == nil {
			return s.AvailableSeats(ctx, sess.ID)
		}
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return nil, err
		}
		bookings, err = s.store.Bookings().ListActiveForTemplateOn(ctx, t.ID, d)
		if err != nil {
			return nil, err
		}
	} else {
		from := atMidnight(s.clock.Now())
		bookings, err = s.store.Bookings().ListActiveIntersecting(ctx, from, from.AddDate(1, 0, 0), nil, &templateID)
		if err != nil {
			return nil, err
		}
	}

	held := make(map[uint64]struct{}, len(bookings))
	for _, b := range bookings {
		if b.SeatID != nil {
			held[*b.SeatID] = struct{}{}
		}
	}
	seats, err := s.store.Seats().ListByVenue(ctx, t.VenueID)
	if err != nil {
		return nil, err
	}
	free := make([]model.Seat, 0, len(seats))
	for _, seat := range seats {
		if _, ok := held[seat.ID]; !ok {
			free = append(free, seat)
		}
	}
	return free, nil
}
