package scheduling

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// fallbackCapacity is used when a template carries no default capacity.
const fallbackCapacity = 20

// GenerateSessions expands one template into concrete scheduled sessions for
// every matching weekday in [from, to] (calendar dates, inclusive).  Dates
// that already have a session for the template are left alone, so repeated
// calls over overlapping windows are safe.  Returns the sessions it created.
func (s *Service) GenerateSessions(ctx context.Context, templateID uint64, from, to time.Time) ([]model.ClassSession, error) {
	t, err := s.store.Templates().GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, invalid("class template %d is not active", templateID)
	}
	return s.generateForTemplate(ctx, s.store, t, from, to)
}

// generateForTemplate is the expansion loop shared by GenerateSessions,
// MaintainWindow and the renewal path (which runs it inside a transaction).
func (s *Service) generateForTemplate(ctx context.Context, st Store, t *model.ClassTemplate, from, to time.Time) ([]model.ClassSession, error) {
	startClock, err := time.Parse("15:04:05", t.StartTimeLocal)
	if err != nil {
		return nil, fmt.Errorf("template %d: bad start time %q: %w", t.ID, t.StartTimeLocal, err)
	}

	capacity := fallbackCapacity
	if t.DefaultCapacity != nil && *t.DefaultCapacity > 0 {
		capacity = *t.DefaultCapacity
	}

	created := make([]model.ClassSession, 0)
	for d := atMidnight(from); !d.After(atMidnight(to)); d = d.AddDate(0, 0, 1) {
		if NormalizeWeekday(d) != t.Weekday {
			continue
		}
		exists, err := st.Sessions().ExistsForTemplateDate(ctx, t.ID, d)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		name := t.Name
		if name == nil {
			n, err := s.sessionNameFor(ctx, st, t, d)
			if err != nil {
				return created, err
			}
			name = &n
		}

		startAt := d.Add(time.Duration(startClock.Hour())*time.Hour +
			time.Duration(startClock.Minute())*time.Minute +
			time.Duration(startClock.Second())*time.Second)
		tid := t.ID
		sess := model.ClassSession{
			TemplateID:   &tid,
			ClassTypeID:  t.ClassTypeID,
			VenueID:      t.VenueID,
			InstructorID: t.InstructorID,
			Name:         name,
			StartAt:      startAt,
			EndAt:        startAt.Add(time.Duration(t.DurationMin) * time.Minute),
			Capacity:     capacity,
			Status:       model.SessionScheduled,
		}
		if err := st.Sessions().Create(ctx, &sess); err != nil {
			return created, err
		}
		created = append(created, sess)
	}
	return created, nil
}

func (s *Service) sessionNameFor(ctx context.Context, st Store, t *model.ClassTemplate, date time.Time) (string, error) {
	ct, err := st.ClassTypes().GetByID(ctx, t.ClassTypeID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s - %s", ct.Name, date.Format("2006-01-02")), nil
}

// MaintainWindow rolls the session horizon forward: every active template is
// expanded from today through today+days, then one materialization pass over
// the same window puts standing bookings onto the fresh sessions.
// Per-template failures are logged and do not stop the sweep.  Returns the
// number of sessions created plus the materialization tally.
func (s *Service) MaintainWindow(ctx context.Context, days int) (int, *Stats, error) {
	templates, err := s.store.Templates().ListActive(ctx)
	if err != nil {
		return 0, nil, err
	}
	from := atMidnight(s.clock.Now())
	to := from.AddDate(0, 0, days)
	total := 0
	for i := range templates {
		created, err := s.generateForTemplate(ctx, s.store, &templates[i], from, to)
		total += len(created)
		if err != nil {
			log.Printf("maintain window: template %d: %v", templates[i].ID, err)
		}
	}
	stats, err := s.materializeWindow(ctx, s.store, WindowOptions{From: from, To: to})
	if err != nil {
		return total, nil, err
	}
	return total, stats, nil
}

// CreateSessionInput describes a manually created session.  TemplateID is
// optional; ad-hoc sessions are allowed.
type CreateSessionInput struct {
	TemplateID   *uint64
	ClassTypeID  uint64
	VenueID      uint64
	InstructorID *uint64
	Name         *string
	StartAt      time.Time
	DurationMin  int
	Capacity     int
}

// CreateSession inserts one session directly.  If the session belongs to a
// template, standing bookings covering its date are materialized right away;
// a materialization failure is logged, not returned, because the session
// itself was created.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (*model.ClassSession, *Stats, error) {
	if in.Capacity <= 0 {
		return nil, nil, invalid("capacity must be positive")
	}
	if in.DurationMin <= 0 {
		return nil, nil, invalid("duration must be positive")
	}
	sess := model.ClassSession{
		TemplateID:   in.TemplateID,
		ClassTypeID:  in.ClassTypeID,
		VenueID:      in.VenueID,
		InstructorID: in.InstructorID,
		Name:         in.Name,
		StartAt:      in.StartAt,
		EndAt:        in.StartAt.Add(time.Duration(in.DurationMin) * time.Minute),
		Capacity:     in.Capacity,
		Status:       model.SessionScheduled,
	}
	if err := s.store.Sessions().Create(ctx, &sess); err != nil {
		return nil, nil, err
	}

	var stats *Stats
	if sess.TemplateID != nil {
		var err error
		stats, err = s.MaterializeForSession(ctx, sess.ID)
		if err != nil {
			log.Printf("materialize session %d after create: %v", sess.ID, err)
			stats = nil
		}
	}
	return &sess, stats, nil
}

// CancelSession marks a session canceled and cancels its live reservations.
// Completed sessions cannot be canceled.
func (s *Service) CancelSession(ctx context.Context, sessionID uint64) (int64, error) {
	var canceled int64
	err := s.store.WithinTx(ctx, func(st Store) error {
		sess, err := st.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		switch sess.Status {
		case model.SessionCanceled:
			return nil
		case model.SessionCompleted:
			return invalid("session %d already completed", sessionID)
		}
		if err := st.Sessions().UpdateStatus(ctx, sessionID, model.SessionCanceled); err != nil {
			return err
		}
		canceled, err = st.Reservations().CancelForSession(ctx, sessionID)
		return err
	})
	return canceled, err
}
