package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// SessionRepo provides access to class_sessions, the dated occurrences that
// reservations attach to.
type SessionRepo struct {
	db DBTX
}

// NewSessionRepo returns a SessionRepo bound to the given querier.
func NewSessionRepo(db DBTX) *SessionRepo { return &SessionRepo{db: db} }

const sessionCols = `id, template_id, class_type_id, venue_id, instructor_id, name,
       start_at, end_at, capacity, status, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*model.ClassSession, error) {
	var s model.ClassSession
	var template, instructor sql.NullInt64
	var name sql.NullString
	err := row.Scan(
		&s.ID, &template, &s.ClassTypeID, &s.VenueID, &instructor, &name,
		&s.StartAt, &s.EndAt, &s.Capacity, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if template.Valid {
		id := uint64(template.Int64)
		s.TemplateID = &id
	}
	if instructor.Valid {
		id := uint64(instructor.Int64)
		s.InstructorID = &id
	}
	if name.Valid {
		n := name.String
		s.Name = &n
	}
	return &s, nil
}

// Create inserts a session and populates the generated ID.  A second session
// for the same template and calendar date violates uq_sessions_template_date
// and comes back as ErrDuplicate.
func (r *SessionRepo) Create(ctx context.Context, s *model.ClassSession) error {
	const q = `INSERT INTO class_sessions
	           (template_id, class_type_id, venue_id, instructor_id, name,
	            start_at, end_at, capacity, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		nullableID(s.TemplateID), s.ClassTypeID, s.VenueID, nullableID(s.InstructorID),
		nullableString(s.Name), s.StartAt, s.EndAt, s.Capacity, s.Status)
	if err != nil {
		return asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID returns a session or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.ClassSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM class_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// ExistsForTemplateDate reports whether any session (regardless of status)
// already exists for the template on the given calendar date.  The expander
// uses this to stay idempotent across repeated window passes.
func (r *SessionRepo) ExistsForTemplateDate(ctx context.Context, templateID uint64, date time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM class_sessions WHERE template_id = ? AND DATE(start_at) = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, templateID, dateOnly(date)).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByTemplateDate returns the scheduled session for a template on a
// calendar date, or ErrSessionNotFound.  The materializer resolves each
// occurrence of a standing booking through this lookup.
func (r *SessionRepo) FindByTemplateDate(ctx context.Context, templateID uint64, date time.Time) (*model.ClassSession, error) {
	const q = `SELECT ` + sessionCols + ` FROM class_sessions
	           WHERE template_id = ? AND DATE(start_at) = ? AND status = ?`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, templateID, dateOnly(date), model.SessionScheduled))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// ListByRange returns sessions starting within [from, to), newest filters
// optional, ordered by start time.  Used by the public schedule endpoint.
func (r *SessionRepo) ListByRange(ctx context.Context, from, to time.Time, venueID, classTypeID *uint64) ([]model.ClassSession, error) {
	q := `SELECT ` + sessionCols + ` FROM class_sessions WHERE start_at >= ? AND start_at < ?`
	args := []any{from, to}
	if venueID != nil {
		q += ` AND venue_id = ?`
		args = append(args, *venueID)
	}
	if classTypeID != nil {
		q += ` AND class_type_id = ?`
		args = append(args, *classTypeID)
	}
	q += ` ORDER BY start_at`
	return r.list(ctx, q, args...)
}

// UpdateStatus transitions a session to the given status.
func (r *SessionRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE class_sessions SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) list(ctx context.Context, q string, args ...any) ([]model.ClassSession, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
