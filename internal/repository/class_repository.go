package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// ClassTypeRepo provides access to the class_types catalog.
type ClassTypeRepo struct {
	db DBTX
}

// NewClassTypeRepo returns a ClassTypeRepo bound to the given querier.
func NewClassTypeRepo(db DBTX) *ClassTypeRepo { return &ClassTypeRepo{db: db} }

// Create inserts a class type and populates the generated ID.
func (r *ClassTypeRepo) Create(ctx context.Context, ct *model.ClassType) error {
	const q = `INSERT INTO class_types (code, name, description) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, ct.Code, ct.Name, nullableString(ct.Description))
	if err != nil {
		return asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ct.ID = uint64(id)
	return nil
}

// GetByID returns a class type or sql.ErrNoRows passed through as-is; the
// scheduling core only reaches here with IDs taken off existing templates.
func (r *ClassTypeRepo) GetByID(ctx context.Context, id uint64) (*model.ClassType, error) {
	const q = `SELECT id, code, name, description FROM class_types WHERE id = ?`
	var ct model.ClassType
	var desc sql.NullString
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&ct.ID, &ct.Code, &ct.Name, &desc); err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		ct.Description = &d
	}
	return &ct, nil
}

// List returns all class types ordered by name.
func (r *ClassTypeRepo) List(ctx context.Context) ([]model.ClassType, error) {
	const q = `SELECT id, code, name, description FROM class_types ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassType, 0)
	for rows.Next() {
		var ct model.ClassType
		var desc sql.NullString
		if err := rows.Scan(&ct.ID, &ct.Code, &ct.Name, &desc); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			ct.Description = &d
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// TemplateRepo provides access to class_templates, the recurring weekly
// class rules that the session expander and the renewal orchestrator work
// from.
type TemplateRepo struct {
	db DBTX
}

// NewTemplateRepo returns a TemplateRepo bound to the given querier.
func NewTemplateRepo(db DBTX) *TemplateRepo { return &TemplateRepo{db: db} }

const templateCols = `id, class_type_id, venue_id, instructor_id, name, weekday,
       start_time_local, default_duration_min, default_capacity, is_active,
       created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*model.ClassTemplate, error) {
	var t model.ClassTemplate
	var instructor sql.NullInt64
	var name sql.NullString
	var capacity sql.NullInt64
	err := row.Scan(
		&t.ID, &t.ClassTypeID, &t.VenueID, &instructor, &name, &t.Weekday,
		&t.StartTimeLocal, &t.DurationMin, &capacity, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if instructor.Valid {
		id := uint64(instructor.Int64)
		t.InstructorID = &id
	}
	if name.Valid {
		n := name.String
		t.Name = &n
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		t.DefaultCapacity = &c
	}
	return &t, nil
}

// Create inserts a template and populates the generated ID.
func (r *TemplateRepo) Create(ctx context.Context, t *model.ClassTemplate) error {
	const q = `INSERT INTO class_templates
	           (class_type_id, venue_id, instructor_id, name, weekday,
	            start_time_local, default_duration_min, default_capacity, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var capacity any
	if t.DefaultCapacity != nil {
		capacity = *t.DefaultCapacity
	}
	res, err := r.db.ExecContext(ctx, q,
		t.ClassTypeID, t.VenueID, nullableID(t.InstructorID), nullableString(t.Name),
		t.Weekday, t.StartTimeLocal, t.DurationMin, capacity, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID returns a template or ErrTemplateNotFound.
func (r *TemplateRepo) GetByID(ctx context.Context, id uint64) (*model.ClassTemplate, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM class_templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	return t, err
}

// ListActive returns all active templates ordered by weekday and start time.
func (r *TemplateRepo) ListActive(ctx context.Context) ([]model.ClassTemplate, error) {
	const q = `SELECT ` + templateCols + ` FROM class_templates
	           WHERE is_active = 1 ORDER BY weekday, start_time_local`
	return r.list(ctx, q)
}

// List returns templates with optional class type / venue filters.  When
// activeOnly is false, inactive templates are included as well.
func (r *TemplateRepo) List(ctx context.Context, classTypeID, venueID *uint64, activeOnly bool) ([]model.ClassTemplate, error) {
	q := `SELECT ` + templateCols + ` FROM class_templates WHERE 1=1`
	args := make([]any, 0, 2)
	if activeOnly {
		q += ` AND is_active = 1`
	}
	if classTypeID != nil {
		q += ` AND class_type_id = ?`
		args = append(args, *classTypeID)
	}
	if venueID != nil {
		q += ` AND venue_id = ?`
		args = append(args, *venueID)
	}
	q += ` ORDER BY weekday, start_time_local`
	return r.list(ctx, q, args...)
}

// ListGroup returns the active templates in ref's time-slot group: same
// class type, venue, start time and instructor (both NULL counts as a
// match), ordered by weekday.  ref itself is included.
func (r *TemplateRepo) ListGroup(ctx context.Context, ref *model.ClassTemplate) ([]model.ClassTemplate, error) {
	q := `SELECT ` + templateCols + ` FROM class_templates
	      WHERE class_type_id = ? AND venue_id = ? AND start_time_local = ? AND is_active = 1`
	args := []any{ref.ClassTypeID, ref.VenueID, ref.StartTimeLocal}
	if ref.InstructorID != nil {
		q += ` AND instructor_id = ?`
		args = append(args, *ref.InstructorID)
	} else {
		q += ` AND instructor_id IS NULL`
	}
	q += ` ORDER BY weekday`
	return r.list(ctx, q, args...)
}

// SetActive toggles a template's active flag.
func (r *TemplateRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE class_templates SET is_active = ?, updated_at = NOW() WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *TemplateRepo) list(ctx context.Context, q string, args ...any) ([]model.ClassTemplate, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
