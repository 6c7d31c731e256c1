package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// PersonRepo provides access to the people table (members and instructors).
type PersonRepo struct {
	db DBTX
}

// NewPersonRepo returns a PersonRepo bound to the given querier.
func NewPersonRepo(db DBTX) *PersonRepo { return &PersonRepo{db: db} }

const personCols = `id, full_name, email, phone_number, is_active, created_at, updated_at`

func scanPerson(row interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	var email, phone sql.NullString
	err := row.Scan(&p.ID, &p.FullName, &email, &phone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		e := email.String
		p.Email = &e
	}
	if phone.Valid {
		n := phone.String
		p.PhoneNumber = &n
	}
	return &p, nil
}

// Create inserts a person and populates the generated ID.
func (r *PersonRepo) Create(ctx context.Context, p *model.Person) error {
	const q = `INSERT INTO people (full_name, email, phone_number, is_active)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.FullName, nullableString(p.Email), nullableString(p.PhoneNumber), p.IsActive)
	if err != nil {
		return asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns a person or ErrPersonNotFound.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx,
		`SELECT `+personCols+` FROM people WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPersonNotFound
	}
	return p, err
}

// Search returns active people whose name, email or phone matches the query,
// capped at limit rows.  Front desk staff use this to find a member fast.
func (r *PersonRepo) Search(ctx context.Context, query string, limit int) ([]model.Person, error) {
	const q = `SELECT ` + personCols + ` FROM people
	           WHERE is_active = 1
	             AND (full_name LIKE ? OR email LIKE ? OR phone_number LIKE ?)
	           ORDER BY full_name LIMIT ?`
	like := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, q, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
