package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// VenueRepo provides access to venues and their seats.
type VenueRepo struct {
	db DBTX
}

// NewVenueRepo returns a VenueRepo bound to the given querier.
func NewVenueRepo(db DBTX) *VenueRepo { return &VenueRepo{db: db} }

// Create inserts a venue and populates the generated ID.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (name, description, capacity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Name, nullableString(v.Description), v.Capacity)
	if err != nil {
		return asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByID returns a venue or ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
	const q = `SELECT id, name, description, capacity, created_at, updated_at
	           FROM venues WHERE id = ?`
	var v model.Venue
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&v.ID, &v.Name, &desc, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		v.Description = &d
	}
	return &v, nil
}

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
	const q = `SELECT id, name, description, capacity, created_at, updated_at
	           FROM venues ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Venue, 0)
	for rows.Next() {
		var v model.Venue
		var desc sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &desc, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			v.Description = &d
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SeatRepo provides access to seats within venues.
type SeatRepo struct {
	db DBTX
}

// NewSeatRepo returns a SeatRepo bound to the given querier.
func NewSeatRepo(db DBTX) *SeatRepo { return &SeatRepo{db: db} }

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var s model.Seat
	var rowNum, colNum sql.NullInt64
	if err := row.Scan(&s.ID, &s.VenueID, &s.Label, &rowNum, &colNum, &s.IsActive); err != nil {
		return nil, err
	}
	if rowNum.Valid {
		n := int(rowNum.Int64)
		s.Row = &n
	}
	if colNum.Valid {
		n := int(colNum.Int64)
		s.Col = &n
	}
	return &s, nil
}

// Create inserts a seat.  A duplicate (venue, label) pair comes back as
// ErrDuplicate.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (venue_id, label, row_number, col_number, is_active)
	           VALUES (?, ?, ?, ?, ?)`
	var rowNum, colNum any
	if s.Row != nil {
		rowNum = *s.Row
	}
	if s.Col != nil {
		colNum = *s.Col
	}
	res, err := r.db.ExecContext(ctx, q, s.VenueID, s.Label, rowNum, colNum, s.IsActive)
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

// GetByID returns a seat or ErrSeatNotFound.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, venue_id, label, row_number, col_number, is_active
	           FROM seats WHERE id = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// ListByVenue returns the active seats of a venue ordered by label.
func (r *SeatRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	const q = `SELECT id, venue_id, label, row_number, col_number, is_active
	           FROM seats WHERE venue_id = ? AND is_active = 1 ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
