package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// ReservationRepo provides access to reservations.  Cancels are soft: rows
// flip to canceled and stay for history, which is why the (session, person)
// unique index is unconditional while the (session, seat) index only covers
// live rows.
type ReservationRepo struct {
	db DBTX
}

// NewReservationRepo returns a ReservationRepo bound to the given querier.
func NewReservationRepo(db DBTX) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, session_id, person_id, seat_id, status, source,
       idempotency_key, reserved_at, checkin_at, checkout_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var v model.Reservation
	var seat sql.NullInt64
	var key sql.NullString
	var checkin, checkout sql.NullTime
	err := row.Scan(&v.ID, &v.SessionID, &v.PersonID, &seat, &v.Status, &v.Source,
		&key, &v.ReservedAt, &checkin, &checkout)
	if err != nil {
		return nil, err
	}
	if seat.Valid {
		id := uint64(seat.Int64)
		v.SeatID = &id
	}
	if key.Valid {
		k := key.String
		v.IdempotencyKey = &k
	}
	if checkin.Valid {
		t := checkin.Time
		v.CheckinAt = &t
	}
	if checkout.Valid {
		t := checkout.Time
		v.CheckoutAt = &t
	}
	return &v, nil
}

// Create inserts a reservation.  Unique-index hits (person already on the
// session, or a live reservation on the seat) come back as ErrDuplicate so
// the materializer can count them as skips instead of failing the run.
func (r *ReservationRepo) Create(ctx context.Context, v *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (session_id, person_id, seat_id, status, source, idempotency_key, reserved_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		v.SessionID, v.PersonID, nullableID(v.SeatID), v.Status, v.Source,
		nullableString(v.IdempotencyKey), v.ReservedAt)
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

// GetByID returns a reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	v, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return v, err
}

// ExistsForPerson reports whether the person has any reservation on the
// session, canceled rows included.  The unconditional (session, person)
// index means even a canceled row blocks a re-insert, so the idempotency
// check must see them too.
func (r *ReservationRepo) ExistsForPerson(ctx context.Context, sessionID, personID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE session_id = ? AND person_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, sessionID, personID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SeatTaken reports whether a reserved or checked-in reservation already holds
// the seat on the session.
func (r *ReservationRepo) SeatTaken(ctx context.Context, sessionID, seatID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE session_id = ? AND seat_id = ? AND status IN (?, ?)`
	var n int
	err := r.db.QueryRowContext(ctx, q, sessionID, seatID,
		model.ReservationReserved, model.ReservationCheckedIn).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountActive returns how many reserved or checked-in reservations a session
// holds, the number compared against session capacity.
func (r *ReservationRepo) CountActive(ctx context.Context, sessionID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE session_id = ? AND status IN (?, ?)`
	var n int
	err := r.db.QueryRowContext(ctx, q, sessionID,
		model.ReservationReserved, model.ReservationCheckedIn).Scan(&n)
	return n, err
}

// StatusCounts returns the session's reservation counts keyed by status.
func (r *ReservationRepo) StatusCounts(ctx context.Context, sessionID uint64) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) FROM reservations WHERE session_id = ? GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// ListBySession returns a session's reservations ordered by creation.
func (r *ReservationRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
	           WHERE session_id = ? ORDER BY id`
	return r.list(ctx, q, sessionID)
}

// ListByPerson returns a person's reservations on sessions starting within
// [from, to), most recent session first.
func (r *ReservationRepo) ListByPerson(ctx context.Context, personID uint64, from, to time.Time) ([]model.Reservation, error) {
	const q = `SELECT r.id, r.session_id, r.person_id, r.seat_id, r.status, r.source,
	                  r.idempotency_key, r.reserved_at, r.checkin_at, r.checkout_at
	           FROM reservations r
	           JOIN class_sessions s ON s.id = r.session_id
	           WHERE r.person_id = ? AND s.start_at >= ? AND s.start_at < ?
	           ORDER BY s.start_at DESC`
	return r.list(ctx, q, personID, from, to)
}

// TakenSeatIDs returns the seat IDs held by live reservations on the session.
func (r *ReservationRepo) TakenSeatIDs(ctx context.Context, sessionID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM reservations
	           WHERE session_id = ? AND seat_id IS NOT NULL AND status IN (?, ?)`
	rows, err := r.db.QueryContext(ctx, q, sessionID,
		model.ReservationReserved, model.ReservationCheckedIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdateStatus sets a reservation's status.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// CheckIn stamps checkin_at and flips the row to checked_in.  Only a reserved
// reservation can check in; anything else is ErrConflict.
func (r *ReservationRepo) CheckIn(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE reservations SET status = ?, checkin_at = ?
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.ReservationCheckedIn, at, id, model.ReservationReserved)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CheckOut stamps checkout_at on a checked-in reservation.
func (r *ReservationRepo) CheckOut(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE reservations SET checkout_at = ?
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, at, id, model.ReservationCheckedIn)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CancelForSession cancels every live reservation on a session and returns
// how many rows it changed.  Used when a session itself is canceled.
func (r *ReservationRepo) CancelForSession(ctx context.Context, sessionID uint64) (int64, error) {
	const q = `UPDATE reservations SET status = ?
	           WHERE session_id = ? AND status IN (?, ?)`
	res, err := r.db.ExecContext(ctx, q, model.ReservationCanceled, sessionID,
		model.ReservationReserved, model.ReservationWaitlisted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		v, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
