package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// StandingBookingRepo provides access to standing_bookings, the recurring
// weekly reservation rules the materializer expands.
type StandingBookingRepo struct {
	db DBTX
}

// NewStandingBookingRepo returns a StandingBookingRepo bound to the given
// querier.
func NewStandingBookingRepo(db DBTX) *StandingBookingRepo {
	return &StandingBookingRepo{db: db}
}

const bookingCols = `id, person_id, subscription_id, template_id, seat_id,
       start_date, end_date, status, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.StandingBooking, error) {
	var b model.StandingBooking
	var seat sql.NullInt64
	var startDate, endDate string
	err := row.Scan(&b.ID, &b.PersonID, &b.SubscriptionID, &b.TemplateID, &seat,
		&startDate, &endDate, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if seat.Valid {
		id := uint64(seat.Int64)
		b.SeatID = &id
	}
	if b.StartDate, err = time.Parse("2006-01-02", startDate); err != nil {
		return nil, err
	}
	if b.EndDate, err = time.Parse("2006-01-02", endDate); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a standing booking.  The live-uniqueness indexes on
// (person, template) and (template, seat) surface as ErrDuplicate.
func (r *StandingBookingRepo) Create(ctx context.Context, b *model.StandingBooking) error {
	const q = `INSERT INTO standing_bookings
	           (person_id, subscription_id, template_id, seat_id, start_date, end_date, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		b.PersonID, b.SubscriptionID, b.TemplateID, nullableID(b.SeatID),
		dateOnly(b.StartDate), dateOnly(b.EndDate), b.Status)
	if err != nil {
		return asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns a standing booking or ErrBookingNotFound.
func (r *StandingBookingRepo) GetByID(ctx context.Context, id uint64) (*model.StandingBooking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM standing_bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatus sets a booking's status (active, paused or canceled).
func (r *StandingBookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE standing_bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return asDuplicate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListActiveIntersecting returns the active bookings whose validity range
// overlaps [from, to] (calendar dates, inclusive), optionally filtered by
// subscription and template.  This is the materializer's worklist query.
func (r *StandingBookingRepo) ListActiveIntersecting(ctx context.Context, from, to time.Time, subscriptionID, templateID *uint64) ([]model.StandingBooking, error) {
	q := `SELECT ` + bookingCols + ` FROM standing_bookings
	      WHERE status = ? AND start_date <= ? AND end_date >= ?`
	args := []any{model.StandingActive, dateOnly(to), dateOnly(from)}
	if subscriptionID != nil {
		q += ` AND subscription_id = ?`
		args = append(args, *subscriptionID)
	}
	if templateID != nil {
		q += ` AND template_id = ?`
		args = append(args, *templateID)
	}
	q += ` ORDER BY id`
	return r.list(ctx, q, args...)
}

// ListActiveForTemplateOn returns active bookings on a template whose range
// covers the given calendar date.  Used by per-session materialization right
// after a session is created.
func (r *StandingBookingRepo) ListActiveForTemplateOn(ctx context.Context, templateID uint64, date time.Time) ([]model.StandingBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM standing_bookings
	           WHERE template_id = ? AND status = ? AND start_date <= ? AND end_date >= ?
	           ORDER BY id`
	d := dateOnly(date)
	return r.list(ctx, q, templateID, model.StandingActive, d, d)
}

// ListBySubscription returns all bookings attached to a subscription.
func (r *StandingBookingRepo) ListBySubscription(ctx context.Context, subscriptionID uint64) ([]model.StandingBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM standing_bookings
	           WHERE subscription_id = ? ORDER BY id`
	return r.list(ctx, q, subscriptionID)
}

// LatestBySubscription returns the most recently created booking of a
// subscription regardless of status, or ErrBookingNotFound.  Renewal uses it
// to carry the member's template and seat forward.
func (r *StandingBookingRepo) LatestBySubscription(ctx context.Context, subscriptionID uint64) (*model.StandingBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM standing_bookings
	           WHERE subscription_id = ? ORDER BY id DESC LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, subscriptionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// CancelBySubscriptions cancels every non-canceled booking attached to the
// given subscriptions and returns how many rows it changed.
func (r *StandingBookingRepo) CancelBySubscriptions(ctx context.Context, subscriptionIDs []uint64) (int64, error) {
	if len(subscriptionIDs) == 0 {
		return 0, nil
	}
	q := `UPDATE standing_bookings SET status = ? WHERE status <> ? AND subscription_id IN (?`
	args := []any{model.StandingCanceled, model.StandingCanceled, subscriptionIDs[0]}
	for _, id := range subscriptionIDs[1:] {
		q += `, ?`
		args = append(args, id)
	}
	q += `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HasActiveForPersonTemplate reports whether the person already holds a live
// (active or paused) booking on the template.
func (r *StandingBookingRepo) HasActiveForPersonTemplate(ctx context.Context, personID, templateID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM standing_bookings
	           WHERE person_id = ? AND template_id = ? AND status IN (?, ?)`
	var n int
	err := r.db.QueryRowContext(ctx, q, personID, templateID,
		model.StandingActive, model.StandingPaused).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SeatHeldByOther reports whether a live booking by someone else already
// claims the seat on this template.
func (r *StandingBookingRepo) SeatHeldByOther(ctx context.Context, templateID, seatID, personID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM standing_bookings
	           WHERE template_id = ? AND seat_id = ? AND person_id <> ? AND status IN (?, ?)`
	var n int
	err := r.db.QueryRowContext(ctx, q, templateID, seatID, personID,
		model.StandingActive, model.StandingPaused).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *StandingBookingRepo) list(ctx context.Context, q string, args ...any) ([]model.StandingBooking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StandingBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ExceptionRepo provides access to standing_booking_exceptions.
type ExceptionRepo struct {
	db DBTX
}

// NewExceptionRepo returns an ExceptionRepo bound to the given querier.
func NewExceptionRepo(db DBTX) *ExceptionRepo { return &ExceptionRepo{db: db} }

// Create inserts an exception.  A second exception for the same booking and
// date violates uq_standing_booking_date and comes back as ErrDuplicate.
func (r *ExceptionRepo) Create(ctx context.Context, e *model.StandingBookingException) error {
	const q = `INSERT INTO standing_booking_exceptions
	           (standing_booking_id, session_date, action, new_session_id, notes)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.StandingBookingID, dateOnly(e.SessionDate), e.Action,
		nullableID(e.NewSessionID), nullableString(e.Notes))
	if err != nil {
		return asDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListForBookings returns every exception of the given bookings whose date
// falls in [from, to], keyed for the materializer to index by (booking, date).
func (r *ExceptionRepo) ListForBookings(ctx context.Context, bookingIDs []uint64, from, to time.Time) ([]model.StandingBookingException, error) {
	if len(bookingIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id, standing_booking_id, session_date, action, new_session_id, notes, created_at
	      FROM standing_booking_exceptions
	      WHERE session_date >= ? AND session_date <= ? AND standing_booking_id IN (?`
	args := []any{dateOnly(from), dateOnly(to), bookingIDs[0]}
	for _, id := range bookingIDs[1:] {
		q += `, ?`
		args = append(args, id)
	}
	q += `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StandingBookingException, 0)
	for rows.Next() {
		var e model.StandingBookingException
		var date string
		var newSession sql.NullInt64
		var notes sql.NullString
		err := rows.Scan(&e.ID, &e.StandingBookingID, &date, &e.Action, &newSession, &notes, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		if e.SessionDate, err = time.Parse("2006-01-02", date); err != nil {
			return nil, err
		}
		if newSession.Valid {
			id := uint64(newSession.Int64)
			e.NewSessionID = &id
		}
		if notes.Valid {
			n := notes.String
			e.Notes = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
