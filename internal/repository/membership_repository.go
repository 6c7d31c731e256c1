package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// PlanRepo provides access to membership_plans.
type PlanRepo struct {
	db DBTX
}

// NewPlanRepo returns a PlanRepo bound to the given querier.
func NewPlanRepo(db DBTX) *PlanRepo { return &PlanRepo{db: db} }

const planCols = `id, name, description, price_cents, duration_value, duration_unit,
       class_limit, fixed_time_slot, standing_window_days, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	var desc sql.NullString
	var classLimit, windowDays sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Name, &desc, &p.PriceCents, &p.DurationValue, &p.DurationUnit,
		&classLimit, &p.FixedTimeSlot, &windowDays, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		p.Description = &d
	}
	if classLimit.Valid {
		n := int(classLimit.Int64)
		p.ClassLimit = &n
	}
	if windowDays.Valid {
		n := int(windowDays.Int64)
		p.StandingWindowDays = &n
	}
	return &p, nil
}

// Create inserts a plan and populates the generated ID.
func (r *PlanRepo) Create(ctx context.Context, p *model.MembershipPlan) error {
	const q = `INSERT INTO membership_plans
	           (name, description, price_cents, duration_value, duration_unit,
	            class_limit, fixed_time_slot, standing_window_days)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var classLimit, windowDays any
	if p.ClassLimit != nil {
		classLimit = *p.ClassLimit
	}
	if p.StandingWindowDays != nil {
		windowDays = *p.StandingWindowDays
	}
	res, err := r.db.ExecContext(ctx, q,
		p.Name, nullableString(p.Description), p.PriceCents, p.DurationValue,
		p.DurationUnit, classLimit, p.FixedTimeSlot, windowDays)
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

// GetByID returns a plan or ErrPlanNotFound.
func (r *PlanRepo) GetByID(ctx context.Context, id uint64) (*model.MembershipPlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx,
		`SELECT `+planCols+` FROM membership_plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// List returns all plans ordered by name.
func (r *PlanRepo) List(ctx context.Context) ([]model.MembershipPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planCols+` FROM membership_plans ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MembershipPlan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SubscriptionRepo provides access to membership_subscriptions.
type SubscriptionRepo struct {
	db DBTX
}

// NewSubscriptionRepo returns a SubscriptionRepo bound to the given querier.
func NewSubscriptionRepo(db DBTX) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const subscriptionCols = `id, person_id, plan_id, start_at, end_at, status,
       created_by, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*model.MembershipSubscription, error) {
	var s model.MembershipSubscription
	var createdBy sql.NullInt64
	err := row.Scan(&s.ID, &s.PersonID, &s.PlanID, &s.StartAt, &s.EndAt,
		&s.Status, &createdBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		s.CreatedBy = &id
	}
	return &s, nil
}

// Create inserts a subscription and populates the generated ID.
func (r *SubscriptionRepo) Create(ctx context.Context, s *model.MembershipSubscription) error {
	const q = `INSERT INTO membership_subscriptions
	           (person_id, plan_id, start_at, end_at, status, created_by)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.PersonID, s.PlanID, s.StartAt, s.EndAt, s.Status, nullableID(s.CreatedBy))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID returns a subscription or ErrSubscriptionNotFound.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id uint64) (*model.MembershipSubscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionCols+` FROM membership_subscriptions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return s, err
}

// FindActiveForPerson returns the person's active subscription with the latest
// end date, or ErrSubscriptionNotFound when none is active.
func (r *SubscriptionRepo) FindActiveForPerson(ctx context.Context, personID uint64) (*model.MembershipSubscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM membership_subscriptions
	           WHERE person_id = ? AND status = ? ORDER BY end_at DESC LIMIT 1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, personID, model.SubscriptionActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return s, err
}

// ListByPerson returns all of a person's subscriptions, newest first.
func (r *SubscriptionRepo) ListByPerson(ctx context.Context, personID uint64) ([]model.MembershipSubscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM membership_subscriptions
	           WHERE person_id = ? ORDER BY end_at DESC`
	rows, err := r.db.QueryContext(ctx, q, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MembershipSubscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListExpiring returns active subscriptions ending within [now, cutoff],
// soonest first.  The front desk uses it to chase renewals.
func (r *SubscriptionRepo) ListExpiring(ctx context.Context, now, cutoff time.Time) ([]model.MembershipSubscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM membership_subscriptions
	           WHERE status = ? AND end_at >= ? AND end_at <= ? ORDER BY end_at`
	rows, err := r.db.QueryContext(ctx, q, model.SubscriptionActive, now, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MembershipSubscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ExpireActiveForPerson marks all of the person's active subscriptions as
// expired and returns the IDs it touched, so the caller can cancel the
// standing bookings that rode on them.
func (r *SubscriptionRepo) ExpireActiveForPerson(ctx context.Context, personID uint64) ([]uint64, error) {
	const sel = `SELECT id FROM membership_subscriptions WHERE person_id = ? AND status = ?`
	rows, err := r.db.QueryContext(ctx, sel, personID, model.SubscriptionActive)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, 1)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	const upd = `UPDATE membership_subscriptions SET status = ?, updated_at = NOW()
	             WHERE person_id = ? AND status = ?`
	if _, err := r.db.ExecContext(ctx, upd, model.SubscriptionExpired, personID, model.SubscriptionActive); err != nil {
		return nil, err
	}
	return ids, nil
}

// PaymentRepo records money received against subscriptions.
type PaymentRepo struct {
	db DBTX
}

// NewPaymentRepo returns a PaymentRepo bound to the given querier.
func NewPaymentRepo(db DBTX) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment and populates the generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments
	           (person_id, subscription_id, amount_cents, method, status, comment,
	            recorded_by, paid_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.PersonID, nullableID(p.SubscriptionID), p.AmountCents, p.Method,
		p.Status, nullableString(p.Comment), nullableID(p.RecordedBy), p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByPerson returns a person's payments in a time range, newest first.
func (r *PaymentRepo) ListByPerson(ctx context.Context, personID uint64, from, to time.Time) ([]model.Payment, error) {
	const q = `SELECT id, person_id, subscription_id, amount_cents, method, status,
	                  comment, recorded_by, paid_at, created_at
	           FROM payments
	           WHERE person_id = ? AND paid_at >= ? AND paid_at < ?
	           ORDER BY paid_at DESC`
	rows, err := r.db.QueryContext(ctx, q, personID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		var subID, recordedBy sql.NullInt64
		var comment sql.NullString
		err := rows.Scan(&p.ID, &p.PersonID, &subID, &p.AmountCents, &p.Method,
			&p.Status, &comment, &recordedBy, &p.PaidAt, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		if subID.Valid {
			id := uint64(subID.Int64)
			p.SubscriptionID = &id
		}
		if recordedBy.Valid {
			id := uint64(recordedBy.Int64)
			p.RecordedBy = &id
		}
		if comment.Valid {
			c := comment.String
			p.Comment = &c
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
