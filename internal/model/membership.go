package model

import "time"

// Plan duration units.
const (
	DurationDay   = "day"
	DurationWeek  = "week"
	DurationMonth = "month"
)

// MembershipPlan is a purchasable membership product.  FixedTimeSlot marks
// plans that come with a reserved weekly slot (and therefore standing
// bookings); StandingWindowDays optionally clamps how far ahead sessions and
// reservations are pre-generated for such plans, overriding the
// duration-derived window.
type MembershipPlan struct {
	ID                 uint64    // membership_plans.id
	Name               string    // membership_plans.name
	Description        *string   // membership_plans.description (nullable)
	PriceCents         int64     // membership_plans.price_cents
	DurationValue      int       // membership_plans.duration_value
	DurationUnit       string    // membership_plans.duration_unit (day|week|month)
	ClassLimit         *int      // membership_plans.class_limit (nullable)
	FixedTimeSlot      bool      // membership_plans.fixed_time_slot
	StandingWindowDays *int      // membership_plans.standing_window_days (nullable)
	CreatedAt          time.Time // membership_plans.created_at
	UpdatedAt          time.Time // membership_plans.updated_at
}

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
	SubscriptionPending  = "pending"
)

// MembershipSubscription is a person's paid validity window for a plan.  At
// most one subscription per person may be active at a time; renewal expires
// the previous active one before activating the next.
type MembershipSubscription struct {
	ID        uint64    // membership_subscriptions.id
	PersonID  uint64    // membership_subscriptions.person_id
	PlanID    uint64    // membership_subscriptions.plan_id
	StartAt   time.Time // membership_subscriptions.start_at (UTC)
	EndAt     time.Time // membership_subscriptions.end_at (UTC, end of day)
	Status    string    // membership_subscriptions.status
	CreatedBy *uint64   // membership_subscriptions.created_by (nullable, users.id)
	CreatedAt time.Time // membership_subscriptions.created_at
	UpdatedAt time.Time // membership_subscriptions.updated_at
}

// Payment records money received for a subscription.  Only consumed as an
// input by the scheduling core ("a paid subscription exists"); recording
// mechanics beyond the row itself live elsewhere.
type Payment struct {
	ID             uint64    // payments.id
	PersonID       uint64    // payments.person_id
	SubscriptionID *uint64   // payments.subscription_id (nullable)
	AmountCents    int64     // payments.amount_cents
	Method         string    // payments.method (cash, card, transfer, ...)
	Status         string    // payments.status
	Comment        *string   // payments.comment (nullable)
	RecordedBy     *uint64   // payments.recorded_by (nullable, users.id)
	PaidAt         time.Time // payments.paid_at
	CreatedAt      time.Time // payments.created_at
}
