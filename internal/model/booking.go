package model

import "time"

// Standing booking statuses.
const (
	StandingActive   = "active"
	StandingPaused   = "paused"
	StandingCanceled = "canceled"
)

// StandingBooking is a recurring reservation rule: one person holds a weekly
// slot on one template (optionally a specific seat) for the validity range of
// a subscription.  The materializer expands active standing bookings into
// concrete Reservation rows against scheduled sessions.
//
// Invariants, backed by unique indexes in the schema:
//   - at most one active/paused booking per (person, template);
//   - if SeatID is set, at most one active/paused booking per (template, seat).
type StandingBooking struct {
	ID             uint64    // standing_bookings.id
	PersonID       uint64    // standing_bookings.person_id
	SubscriptionID uint64    // standing_bookings.subscription_id
	TemplateID     uint64    // standing_bookings.template_id
	SeatID         *uint64   // standing_bookings.seat_id (nullable)
	StartDate      time.Time // standing_bookings.start_date (calendar date, inclusive)
	EndDate        time.Time // standing_bookings.end_date (calendar date, inclusive)
	Status         string    // standing_bookings.status (active|paused|canceled)
	CreatedAt      time.Time // standing_bookings.created_at
}

// Exception actions.
const (
	ExceptionSkip       = "skip"
	ExceptionReschedule = "reschedule"
)

// StandingBookingException overrides a single occurrence of a standing
// booking: skip that date entirely, or reschedule it to a different session.
// At most one exception per (booking, date).
type StandingBookingException struct {
	ID                uint64    // standing_booking_exceptions.id
	StandingBookingID uint64    // standing_booking_exceptions.standing_booking_id
	SessionDate       time.Time // standing_booking_exceptions.session_date (calendar date)
	Action            string    // standing_booking_exceptions.action (skip|reschedule)
	NewSessionID      *uint64   // standing_booking_exceptions.new_session_id (set iff reschedule)
	Notes             *string   // standing_booking_exceptions.notes (nullable)
	CreatedAt         time.Time // standing_booking_exceptions.created_at
}

// Reservation statuses.
const (
	ReservationReserved   = "reserved"
	ReservationWaitlisted = "waitlisted"
	ReservationCanceled   = "canceled"
	ReservationCheckedIn  = "checked_in"
	ReservationNoShow     = "no_show"
)

// Reservation sources.
const (
	SourceManual   = "manual"
	SourceStanding = "standing"
	SourceOverride = "override"
)

// Reservation is a concrete booking of one person on one session.  Canceled
// reservations are kept for history, never deleted.  The (session, person)
// pair is unique outright; (session, seat) is unique among non-canceled rows.
type Reservation struct {
	ID             uint64     // reservations.id
	SessionID      uint64     // reservations.session_id
	PersonID       uint64     // reservations.person_id
	SeatID         *uint64    // reservations.seat_id (nullable)
	Status         string     // reservations.status
	Source         string     // reservations.source (manual|standing|override)
	IdempotencyKey *string    // reservations.idempotency_key (nullable)
	ReservedAt     time.Time  // reservations.reserved_at
	CheckinAt      *time.Time // reservations.checkin_at (nullable)
	CheckoutAt     *time.Time // reservations.checkout_at (nullable)
}
