// Package queue defines message payloads exchanged over the message broker.
package queue

// StandingMaterializedEvent is published after a materialization pass turns
// standing bookings into reservations.  It carries the full tally so
// downstream consumers can log or alert without querying the primary
// database.
type StandingMaterializedEvent struct {
	Trigger             string   `json:"trigger"` // window, session, renewal
	SubscriptionID      *uint64  `json:"subscription_id,omitempty"`
	TemplateID          *uint64  `json:"template_id,omitempty"`
	SessionID           *uint64  `json:"session_id,omitempty"`
	WindowFrom          string   `json:"window_from,omitempty"`
	WindowTo            string   `json:"window_to,omitempty"`
	ProcessedBookings   int      `json:"processed_bookings"`
	CreatedReservations int      `json:"created_reservations"`
	SkippedNoCapacity   int      `json:"skipped_no_capacity"`
	SkippedSeatTaken    int      `json:"skipped_seat_taken"`
	SkippedExisting     int      `json:"skipped_existing"`
	SkippedExceptions   int      `json:"skipped_exceptions"`
	ErrorCount          int      `json:"error_count"`
	Errors              []string `json:"errors,omitempty"`
	OccurredAt          string   `json:"occurred_at"`
}

// MembershipRenewedEvent is published when a renewal or enrollment commits.
type MembershipRenewedEvent struct {
	SubscriptionID   uint64 `json:"subscription_id"`
	PersonID         uint64 `json:"person_id"`
	PlanID           uint64 `json:"plan_id"`
	PlanName         string `json:"plan_name,omitempty"`
	StartAt          string `json:"start_at"`
	EndAt            string `json:"end_at"`
	AmountCents      int64  `json:"amount_cents"`
	StandingBookings int    `json:"standing_bookings"`
	ReservationsMade int    `json:"reservations_made"`
	OccurredAt       string `json:"occurred_at"`
}
