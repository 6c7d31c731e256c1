// Package repository contains the raw-SQL data access layer.  This file
// defines sentinel errors shared across repositories so that higher layers
// can distinguish failure scenarios: ErrForbidden maps to HTTP 403,
// ErrConflict to 409, and ErrDuplicate marks a unique-index violation.
// ErrDuplicate is load-bearing for the materializer: under concurrent runs
// the unique indexes on reservations and standing bookings are the real
// correctness mechanism, and a 1062 on insert is a normal "already taken"
// outcome, not a fatal error.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update or delete cannot proceed because of
// conflicting state, such as canceling a session that already completed.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert hits a unique index.  Callers that
// implement check-then-insert flows must treat it as "row already exists".
var ErrDuplicate = errors.New("duplicate row")

// Per-entity not-found sentinels.  Repositories return these instead of
// sql.ErrNoRows so handlers do not need to know which query missed.
var (
	ErrTemplateNotFound     = errors.New("class template not found")
	ErrSessionNotFound      = errors.New("class session not found")
	ErrVenueNotFound        = errors.New("venue not found")
	ErrSeatNotFound         = errors.New("seat not found")
	ErrPersonNotFound       = errors.New("person not found")
	ErrPlanNotFound         = errors.New("membership plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrBookingNotFound      = errors.New("standing booking not found")
	ErrReservationNotFound  = errors.New("reservation not found")
)

// asDuplicate converts a MySQL duplicate-entry error (1062) into
// ErrDuplicate and passes every other error through unchanged.
func asDuplicate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicate
	}
	return err
}
