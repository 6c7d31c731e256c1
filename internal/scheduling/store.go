package scheduling

import (
	"context"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
)

// Store is the persistence surface the scheduling core works against.  The
// MySQL implementation lives in internal/mysqlstore; tests use an in-memory
// fake.  WithinTx runs fn against a store whose writes commit or roll back
// together; a tx-bound store implements WithinTx by calling fn on itself, so
// nesting is safe.
type Store interface {
	ClassTypes() ClassTypeStore
	Templates() TemplateStore
	Sessions() SessionStore
	Seats() SeatStore
	People() PersonStore
	Plans() PlanStore
	Subscriptions() SubscriptionStore
	Payments() PaymentStore
	Bookings() BookingStore
	Exceptions() ExceptionStore
	Reservations() ReservationStore

	WithinTx(ctx context.Context, fn func(Store) error) error
}

// ClassTypeStore resolves class types for session naming.
type ClassTypeStore interface {
	GetByID(ctx context.Context, id uint64) (*model.ClassType, error)
}

// TemplateStore is the template surface the expander and renewal use.
type TemplateStore interface {
	GetByID(ctx context.Context, id uint64) (*model.ClassTemplate, error)
	ListActive(ctx context.Context) ([]model.ClassTemplate, error)
	ListGroup(ctx context.Context, ref *model.ClassTemplate) ([]model.ClassTemplate, error)
}

// SessionStore is the session surface of the core.
type SessionStore interface {
	Create(ctx context.Context, s *model.ClassSession) error
	GetByID(ctx context.Context, id uint64) (*model.ClassSession, error)
	ExistsForTemplateDate(ctx context.Context, templateID uint64, date time.Time) (bool, error)
	FindByTemplateDate(ctx context.Context, templateID uint64, date time.Time) (*model.ClassSession, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

// SeatStore resolves seats for booking validation and availability.
type SeatStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
	ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error)
}

// PersonStore resolves people for booking validation.
type PersonStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Person, error)
}

// PlanStore resolves membership plans.
type PlanStore interface {
	GetByID(ctx context.Context, id uint64) (*model.MembershipPlan, error)
}

// SubscriptionStore is the subscription surface of renewal.
type SubscriptionStore interface {
	Create(ctx context.Context, s *model.MembershipSubscription) error
	GetByID(ctx context.Context, id uint64) (*model.MembershipSubscription, error)
	FindActiveForPerson(ctx context.Context, personID uint64) (*model.MembershipSubscription, error)
	ExpireActiveForPerson(ctx context.Context, personID uint64) ([]uint64, error)
}

// PaymentStore records payments taken during renewal.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
}

// BookingStore is the standing-booking surface of the core.
type BookingStore interface {
	Create(ctx context.Context, b *model.StandingBooking) error
	GetByID(ctx context.Context, id uint64) (*model.StandingBooking, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	ListActiveIntersecting(ctx context.Context, from, to time.Time, subscriptionID, templateID *uint64) ([]model.StandingBooking, error)
	ListActiveForTemplateOn(ctx context.Context, templateID uint64, date time.Time) ([]model.StandingBooking, error)
	LatestBySubscription(ctx context.Context, subscriptionID uint64) (*model.StandingBooking, error)
	CancelBySubscriptions(ctx context.Context, subscriptionIDs []uint64) (int64, error)
	HasActiveForPersonTemplate(ctx context.Context, personID, templateID uint64) (bool, error)
	SeatHeldByOther(ctx context.Context, templateID, seatID, personID uint64) (bool, error)
}

// ExceptionStore is the per-occurrence override surface.
type ExceptionStore interface {
	Create(ctx context.Context, e *model.StandingBookingException) error
	ListForBookings(ctx context.Context, bookingIDs []uint64, from, to time.Time) ([]model.StandingBookingException, error)
}

// ReservationStore is the reservation surface of the core.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ExistsForPerson(ctx context.Context, sessionID, personID uint64) (bool, error)
	SeatTaken(ctx context.Context, sessionID, seatID uint64) (bool, error)
	CountActive(ctx context.Context, sessionID uint64) (int, error)
	TakenSeatIDs(ctx context.Context, sessionID uint64) ([]uint64, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	CheckIn(ctx context.Context, id uint64, at time.Time) error
	CheckOut(ctx context.Context, id uint64, at time.Time) error
	CancelForSession(ctx context.Context, sessionID uint64) (int64, error)
}

// Service is the scheduling core: session expansion, standing-booking
// registry, materialization and membership renewal, all expressed over a
// Store and a Clock.
type Service struct {
	store Store
	clock Clock
}

// NewService builds a Service.  A nil clock means the system clock.
func NewService(store Store, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{store: store, clock: clock}
}
