// Package mysqlstore binds the raw-SQL repositories into the scheduling
// core's Store interface.  A Store over *sql.DB hands out repositories that
// query directly; WithinTx opens a transaction and hands fn a Store whose
// repositories all run on that transaction.
package mysqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
)

// Store implements scheduling.Store over MySQL.
type Store struct {
	db *sql.DB // nil when tx-bound
	q  repository.DBTX

	classTypes    *repository.ClassTypeRepo
	templates     *repository.TemplateRepo
	sessions      *repository.SessionRepo
	seats         *repository.SeatRepo
	people        *repository.PersonRepo
	plans         *repository.PlanRepo
	subscriptions *repository.SubscriptionRepo
	payments      *repository.PaymentRepo
	bookings      *repository.StandingBookingRepo
	exceptions    *repository.ExceptionRepo
	reservations  *repository.ReservationRepo
}

// New builds a Store over a live database handle.
func New(db *sql.DB) *Store {
	s := bind(db)
	s.db = db
	return s
}

func bind(q repository.DBTX) *Store {
	return &Store{
		q:             q,
		classTypes:    repository.NewClassTypeRepo(q),
		templates:     repository.NewTemplateRepo(q),
		sessions:      repository.NewSessionRepo(q),
		seats:         repository.NewSeatRepo(q),
		people:        repository.NewPersonRepo(q),
		plans:         repository.NewPlanRepo(q),
		subscriptions: repository.NewSubscriptionRepo(q),
		payments:      repository.NewPaymentRepo(q),
		bookings:      repository.NewStandingBookingRepo(q),
		exceptions:    repository.NewExceptionRepo(q),
		reservations:  repository.NewReservationRepo(q),
	}
}

func (s *Store) ClassTypes() scheduling.ClassTypeStore       { return s.classTypes }
func (s *Store) Templates() scheduling.TemplateStore         { return s.templates }
func (s *Store) Sessions() scheduling.SessionStore           { return s.sessions }
func (s *Store) Seats() scheduling.SeatStore                 { return s.seats }
func (s *Store) People() scheduling.PersonStore              { return s.people }
func (s *Store) Plans() scheduling.PlanStore                 { return s.plans }
func (s *Store) Subscriptions() scheduling.SubscriptionStore { return s.subscriptions }
func (s *Store) Payments() scheduling.PaymentStore           { return s.payments }
func (s *Store) Bookings() scheduling.BookingStore           { return s.bookings }
func (s *Store) Exceptions() scheduling.ExceptionStore       { return s.exceptions }
func (s *Store) Reservations() scheduling.ReservationStore   { return s.reservations }

// WithinTx runs fn against a transaction-bound Store.  A Store that is
// already tx-bound just calls fn on itself, so nested units of work share
// the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(scheduling.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
