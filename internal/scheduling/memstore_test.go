package scheduling

// In-memory Store used by the service tests.  It enforces the same unique
// indexes the MySQL schema carries, returning repository.ErrDuplicate, so the
// duplicate-as-skip paths behave like production.  WithinTx snapshots the
// whole store and restores it when fn fails, giving real rollback semantics.

import (
	"context"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

type memStore struct {
	nextID uint64

	classTypes    []model.ClassType
	templates     []model.ClassTemplate
	sessions      []model.ClassSession
	seats         []model.Seat
	people        []model.Person
	plans         []model.MembershipPlan
	subscriptions []model.MembershipSubscription
	payments      []model.Payment
	bookings      []model.StandingBooking
	exceptions    []model.StandingBookingException
	reservations  []model.Reservation
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) ClassTypes() ClassTypeStore       { return memClassTypes{m} }
func (m *memStore) Templates() TemplateStore         { return memTemplates{m} }
func (m *memStore) Sessions() SessionStore           { return memSessions{m} }
func (m *memStore) Seats() SeatStore                 { return memSeats{m} }
func (m *memStore) People() PersonStore              { return memPeople{m} }
func (m *memStore) Plans() PlanStore                 { return memPlans{m} }
func (m *memStore) Subscriptions() SubscriptionStore { return memSubscriptions{m} }
func (m *memStore) Payments() PaymentStore           { return memPayments{m} }
func (m *memStore) Bookings() BookingStore           { return memBookings{m} }
func (m *memStore) Exceptions() ExceptionStore       { return memExceptions{m} }
func (m *memStore) Reservations() ReservationStore   { return memReservations{m} }

func (m *memStore) WithinTx(_ context.Context, fn func(Store) error) error {
	snap := *m
	snap.classTypes = append([]model.ClassType(nil), m.classTypes...)
	snap.templates = append([]model.ClassTemplate(nil), m.templates...)
	snap.sessions = append([]model.ClassSession(nil), m.sessions...)
	snap.seats = append([]model.Seat(nil), m.seats...)
	snap.people = append([]model.Person(nil), m.people...)
	snap.plans = append([]model.MembershipPlan(nil), m.plans...)
	snap.subscriptions = append([]model.MembershipSubscription(nil), m.subscriptions...)
	snap.payments = append([]model.Payment(nil), m.payments...)
	snap.bookings = append([]model.StandingBooking(nil), m.bookings...)
	snap.exceptions = append([]model.StandingBookingException(nil), m.exceptions...)
	snap.reservations = append([]model.Reservation(nil), m.reservations...)
	if err := fn(m); err != nil {
		*m = snap
		return err
	}
	return nil
}

// ----- seed helpers -----

func (m *memStore) addClassType(code, name string) *model.ClassType {
	m.classTypes = append(m.classTypes, model.ClassType{ID: m.id(), Code: code, Name: name})
	return &m.classTypes[len(m.classTypes)-1]
}

func (m *memStore) addVenueSeat(venueID uint64, label string) *model.Seat {
	m.seats = append(m.seats, model.Seat{ID: m.id(), VenueID: venueID, Label: label, IsActive: true})
	return &m.seats[len(m.seats)-1]
}

func (m *memStore) addPerson(name string, active bool) *model.Person {
	m.people = append(m.people, model.Person{ID: m.id(), FullName: name, IsActive: active})
	return &m.people[len(m.people)-1]
}

func (m *memStore) addTemplate(t model.ClassTemplate) *model.ClassTemplate {
	t.ID = m.id()
	m.templates = append(m.templates, t)
	return &m.templates[len(m.templates)-1]
}

func (m *memStore) addSession(s model.ClassSession) *model.ClassSession {
	s.ID = m.id()
	m.sessions = append(m.sessions, s)
	return &m.sessions[len(m.sessions)-1]
}

func (m *memStore) addPlan(p model.MembershipPlan) *model.MembershipPlan {
	p.ID = m.id()
	m.plans = append(m.plans, p)
	return &m.plans[len(m.plans)-1]
}

func (m *memStore) addSubscription(s model.MembershipSubscription) *model.MembershipSubscription {
	s.ID = m.id()
	m.subscriptions = append(m.subscriptions, s)
	return &m.subscriptions[len(m.subscriptions)-1]
}

func (m *memStore) addBooking(b model.StandingBooking) *model.StandingBooking {
	b.ID = m.id()
	m.bookings = append(m.bookings, b)
	return &m.bookings[len(m.bookings)-1]
}

// ----- class types -----

type memClassTypes struct{ m *memStore }

func (s memClassTypes) GetByID(_ context.Context, id uint64) (*model.ClassType, error) {
	for i := range s.m.classTypes {
		if s.m.classTypes[i].ID == id {
			ct := s.m.classTypes[i]
			return &ct, nil
		}
	}
	return nil, repository.ErrTemplateNotFound
}

// ----- templates -----

type memTemplates struct{ m *memStore }

func (s memTemplates) GetByID(_ context.Context, id uint64) (*model.ClassTemplate, error) {
	for i := range s.m.templates {
		if s.m.templates[i].ID == id {
			t := s.m.templates[i]
			return &t, nil
		}
	}
	return nil, repository.ErrTemplateNotFound
}

func (s memTemplates) ListActive(_ context.Context) ([]model.ClassTemplate, error) {
	out := make([]model.ClassTemplate, 0)
	for _, t := range s.m.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s memTemplates) ListGroup(_ context.Context, ref *model.ClassTemplate) ([]model.ClassTemplate, error) {
	out := make([]model.ClassTemplate, 0)
	for _, t := range s.m.templates {
		if !t.IsActive || t.ClassTypeID != ref.ClassTypeID || t.VenueID != ref.VenueID ||
			t.StartTimeLocal != ref.StartTimeLocal {
			continue
		}
		switch {
		case t.InstructorID == nil && ref.InstructorID == nil:
		case t.InstructorID != nil && ref.InstructorID != nil && *t.InstructorID == *ref.InstructorID:
		default:
			continue
		}
		out = append(out, t)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Weekday < out[j-1].Weekday; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// ----- sessions -----

type memSessions struct{ m *memStore }

func (s memSessions) Create(_ context.Context, sess *model.ClassSession) error {
	if sess.TemplateID != nil {
		for _, e := range s.m.sessions {
			if e.TemplateID != nil && *e.TemplateID == *sess.TemplateID && sameDate(e.StartAt, sess.StartAt) {
				return repository.ErrDuplicate
			}
		}
	}
	sess.ID = s.m.id()
	s.m.sessions = append(s.m.sessions, *sess)
	return nil
}

func (s memSessions) GetByID(_ context.Context, id uint64) (*model.ClassSession, error) {
	for i := range s.m.sessions {
		if s.m.sessions[i].ID == id {
			sess := s.m.sessions[i]
			return &sess, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (s memSessions) ExistsForTemplateDate(_ context.Context, templateID uint64, date time.Time) (bool, error) {
	for _, e := range s.m.sessions {
		if e.TemplateID != nil && *e.TemplateID == templateID && sameDate(e.StartAt, date) {
			return true, nil
		}
	}
	return false, nil
}

func (s memSessions) FindByTemplateDate(_ context.Context, templateID uint64, date time.Time) (*model.ClassSession, error) {
	for i := range s.m.sessions {
		e := s.m.sessions[i]
		if e.TemplateID != nil && *e.TemplateID == templateID && sameDate(e.StartAt, date) &&
			e.Status == model.SessionScheduled {
			return &e, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (s memSessions) UpdateStatus(_ context.Context, id uint64, status string) error {
	for i := range s.m.sessions {
		if s.m.sessions[i].ID == id {
			s.m.sessions[i].Status = status
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

// ----- seats -----

type memSeats struct{ m *memStore }

func (s memSeats) GetByID(_ context.Context, id uint64) (*model.Seat, error) {
	for i := range s.m.seats {
		if s.m.seats[i].ID == id {
			seat := s.m.seats[i]
			return &seat, nil
		}
	}
	return nil, repository.ErrSeatNotFound
}

func (s memSeats) ListByVenue(_ context.Context, venueID uint64) ([]model.Seat, error) {
	out := make([]model.Seat, 0)
	for _, seat := range s.m.seats {
		if seat.VenueID == venueID && seat.IsActive {
			out = append(out, seat)
		}
	}
	return out, nil
}

// ----- people / plans -----

type memPeople struct{ m *memStore }

func (s memPeople) GetByID(_ context.Context, id uint64) (*model.Person, error) {
	for i := range s.m.people {
		if s.m.people[i].ID == id {
			p := s.m.people[i]
			return &p, nil
		}
	}
	return nil, repository.ErrPersonNotFound
}

type memPlans struct{ m *memStore }

func (s memPlans) GetByID(_ context.Context, id uint64) (*model.MembershipPlan, error) {
	for i := range s.m.plans {
		if s.m.plans[i].ID == id {
			p := s.m.plans[i]
			return &p, nil
		}
	}
	return nil, repository.ErrPlanNotFound
}

// ----- subscriptions / payments -----

type memSubscriptions struct{ m *memStore }

func (s memSubscriptions) Create(_ context.Context, sub *model.MembershipSubscription) error {
	sub.ID = s.m.id()
	s.m.subscriptions = append(s.m.subscriptions, *sub)
	return nil
}

func (s memSubscriptions) GetByID(_ context.Context, id uint64) (*model.MembershipSubscription, error) {
	for i := range s.m.subscriptions {
		if s.m.subscriptions[i].ID == id {
			sub := s.m.subscriptions[i]
			return &sub, nil
		}
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (s memSubscriptions) FindActiveForPerson(_ context.Context, personID uint64) (*model.MembershipSubscription, error) {
	var best *model.MembershipSubscription
	for i := range s.m.subscriptions {
		sub := s.m.subscriptions[i]
		if sub.PersonID != personID || sub.Status != model.SubscriptionActive {
			continue
		}
		if best == nil || sub.EndAt.After(best.EndAt) {
			cp := sub
			best = &cp
		}
	}
	if best == nil {
		return nil, repository.ErrSubscriptionNotFound
	}
	return best, nil
}

func (s memSubscriptions) ExpireActiveForPerson(_ context.Context, personID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	for i := range s.m.subscriptions {
		if s.m.subscriptions[i].PersonID == personID && s.m.subscriptions[i].Status == model.SubscriptionActive {
			s.m.subscriptions[i].Status = model.SubscriptionExpired
			ids = append(ids, s.m.subscriptions[i].ID)
		}
	}
	return ids, nil
}

type memPayments struct{ m *memStore }

func (s memPayments) Create(_ context.Context, p *model.Payment) error {
	p.ID = s.m.id()
	s.m.payments = append(s.m.payments, *p)
	return nil
}

// ----- standing bookings -----

type memBookings struct{ m *memStore }

func live(status string) bool {
	return status == model.StandingActive || status == model.StandingPaused
}

func (s memBookings) checkUnique(b *model.StandingBooking) error {
	if !live(b.Status) {
		return nil
	}
	for _, e := range s.m.bookings {
		if e.ID == b.ID || !live(e.Status) || e.TemplateID != b.TemplateID {
			continue
		}
		if e.PersonID == b.PersonID {
			return repository.ErrDuplicate
		}
		if e.SeatID != nil && b.SeatID != nil && *e.SeatID == *b.SeatID {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (s memBookings) Create(_ context.Context, b *model.StandingBooking) error {
	if err := s.checkUnique(b); err != nil {
		return err
	}
	b.ID = s.m.id()
	s.m.bookings = append(s.m.bookings, *b)
	return nil
}

func (s memBookings) GetByID(_ context.Context, id uint64) (*model.StandingBooking, error) {
	for i := range s.m.bookings {
		if s.m.bookings[i].ID == id {
			b := s.m.bookings[i]
			return &b, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (s memBookings) UpdateStatus(_ context.Context, id uint64, status string) error {
	for i := range s.m.bookings {
		if s.m.bookings[i].ID == id {
			updated := s.m.bookings[i]
			updated.Status = status
			if err := s.checkUnique(&updated); err != nil {
				return err
			}
			s.m.bookings[i].Status = status
			return nil
		}
	}
	return repository.ErrBookingNotFound
}

func (s memBookings) ListActiveIntersecting(_ context.Context, from, to time.Time, subscriptionID, templateID *uint64) ([]model.StandingBooking, error) {
	out := make([]model.StandingBooking, 0)
	for _, b := range s.m.bookings {
		if b.Status != model.StandingActive {
			continue
		}
		if b.StartDate.After(to) || b.EndDate.Before(from) {
			continue
		}
		if subscriptionID != nil && b.SubscriptionID != *subscriptionID {
			continue
		}
		if templateID != nil && b.TemplateID != *templateID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s memBookings) ListActiveForTemplateOn(_ context.Context, templateID uint64, date time.Time) ([]model.StandingBooking, error) {
	d := atMidnight(date)
	out := make([]model.StandingBooking, 0)
	for _, b := range s.m.bookings {
		if b.Status == model.StandingActive && b.TemplateID == templateID &&
			!b.StartDate.After(d) && !b.EndDate.Before(d) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s memBookings) LatestBySubscription(_ context.Context, subscriptionID uint64) (*model.StandingBooking, error) {
	var best *model.StandingBooking
	for i := range s.m.bookings {
		b := s.m.bookings[i]
		if b.SubscriptionID != subscriptionID {
			continue
		}
		if best == nil || b.ID > best.ID {
			cp := b
			best = &cp
		}
	}
	if best == nil {
		return nil, repository.ErrBookingNotFound
	}
	return best, nil
}

func (s memBookings) CancelBySubscriptions(_ context.Context, subscriptionIDs []uint64) (int64, error) {
	var n int64
	for i := range s.m.bookings {
		for _, id := range subscriptionIDs {
			if s.m.bookings[i].SubscriptionID == id && s.m.bookings[i].Status != model.StandingCanceled {
				s.m.bookings[i].Status = model.StandingCanceled
				n++
			}
		}
	}
	return n, nil
}

func (s memBookings) HasActiveForPersonTemplate(_ context.Context, personID, templateID uint64) (bool, error) {
	for _, b := range s.m.bookings {
		if b.PersonID == personID && b.TemplateID == templateID && live(b.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (s memBookings) SeatHeldByOther(_ context.Context, templateID, seatID, personID uint64) (bool, error) {
	for _, b := range s.m.bookings {
		if b.TemplateID == templateID && b.SeatID != nil && *b.SeatID == seatID &&
			b.PersonID != personID && live(b.Status) {
			return true, nil
		}
	}
	return false, nil
}

// ----- exceptions -----

type memExceptions struct{ m *memStore }

func (s memExceptions) Create(_ context.Context, e *model.StandingBookingException) error {
	for _, x := range s.m.exceptions {
		if x.StandingBookingID == e.StandingBookingID && sameDate(x.SessionDate, e.SessionDate) {
			return repository.ErrDuplicate
		}
	}
	e.ID = s.m.id()
	s.m.exceptions = append(s.m.exceptions, *e)
	return nil
}

func (s memExceptions) ListForBookings(_ context.Context, bookingIDs []uint64, from, to time.Time) ([]model.StandingBookingException, error) {
	members := make(map[uint64]bool, len(bookingIDs))
	for _, id := range bookingIDs {
		members[id] = true
	}
	out := make([]model.StandingBookingException, 0)
	for _, e := range s.m.exceptions {
		if members[e.StandingBookingID] && !e.SessionDate.Before(atMidnight(from)) && !e.SessionDate.After(atMidnight(to)) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ----- reservations -----

type memReservations struct{ m *memStore }

func occupied(status string) bool {
	return status == model.ReservationReserved || status == model.ReservationCheckedIn
}

func (s memReservations) Create(_ context.Context, r *model.Reservation) error {
	for _, e := range s.m.reservations {
		if e.SessionID != r.SessionID {
			continue
		}
		if e.PersonID == r.PersonID {
			return repository.ErrDuplicate
		}
		if r.SeatID != nil && e.SeatID != nil && *e.SeatID == *r.SeatID && occupied(e.Status) {
			return repository.ErrDuplicate
		}
	}
	r.ID = s.m.id()
	s.m.reservations = append(s.m.reservations, *r)
	return nil
}

func (s memReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	for i := range s.m.reservations {
		if s.m.reservations[i].ID == id {
			r := s.m.reservations[i]
			return &r, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (s memReservations) ExistsForPerson(_ context.Context, sessionID, personID uint64) (bool, error) {
	for _, r := range s.m.reservations {
		if r.SessionID == sessionID && r.PersonID == personID {
			return true, nil
		}
	}
	return false, nil
}

func (s memReservations) SeatTaken(_ context.Context, sessionID, seatID uint64) (bool, error) {
	for _, r := range s.m.reservations {
		if r.SessionID == sessionID && r.SeatID != nil && *r.SeatID == seatID && occupied(r.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (s memReservations) CountActive(_ context.Context, sessionID uint64) (int, error) {
	n := 0
	for _, r := range s.m.reservations {
		if r.SessionID == sessionID && occupied(r.Status) {
			n++
		}
	}
	return n, nil
}

func (s memReservations) TakenSeatIDs(_ context.Context, sessionID uint64) ([]uint64, error) {
	out := make([]uint64, 0)
	for _, r := range s.m.reservations {
		if r.SessionID == sessionID && r.SeatID != nil && occupied(r.Status) {
			out = append(out, *r.SeatID)
		}
	}
	return out, nil
}

func (s memReservations) UpdateStatus(_ context.Context, id uint64, status string) error {
	for i := range s.m.reservations {
		if s.m.reservations[i].ID == id {
			s.m.reservations[i].Status = status
			return nil
		}
	}
	return repository.ErrReservationNotFound
}

func (s memReservations) CheckIn(_ context.Context, id uint64, at time.Time) error {
	for i := range s.m.reservations {
		if s.m.reservations[i].ID == id {
			if s.m.reservations[i].Status != model.ReservationReserved {
				return repository.ErrConflict
			}
			s.m.reservations[i].Status = model.ReservationCheckedIn
			s.m.reservations[i].CheckinAt = &at
			return nil
		}
	}
	return repository.ErrReservationNotFound
}

func (s memReservations) CheckOut(_ context.Context, id uint64, at time.Time) error {
	for i := range s.m.reservations {
		if s.m.reservations[i].ID == id {
			if s.m.reservations[i].Status != model.ReservationCheckedIn {
				return repository.ErrConflict
			}
			s.m.reservations[i].CheckoutAt = &at
			return nil
		}
	}
	return repository.ErrReservationNotFound
}

func (s memReservations) CancelForSession(_ context.Context, sessionID uint64) (int64, error) {
	var n int64
	for i := range s.m.reservations {
		r := &s.m.reservations[i]
		if r.SessionID == sessionID &&
			(r.Status == model.ReservationReserved || r.Status == model.ReservationWaitlisted) {
			r.Status = model.ReservationCanceled
			n++
		}
	}
	return n, nil
}

// fixedClock pins the calendar for deterministic windows.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
