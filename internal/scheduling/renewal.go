package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

// RenewInput drives enrollment and renewal.  On renewal, TemplateID and
// SeatID default to whatever the member's latest standing booking held, so a
// plain "renew" keeps their slot.  StartAt defaults to the current
// subscription's end (or now, whichever is later) so back-to-back renewals
// chain without a gap.
type RenewInput struct {
	PersonID      uint64
	PlanID        uint64
	TemplateID    *uint64
	SeatID        *uint64
	StartAt       *time.Time
	AmountCents   *int64
	PaymentMethod string
	Comment       *string
	RecordedBy    *uint64
}

// RenewResult is everything one renewal produced.
type RenewResult struct {
	Subscription *model.MembershipSubscription `json:"subscription"`
	Payment      *model.Payment                `json:"payment"`
	Bookings     []model.StandingBooking       `json:"standing_bookings"`
	Stats        *Stats                        `json:"materialization,omitempty"`
}

// RenewWithStandingBooking runs the whole renewal in one transaction: expire
// the person's active subscriptions and cancel their standing bookings,
// activate the new subscription, record the payment, and for fixed-time-slot
// plans re-create standing bookings across the template's time-slot group,
// pre-generate sessions and materialize reservations up to the plan's
// window.  If materialization produces nothing usable the whole renewal
// rolls back; a renewal that books no slot for a fixed-slot member is worse
// than a failed one.
func (s *Service) RenewWithStandingBooking(ctx context.Context, in RenewInput) (*RenewResult, error) {
	var out *RenewResult
	err := s.store.WithinTx(ctx, func(st Store) error {
		var err error
		out, err = s.renew(ctx, st, in)
		return err
	})
	return out, err
}

// EnrollWithStandingBooking signs up a person with no current subscription.
// Same flow as renewal, but a fixed-time-slot plan must name its template
// explicitly since there is no previous booking to carry forward.
func (s *Service) EnrollWithStandingBooking(ctx context.Context, in RenewInput) (*RenewResult, error) {
	plan, err := s.store.Plans().GetByID(ctx, in.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, invalid("membership plan %d not found", in.PlanID)
		}
		return nil, err
	}
	if plan.FixedTimeSlot && in.TemplateID == nil {
		return nil, invalid("plan %d reserves a fixed time slot; a template is required", in.PlanID)
	}
	return s.RenewWithStandingBooking(ctx, in)
}

func (s *Service) renew(ctx context.Context, st Store, in RenewInput) (*RenewResult, error) {
	plan, err := st.Plans().GetByID(ctx, in.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, invalid("membership plan %d not found", in.PlanID)
		}
		return nil, err
	}

	person, err := st.People().GetByID(ctx, in.PersonID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return nil, invalid("person %d not found", in.PersonID)
		}
		return nil, err
	}
	if !person.IsActive {
		return nil, invalid("person %d is not active", in.PersonID)
	}

	now := s.clock.Now()

	current, err := st.Subscriptions().FindActiveForPerson(ctx, in.PersonID)
	if err != nil && !errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, err
	}

	templateID := in.TemplateID
	seatID := in.SeatID
	if templateID == nil && current != nil {
		prev, err := st.Bookings().LatestBySubscription(ctx, current.ID)
		if err != nil && !errors.Is(err, repository.ErrBookingNotFound) {
			return nil, err
		}
		if prev != nil {
			tid := prev.TemplateID
			templateID = &tid
			if seatID == nil {
				seatID = prev.SeatID
			}
		}
	}
	if plan.FixedTimeSlot && templateID == nil {
		return nil, invalid("plan %d reserves a fixed time slot; a template is required", in.PlanID)
	}

	start := now
	if in.StartAt != nil {
		start = *in.StartAt
	} else if current != nil && current.EndAt.After(now) {
		start = current.EndAt.Add(time.Second)
	}

	expired, err := st.Subscriptions().ExpireActiveForPerson(ctx, in.PersonID)
	if err != nil {
		return nil, err
	}
	if _, err := st.Bookings().CancelBySubscriptions(ctx, expired); err != nil {
		return nil, err
	}

	sub := &model.MembershipSubscription{
		PersonID:  in.PersonID,
		PlanID:    plan.ID,
		StartAt:   start,
		EndAt:     subscriptionEnd(plan, start),
		Status:    model.SubscriptionActive,
		CreatedBy: in.RecordedBy,
	}
	if err := st.Subscriptions().Create(ctx, sub); err != nil {
		return nil, err
	}

	amount := plan.PriceCents
	if in.AmountCents != nil {
		amount = *in.AmountCents
	}
	method := in.PaymentMethod
	if method == "" {
		method = "cash"
	}
	payment := &model.Payment{
		PersonID:       in.PersonID,
		SubscriptionID: &sub.ID,
		AmountCents:    amount,
		Method:         method,
		Status:         "completed",
		Comment:        in.Comment,
		RecordedBy:     in.RecordedBy,
		PaidAt:         now,
	}
	if err := st.Payments().Create(ctx, payment); err != nil {
		return nil, err
	}

	out := &RenewResult{Subscription: sub, Payment: payment}
	if !plan.FixedTimeSlot || templateID == nil {
		return out, nil
	}

	bookings, stats, err := s.fixedTimeslotEffects(ctx, st, sub, plan, *templateID, seatID)
	if err != nil {
		return nil, err
	}
	out.Bookings = bookings
	out.Stats = stats

	if err := assertMaterialization(bookings, stats); err != nil {
		return nil, err
	}
	return out, nil
}

// fixedTimeslotEffects re-creates the member's weekly slots for the new
// subscription.  The chosen template's time-slot group (same class, venue,
// start time and instructor across weekdays) all get a standing booking and
// the same seat; sessions are pre-generated per template from the booking's
// first aligned date through the plan's window, then one materialization
// pass scoped to the new subscription fills in the reservations.
func (s *Service) fixedTimeslotEffects(ctx context.Context, st Store, sub *model.MembershipSubscription, plan *model.MembershipPlan, templateID uint64, seatID *uint64) ([]model.StandingBooking, *Stats, error) {
	ref, err := st.Templates().GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, nil, invalid("class template %d not found", templateID)
		}
		return nil, nil, err
	}
	if !ref.IsActive {
		return nil, nil, invalid("class template %d is not active", templateID)
	}
	if seatID != nil {
		seat, err := st.Seats().GetByID(ctx, *seatID)
		if err != nil {
			if errors.Is(err, repository.ErrSeatNotFound) {
				return nil, nil, invalid("seat %d not found", *seatID)
			}
			return nil, nil, err
		}
		if seat.VenueID != ref.VenueID {
			return nil, nil, invalid("seat %d does not belong to the template's venue", *seatID)
		}
	}

	group, err := st.Templates().ListGroup(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if len(group) == 0 {
		group = []model.ClassTemplate{*ref}
	}

	subStart := atMidnight(sub.StartAt)
	subEnd := atMidnight(sub.EndAt)
	windowEnd := standingWindowEnd(plan, subStart, subEnd)

	bookings := make([]model.StandingBooking, 0, len(group))
	for i := range group {
		t := &group[i]
		aligned := AlignToWeekday(subStart, t.Weekday)
		if aligned.After(subEnd) {
			continue
		}
		b := model.StandingBooking{
			PersonID:       sub.PersonID,
			SubscriptionID: sub.ID,
			TemplateID:     t.ID,
			SeatID:         seatID,
			StartDate:      aligned,
			EndDate:        subEnd,
			Status:         model.StandingActive,
		}
		if err := st.Bookings().Create(ctx, &b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, nil, invalid("template %d: a conflicting standing booking already exists", t.ID)
			}
			return nil, nil, err
		}
		bookings = append(bookings, b)

		if !aligned.After(windowEnd) {
			if _, err := s.generateForTemplate(ctx, st, t, aligned, windowEnd); err != nil {
				return nil, nil, err
			}
		}
	}

	stats, err := s.materializeWindow(ctx, st, WindowOptions{
		From:           subStart,
		To:             windowEnd,
		SubscriptionID: &sub.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	return bookings, stats, nil
}

// subscriptionEnd applies the plan duration to a start time and lands on
// 23:59:59 of the final day, so the last calendar day is fully covered.
func subscriptionEnd(plan *model.MembershipPlan, start time.Time) time.Time {
	var end time.Time
	switch plan.DurationUnit {
	case model.DurationDay:
		end = start.AddDate(0, 0, plan.DurationValue)
	case model.DurationWeek:
		end = start.AddDate(0, 0, plan.DurationValue*7)
	default:
		end = start.AddDate(0, plan.DurationValue, 0)
	}
	return endOfDay(end.AddDate(0, 0, -1))
}

// standingWindowEnd bounds how far ahead sessions and reservations are
// pre-generated.  The plan's StandingWindowDays wins when set; otherwise
// day and week plans cover their whole duration and month plans run to the
// subscription end.  Never past the subscription end either way.
func standingWindowEnd(plan *model.MembershipPlan, start, subEnd time.Time) time.Time {
	var end time.Time
	if plan.StandingWindowDays != nil {
		end = start.AddDate(0, 0, *plan.StandingWindowDays)
	} else {
		switch plan.DurationUnit {
		case model.DurationDay:
			end = start.AddDate(0, 0, plan.DurationValue)
		case model.DurationWeek:
			end = start.AddDate(0, 0, plan.DurationValue*7)
		default:
			end = subEnd
		}
	}
	if end.After(subEnd) {
		return subEnd
	}
	return end
}

// assertMaterialization rejects a renewal whose standing bookings produced
// no usable coverage: either no booking was created at all, or the
// materialization pass neither created reservations nor found existing
// ones.  The error carries the tally so the operator sees what happened.
func assertMaterialization(bookings []model.StandingBooking, stats *Stats) error {
	if len(bookings) == 0 {
		return invalid("renewal created no standing bookings")
	}
	if stats == nil || stats.CreatedReservations+stats.SkippedExisting == 0 {
		detail := ""
		if stats != nil {
			detail = fmt.Sprintf(" (no_capacity=%d seat_taken=%d errors=%d)",
				stats.SkippedNoCapacity, stats.SkippedSeatTaken, len(stats.Errors))
		}
		return invalid("renewal materialized no reservations%s", detail)
	}
	return nil
}
