package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/queue"
	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
	queue_publisher "github.com/avelez/gym-class-scheduler/internal/service"
)

// MembershipHandler serves enrollment, renewal and subscription browsing.
type MembershipHandler struct {
	Svc           *scheduling.Service
	Plans         *repository.PlanRepo
	Subscriptions *repository.SubscriptionRepo
	Payments      *repository.PaymentRepo
}

func NewMembershipHandler(svc *scheduling.Service, pl *repository.PlanRepo, sub *repository.SubscriptionRepo, pay *repository.PaymentRepo) *MembershipHandler {
	return &MembershipHandler{Svc: svc, Plans: pl, Subscriptions: sub, Payments: pay}
}

type renewReq struct {
	PersonID      uint64  `json:"person_id"`
	PlanID        uint64  `json:"plan_id"`
	TemplateID    *uint64 `json:"template_id"`
	SeatID        *uint64 `json:"seat_id"`
	StartAt       *string `json:"start_at"`
	AmountCents   *int64  `json:"amount_cents"`
	PaymentMethod string  `json:"payment_method"`
	Comment       *string `json:"comment"`
}

func (h *MembershipHandler) renewInput(c echo.Context, body renewReq) (scheduling.RenewInput, bool) {
	in := scheduling.RenewInput{
		PersonID:      body.PersonID,
		PlanID:        body.PlanID,
		TemplateID:    body.TemplateID,
		SeatID:        body.SeatID,
		AmountCents:   body.AmountCents,
		PaymentMethod: body.PaymentMethod,
		Comment:       body.Comment,
	}
	if uid, err := getUserID(c); err == nil {
		in.RecordedBy = &uid
	}
	if body.StartAt != nil {
		t, err := time.Parse(time.RFC3339, *body.StartAt)
		if err != nil {
			return in, false
		}
		startAt := t.UTC()
		in.StartAt = &startAt
	}
	return in, true
}

func (h *MembershipHandler) publishRenewed(c echo.Context, res *scheduling.RenewResult) {
	ev := queue.MembershipRenewedEvent{
		SubscriptionID:   res.Subscription.ID,
		PersonID:         res.Subscription.PersonID,
		PlanID:           res.Subscription.PlanID,
		StartAt:          res.Subscription.StartAt.Format(time.RFC3339),
		EndAt:            res.Subscription.EndAt.Format(time.RFC3339),
		AmountCents:      res.Payment.AmountCents,
		StandingBookings: len(res.Bookings),
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if plan, err := h.Plans.GetByID(c.Request().Context(), res.Subscription.PlanID); err == nil {
		ev.PlanName = plan.Name
	}
	if res.Stats != nil {
		ev.ReservationsMade = res.Stats.CreatedReservations
	}
	_ = queue_publisher.PublishMembershipRenewed(c.Request().Context(), ev)
}

// Enroll handles POST /v1/memberships/enroll.
func (h *MembershipHandler) Enroll(c echo.Context) error {
	var body renewReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PersonID == 0 || body.PlanID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "person_id and plan_id are required"})
	}
	in, ok := h.renewInput(c, body)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
	}
	res, err := h.Svc.EnrollWithStandingBooking(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	h.publishRenewed(c, res)
	return c.JSON(http.StatusCreated, res)
}

// Renew handles POST /v1/memberships/renew.  Template and seat default to
// the member's previous standing booking.
func (h *MembershipHandler) Renew(c echo.Context) error {
	var body renewReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PersonID == 0 || body.PlanID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "person_id and plan_id are required"})
	}
	in, ok := h.renewInput(c, body)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
	}
	res, err := h.Svc.RenewWithStandingBooking(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	h.publishRenewed(c, res)
	return c.JSON(http.StatusCreated, res)
}

// ListSubscriptions handles GET /v1/people/:id/subscriptions.
func (h *MembershipHandler) ListSubscriptions(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Subscriptions.ListByPerson(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListExpiring handles GET /v1/subscriptions/expiring with an optional days
// horizon (default 7).
func (h *MembershipHandler) ListExpiring(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
		}
		days = n
	}
	now := time.Now().UTC()
	items, err := h.Subscriptions.ListExpiring(c.Request().Context(), now, now.AddDate(0, 0, days))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "days": days})
}

// ListPayments handles GET /v1/people/:id/payments with optional from/to
// date filters (defaults to the last year).
func (h *MembershipHandler) ListPayments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	fromPtr, err := queryDate(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	toPtr, err := queryDate(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	to := now.AddDate(0, 0, 1)
	if fromPtr != nil {
		from = *fromPtr
	}
	if toPtr != nil {
		to = toPtr.AddDate(0, 0, 1)
	}
	items, err := h.Payments.ListByPerson(c.Request().Context(), id, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
