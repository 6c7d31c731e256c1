package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/config"
	"github.com/avelez/gym-class-scheduler/internal/queue"
	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
	queue_publisher "github.com/avelez/gym-class-scheduler/internal/service"
)

// StandingHandler serves the standing-booking registry and materialization
// endpoints.
type StandingHandler struct {
	Cfg      config.Config
	Svc      *scheduling.Service
	Bookings *repository.StandingBookingRepo
}

func NewStandingHandler(cfg config.Config, svc *scheduling.Service, b *repository.StandingBookingRepo) *StandingHandler {
	return &StandingHandler{Cfg: cfg, Svc: svc, Bookings: b}
}

// CreateStandingBooking handles POST /v1/standing-bookings.
func (h *StandingHandler) CreateStandingBooking(c echo.Context) error {
	var body struct {
		PersonID       uint64  `json:"person_id"`
		SubscriptionID uint64  `json:"subscription_id"`
		TemplateID     uint64  `json:"template_id"`
		SeatID         *uint64 `json:"seat_id"`
		StartDate      *string `json:"start_date"`
		EndDate        *string `json:"end_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PersonID == 0 || body.SubscriptionID == 0 || body.TemplateID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "person_id, subscription_id and template_id are required"})
	}
	in := scheduling.CreateStandingBookingInput{
		PersonID:       body.PersonID,
		SubscriptionID: body.SubscriptionID,
		TemplateID:     body.TemplateID,
		SeatID:         body.SeatID,
	}
	if body.StartDate != nil {
		t, err := time.Parse("2006-01-02", *body.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
		}
		in.StartDate = &t
	}
	if body.EndDate != nil {
		t, err := time.Parse("2006-01-02", *body.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
		}
		in.EndDate = &t
	}
	b, err := h.Svc.CreateStandingBooking(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// UpdateStandingBookingStatus handles PATCH /v1/standing-bookings/:id/status.
func (h *StandingHandler) UpdateStandingBookingStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Svc.UpdateStandingBookingStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CreateException handles POST /v1/standing-bookings/:id/exceptions.
func (h *StandingHandler) CreateException(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		SessionDate  string  `json:"session_date"`
		Action       string  `json:"action"`
		NewSessionID *uint64 `json:"new_session_id"`
		Notes        *string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, err := time.Parse("2006-01-02", body.SessionDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_date must be YYYY-MM-DD"})
	}
	e, err := h.Svc.CreateException(c.Request().Context(), scheduling.CreateExceptionInput{
		StandingBookingID: id,
		SessionDate:       date,
		Action:            body.Action,
		NewSessionID:      body.NewSessionID,
		Notes:             body.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

type materializeReq struct {
	From              string  `json:"from"`
	To                *string `json:"to"`
	Days              *int    `json:"days"`
	SubscriptionID    *uint64 `json:"subscription_id"`
	TemplateID        *uint64 `json:"template_id"`
	StandingBookingID *uint64 `json:"standing_booking_id"`
}

// windowFromReq builds the materialization window.  From defaults to today,
// To to From plus the configured horizon.
func (h *StandingHandler) windowFromReq(body materializeReq) (scheduling.WindowOptions, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if body.From != "" {
		var err error
		from, err = time.Parse("2006-01-02", body.From)
		if err != nil {
			return scheduling.WindowOptions{}, err
		}
	}
	days := h.Cfg.MaterializeWindowDays
	if body.Days != nil && *body.Days > 0 {
		days = *body.Days
	}
	to := from.AddDate(0, 0, days-1)
	if body.To != nil {
		var err error
		to, err = time.Parse("2006-01-02", *body.To)
		if err != nil {
			return scheduling.WindowOptions{}, err
		}
	}
	return scheduling.WindowOptions{
		From:              from,
		To:                to,
		SubscriptionID:    body.SubscriptionID,
		TemplateID:        body.TemplateID,
		StandingBookingID: body.StandingBookingID,
	}, nil
}

// Materialize handles POST /v1/standing-bookings/materialize and publishes
// the tally; a broker failure never fails the request.
func (h *StandingHandler) Materialize(c echo.Context) error {
	var body materializeReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	opts, err := h.windowFromReq(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}
	stats, err := h.Svc.MaterializeWindow(c.Request().Context(), opts)
	if err != nil {
		return fail(c, err)
	}
	_ = queue_publisher.PublishStandingMaterialized(c.Request().Context(), queue.StandingMaterializedEvent{
		Trigger:             "window",
		SubscriptionID:      opts.SubscriptionID,
		TemplateID:          opts.TemplateID,
		WindowFrom:          opts.From.Format("2006-01-02"),
		WindowTo:            opts.To.Format("2006-01-02"),
		ProcessedBookings:   stats.ProcessedBookings,
		CreatedReservations: stats.CreatedReservations,
		SkippedNoCapacity:   stats.SkippedNoCapacity,
		SkippedSeatTaken:    stats.SkippedSeatTaken,
		SkippedExisting:     stats.SkippedExisting,
		SkippedExceptions:   stats.SkippedExceptions,
		ErrorCount:          len(stats.Errors),
		Errors:              stats.Errors,
		OccurredAt:          time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, stats)
}

// Preview handles POST /v1/standing-bookings/preview: the dry run of
// Materialize.
func (h *StandingHandler) Preview(c echo.Context) error {
	var body materializeReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	opts, err := h.windowFromReq(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}
	entries, err := h.Svc.PreviewWindow(c.Request().Context(), opts)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

// MaterializeSession handles POST /v1/sessions/:id/materialize.
func (h *StandingHandler) MaterializeSession(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	stats, err := h.Svc.MaterializeForSession(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	_ = queue_publisher.PublishStandingMaterialized(c.Request().Context(), queue.StandingMaterializedEvent{
		Trigger:             "session",
		SessionID:           &id,
		ProcessedBookings:   stats.ProcessedBookings,
		CreatedReservations: stats.CreatedReservations,
		SkippedNoCapacity:   stats.SkippedNoCapacity,
		SkippedSeatTaken:    stats.SkippedSeatTaken,
		SkippedExisting:     stats.SkippedExisting,
		SkippedExceptions:   stats.SkippedExceptions,
		ErrorCount:          len(stats.Errors),
		Errors:              stats.Errors,
		OccurredAt:          time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, stats)
}

// ListBySubscription handles GET /v1/subscriptions/:id/standing-bookings.
func (h *StandingHandler) ListBySubscription(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Bookings.ListBySubscription(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
