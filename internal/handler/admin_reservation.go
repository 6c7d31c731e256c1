package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
)

// ReservationHandler serves front-desk reservation operations.
type ReservationHandler struct {
	Svc          *scheduling.Service
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(svc *scheduling.Service, r *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Reservations: r}
}

// Create handles POST /v1/reservations for one-off bookings.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body struct {
		SessionID uint64  `json:"session_id"`
		PersonID  uint64  `json:"person_id"`
		SeatID    *uint64 `json:"seat_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SessionID == 0 || body.PersonID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id and person_id are required"})
	}
	r, err := h.Svc.Reserve(c.Request().Context(), scheduling.ReserveInput{
		SessionID: body.SessionID,
		PersonID:  body.PersonID,
		SeatID:    body.SeatID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Cancel handles POST /v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.CancelReservation(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckIn handles POST /v1/reservations/:id/checkin.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.CheckIn(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckOut handles POST /v1/reservations/:id/checkout.
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.CheckOut(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBySession handles GET /v1/sessions/:id/reservations.
func (h *ReservationHandler) ListBySession(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Reservations.ListBySession(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
