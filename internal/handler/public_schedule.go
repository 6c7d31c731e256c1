package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
)

// PublicHandler serves the unauthenticated schedule surface; these endpoints
// sit behind the Redis response cache.
type PublicHandler struct {
	Svc          *scheduling.Service
	Sessions     *repository.SessionRepo
	Reservations *repository.ReservationRepo
}

func NewPublicHandler(svc *scheduling.Service, s *repository.SessionRepo, r *repository.ReservationRepo) *PublicHandler {
	return &PublicHandler{Svc: svc, Sessions: s, Reservations: r}
}

// ListSessions handles GET /v1/schedule with optional from/to dates (default
// the next 7 days) and venue_id/class_type_id filters.
func (h *PublicHandler) ListSessions(c echo.Context) error {
	fromPtr, err := queryDate(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	toPtr, err := queryDate(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	venueID, err := queryID(c, "venue_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue_id"})
	}
	classTypeID, err := queryID(c, "class_type_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class_type_id"})
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	if fromPtr != nil {
		from = *fromPtr
	}
	if toPtr != nil {
		to = toPtr.AddDate(0, 0, 1) // inclusive end date
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to is before from"})
	}

	items, err := h.Sessions.ListByRange(c.Request().Context(), from, to, venueID, classTypeID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Capacity handles GET /v1/sessions/:id/capacity: how full a session is,
// broken down by reservation status.
func (h *PublicHandler) Capacity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	sess, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	counts, err := h.Reservations.StatusCounts(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	reserved := counts[model.ReservationReserved]
	checkedIn := counts[model.ReservationCheckedIn]
	available := sess.Capacity - reserved - checkedIn
	if available < 0 {
		available = 0
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id": sess.ID,
		"status":     sess.Status,
		"capacity":   sess.Capacity,
		"reserved":   reserved,
		"checked_in": checkedIn,
		"waitlisted": counts[model.ReservationWaitlisted],
		"available":  available,
	})
}

// AvailableSeats handles GET /v1/sessions/:id/available-seats.
func (h *PublicHandler) AvailableSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	seats, err := h.Svc.AvailableSeats(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}
