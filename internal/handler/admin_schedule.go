package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/config"
	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
)

// ScheduleHandler serves template management and session generation.
type ScheduleHandler struct {
	Cfg       config.Config
	Svc       *scheduling.Service
	Templates *repository.TemplateRepo
	Sessions  *repository.SessionRepo
}

func NewScheduleHandler(cfg config.Config, svc *scheduling.Service, t *repository.TemplateRepo, s *repository.SessionRepo) *ScheduleHandler {
	return &ScheduleHandler{Cfg: cfg, Svc: svc, Templates: t, Sessions: s}
}

// CreateTemplate handles POST /v1/templates.
func (h *ScheduleHandler) CreateTemplate(c echo.Context) error {
	var body struct {
		ClassTypeID     uint64  `json:"class_type_id"`
		VenueID         uint64  `json:"venue_id"`
		InstructorID    *uint64 `json:"instructor_id"`
		Name            *string `json:"name"`
		Weekday         *int    `json:"weekday"`
		StartTimeLocal  string  `json:"start_time_local"`
		DurationMin     int     `json:"duration_min"`
		DefaultCapacity *int    `json:"default_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ClassTypeID == 0 || body.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_type_id and venue_id are required"})
	}
	if body.Weekday == nil || *body.Weekday < 0 || *body.Weekday > 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekday must be 0 (Sunday) through 6 (Saturday)"})
	}
	if _, err := time.Parse("15:04:05", body.StartTimeLocal); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time_local must be HH:MM:SS"})
	}
	if body.DurationMin <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_min must be positive"})
	}
	if body.DefaultCapacity != nil && *body.DefaultCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "default_capacity must be positive when set"})
	}
	t := model.ClassTemplate{
		ClassTypeID:     body.ClassTypeID,
		VenueID:         body.VenueID,
		InstructorID:    body.InstructorID,
		Name:            body.Name,
		Weekday:         *body.Weekday,
		StartTimeLocal:  body.StartTimeLocal,
		DurationMin:     body.DurationMin,
		DefaultCapacity: body.DefaultCapacity,
		IsActive:        true,
	}
	if err := h.Templates.Create(c.Request().Context(), &t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// ListTemplates handles GET /v1/templates with optional class_type_id,
// venue_id and include_inactive filters.
func (h *ScheduleHandler) ListTemplates(c echo.Context) error {
	classTypeID, err := queryID(c, "class_type_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class_type_id"})
	}
	venueID, err := queryID(c, "venue_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue_id"})
	}
	activeOnly := !strings.EqualFold(c.QueryParam("include_inactive"), "true")
	items, err := h.Templates.List(c.Request().Context(), classTypeID, venueID, activeOnly)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeactivateTemplate handles DELETE /v1/templates/:id.  Sessions already
// generated stay; the template just stops producing new ones.
func (h *ScheduleHandler) DeactivateTemplate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Templates.SetActive(c.Request().Context(), id, false); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GenerateSessions handles POST /v1/templates/:id/generate with from/to
// dates in the body.
func (h *ScheduleHandler) GenerateSessions(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	from, err := time.Parse("2006-01-02", body.From)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := time.Parse("2006-01-02", body.To)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to is before from"})
	}
	created, err := h.Svc.GenerateSessions(c.Request().Context(), id, from, to)
	if err != nil {
		return fail(c, err)
	}
	// Standing bookings land on the fresh sessions in the same call, so
	// generating a window never leaves recurring members unbooked.
	stats, err := h.Svc.MaterializeWindow(c.Request().Context(), scheduling.WindowOptions{
		From: from, To: to, TemplateID: &id,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"created":         len(created),
		"sessions":        created,
		"materialization": stats,
	})
}

// MaintainWindow handles POST /v1/schedule/maintain.  Optional days in the
// body overrides the configured horizon.
func (h *ScheduleHandler) MaintainWindow(c echo.Context) error {
	var body struct {
		Days *int `json:"days"`
	}
	_ = c.Bind(&body)
	days := h.Cfg.SessionWindowDays
	if body.Days != nil {
		if *body.Days <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be positive"})
		}
		days = *body.Days
	}
	created, stats, err := h.Svc.MaintainWindow(c.Request().Context(), days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"created":         created,
		"days":            days,
		"materialization": stats,
	})
}

// Coverage handles GET /v1/schedule/coverage with optional from/to dates
// (default today through the configured session window).  The report shows
// expected versus existing sessions per active template and the dates of
// any gaps.
func (h *ScheduleHandler) Coverage(c echo.Context) error {
	fromPtr, err := queryDate(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	toPtr, err := queryDate(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, h.Cfg.SessionWindowDays)
	if fromPtr != nil {
		from = *fromPtr
	}
	if toPtr != nil {
		to = *toPtr
	}
	report, err := h.Svc.CoverageReport(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": report})
}

// TemplateSeats handles GET /v1/templates/:id/available-seats with an
// optional date query.
func (h *ScheduleHandler) TemplateSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	datePtr, err := queryDate(c, "date")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	seats, err := h.Svc.TemplateAvailableSeats(c.Request().Context(), id, datePtr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// CreateSession handles POST /v1/sessions for one-off or template-linked
// sessions.  The response includes the materialization tally when the
// session belongs to a template.
func (h *ScheduleHandler) CreateSession(c echo.Context) error {
	var body struct {
		TemplateID   *uint64 `json:"template_id"`
		ClassTypeID  uint64  `json:"class_type_id"`
		VenueID      uint64  `json:"venue_id"`
		InstructorID *uint64 `json:"instructor_id"`
		Name         *string `json:"name"`
		StartAt      string  `json:"start_at"`
		DurationMin  int     `json:"duration_min"`
		Capacity     int     `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	startAt, err := time.Parse(time.RFC3339, body.StartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
	}
	if body.ClassTypeID == 0 || body.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_type_id and venue_id are required"})
	}
	sess, stats, err := h.Svc.CreateSession(c.Request().Context(), scheduling.CreateSessionInput{
		TemplateID:   body.TemplateID,
		ClassTypeID:  body.ClassTypeID,
		VenueID:      body.VenueID,
		InstructorID: body.InstructorID,
		Name:         body.Name,
		StartAt:      startAt.UTC(),
		DurationMin:  body.DurationMin,
		Capacity:     body.Capacity,
	})
	if err != nil {
		return fail(c, err)
	}
	resp := echo.Map{"session": sess}
	if stats != nil {
		resp["materialization"] = stats
	}
	return c.JSON(http.StatusCreated, resp)
}

// CancelSession handles POST /v1/sessions/:id/cancel.
func (h *ScheduleHandler) CancelSession(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	canceled, err := h.Svc.CancelSession(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"canceled_reservations": canceled})
}
