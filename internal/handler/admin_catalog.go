package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/model"
	"github.com/avelez/gym-class-scheduler/internal/repository"
)

// CatalogHandler serves the static catalog: class types, venues, seats,
// people and membership plans.
type CatalogHandler struct {
	ClassTypes *repository.ClassTypeRepo
	Venues     *repository.VenueRepo
	Seats      *repository.SeatRepo
	People     *repository.PersonRepo
	Plans      *repository.PlanRepo
}

func NewCatalogHandler(ct *repository.ClassTypeRepo, v *repository.VenueRepo, s *repository.SeatRepo, p *repository.PersonRepo, pl *repository.PlanRepo) *CatalogHandler {
	return &CatalogHandler{ClassTypes: ct, Venues: v, Seats: s, People: p, Plans: pl}
}

// CreateClassType handles POST /v1/class-types.
func (h *CatalogHandler) CreateClassType(c echo.Context) error {
	var body struct {
		Code        string  `json:"code"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
	body.Name = strings.TrimSpace(body.Name)
	if body.Code == "" || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name are required"})
	}
	ct := model.ClassType{Code: body.Code, Name: body.Name, Description: body.Description}
	if err := h.ClassTypes.Create(c.Request().Context(), &ct); err != nil {
		if err == repository.ErrDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "class type code already exists"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, ct)
}

// ListClassTypes handles GET /v1/class-types.
func (h *CatalogHandler) ListClassTypes(c echo.Context) error {
	items, err := h.ClassTypes.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateVenue handles POST /v1/venues.
func (h *CatalogHandler) CreateVenue(c echo.Context) error {
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Capacity    int     `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive capacity are required"})
	}
	v := model.Venue{Name: body.Name, Description: body.Description, Capacity: body.Capacity}
	if err := h.Venues.Create(c.Request().Context(), &v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// ListVenues handles GET /v1/venues.
func (h *CatalogHandler) ListVenues(c echo.Context) error {
	items, err := h.Venues.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateSeat handles POST /v1/venues/:id/seats.
func (h *CatalogHandler) CreateSeat(c echo.Context) error {
	venueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Label string `json:"label"`
		Row   *int   `json:"row"`
		Col   *int   `json:"col"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Label = strings.TrimSpace(body.Label)
	if body.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
	}
	if _, err := h.Venues.GetByID(c.Request().Context(), venueID); err != nil {
		return fail(c, err)
	}
	seat := model.Seat{VenueID: venueID, Label: body.Label, Row: body.Row, Col: body.Col, IsActive: true}
	if err := h.Seats.Create(c.Request().Context(), &seat); err != nil {
		if err == repository.ErrDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat label already exists in this venue"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, seat)
}

// ListSeats handles GET /v1/venues/:id/seats.
func (h *CatalogHandler) ListSeats(c echo.Context) error {
	venueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Seats.ListByVenue(c.Request().Context(), venueID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreatePerson handles POST /v1/people.
func (h *CatalogHandler) CreatePerson(c echo.Context) error {
	var body struct {
		FullName    string  `json:"full_name"`
		Email       *string `json:"email"`
		PhoneNumber *string `json:"phone_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.FullName = strings.TrimSpace(body.FullName)
	if body.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	p := model.Person{FullName: body.FullName, Email: body.Email, PhoneNumber: body.PhoneNumber, IsActive: true}
	if err := h.People.Create(c.Request().Context(), &p); err != nil {
		if err == repository.ErrDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a person with this email already exists"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// SearchPeople handles GET /v1/people?q=...
func (h *CatalogHandler) SearchPeople(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
	}
	items, err := h.People.Search(c.Request().Context(), q, 50)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreatePlan handles POST /v1/plans.
func (h *CatalogHandler) CreatePlan(c echo.Context) error {
	var body struct {
		Name               string  `json:"name"`
		Description        *string `json:"description"`
		PriceCents         int64   `json:"price_cents"`
		DurationValue      int     `json:"duration_value"`
		DurationUnit       string  `json:"duration_unit"`
		ClassLimit         *int    `json:"class_limit"`
		FixedTimeSlot      bool    `json:"fixed_time_slot"`
		StandingWindowDays *int    `json:"standing_window_days"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.PriceCents < 0 || body.DurationValue <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, price_cents and a positive duration_value are required"})
	}
	switch body.DurationUnit {
	case model.DurationDay, model.DurationWeek, model.DurationMonth:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_unit must be day, week or month"})
	}
	if body.StandingWindowDays != nil && *body.StandingWindowDays <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "standing_window_days must be positive when set"})
	}
	p := model.MembershipPlan{
		Name:               body.Name,
		Description:        body.Description,
		PriceCents:         body.PriceCents,
		DurationValue:      body.DurationValue,
		DurationUnit:       body.DurationUnit,
		ClassLimit:         body.ClassLimit,
		FixedTimeSlot:      body.FixedTimeSlot,
		StandingWindowDays: body.StandingWindowDays,
	}
	if err := h.Plans.Create(c.Request().Context(), &p); err != nil {
		if err == repository.ErrDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plan name already exists"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPlans handles GET /v1/plans.
func (h *CatalogHandler) ListPlans(c echo.Context) error {
	items, err := h.Plans.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
