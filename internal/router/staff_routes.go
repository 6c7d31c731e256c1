package router

// This file registers the staff-facing catalog and schedule routes.  All
// routes are mounted under /v1 and require a JWT with the ADMIN or STAFF
// role.  Standing-booking and membership routes live in a separate file to
// keep concerns isolated.

import (
	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/handler"
	"github.com/avelez/gym-class-scheduler/internal/middleware"
)

// RegisterStaff registers catalog management, template and session
// scheduling, and front-desk reservation endpoints.
func RegisterStaff(e *echo.Echo, cat *handler.CatalogHandler, sch *handler.ScheduleHandler, res *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "STAFF"),
	)

	// Catalog: class types, venues, seats, people and plans.
	g.POST("/class-types", cat.CreateClassType)
	g.GET("/class-types", cat.ListClassTypes)
	g.POST("/venues", cat.CreateVenue)
	g.GET("/venues", cat.ListVenues)
	g.POST("/venues/:id/seats", cat.CreateSeat)
	g.GET("/venues/:id/seats", cat.ListSeats)
	g.POST("/people", cat.CreatePerson)
	g.GET("/people", cat.SearchPeople)
	g.POST("/plans", cat.CreatePlan)
	g.GET("/plans", cat.ListPlans)

	// Weekly templates and concrete sessions.
	g.POST("/templates", sch.CreateTemplate)
	g.GET("/templates", sch.ListTemplates)
	g.DELETE("/templates/:id", sch.DeactivateTemplate)
	g.POST("/templates/:id/generate", sch.GenerateSessions)
	g.GET("/templates/:id/available-seats", sch.TemplateSeats)
	g.POST("/schedule/maintain", sch.MaintainWindow)
	g.GET("/schedule/coverage", sch.Coverage)
	g.POST("/sessions", sch.CreateSession)
	g.POST("/sessions/:id/cancel", sch.CancelSession)

	// One-off reservations and attendance.
	g.POST("/reservations", res.Create)
	g.POST("/reservations/:id/cancel", res.Cancel)
	g.POST("/reservations/:id/checkin", res.CheckIn)
	g.POST("/reservations/:id/checkout", res.CheckOut)
	g.GET("/sessions/:id/reservations", res.ListBySession)
}
