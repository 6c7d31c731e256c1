package router

// This file registers standing-booking and membership routes.  Standing
// bookings are the recurring reservations a fixed-slot membership grants;
// materialization turns them into concrete reservations.

import (
	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/handler"
	"github.com/avelez/gym-class-scheduler/internal/middleware"
)

// RegisterStanding registers the standing-booking registry, materialization
// and membership lifecycle endpoints.  All require the ADMIN or STAFF role.
func RegisterStanding(e *echo.Echo, st *handler.StandingHandler, mem *handler.MembershipHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "STAFF"),
	)

	// Registry.
	g.POST("/standing-bookings", st.CreateStandingBooking)
	g.PATCH("/standing-bookings/:id/status", st.UpdateStandingBookingStatus)
	g.POST("/standing-bookings/:id/exceptions", st.CreateException)
	g.GET("/subscriptions/:id/standing-bookings", st.ListBySubscription)

	// Materialization over a calendar window, its dry run, and the
	// single-session variant used after inserting an extra session.
	g.POST("/standing-bookings/materialize", st.Materialize)
	g.POST("/standing-bookings/preview", st.Preview)
	g.POST("/sessions/:id/materialize", st.MaterializeSession)

	// Membership lifecycle.  Enroll is for new members, renew carries the
	// previous standing slot forward.
	g.POST("/memberships/enroll", mem.Enroll)
	g.POST("/memberships/renew", mem.Renew)
	g.GET("/people/:id/subscriptions", mem.ListSubscriptions)
	g.GET("/people/:id/payments", mem.ListPayments)
	g.GET("/subscriptions/expiring", mem.ListExpiring)
}
