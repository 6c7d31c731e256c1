package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/handler"
)

// RegisterPublic registers unauthenticated browse endpoints.  Members and
// guests can view the upcoming schedule and seat availability without a
// session.  The optional cache middleware (Redis response cache) is applied
// only here; authenticated routes are never cached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	e.GET("/v1/schedule", p.ListSessions, mws...)
	e.GET("/v1/sessions/:id/capacity", p.Capacity, mws...)
	e.GET("/v1/sessions/:id/available-seats", p.AvailableSeats, mws...)
}
