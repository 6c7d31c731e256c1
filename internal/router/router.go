// Package router wires handlers onto the Echo instance.  Registration is
// split by audience: unauthenticated basics here, staff routes in
// staff_routes.go and the public schedule surface in public_routes.go.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/handler"
	"github.com/avelez/gym-class-scheduler/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes.  Register, login, refresh
// and logout live under /v1/auth and need no session; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the old one is revoked and a new
	// pair is returned.
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a bearer token (revokes every session) or a
	// refresh_token in the body (revokes that one), so it stays outside the
	// JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "STAFF"))
	auth.GET("/me", a.Me)
}
