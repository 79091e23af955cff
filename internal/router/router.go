// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/handler"
)

// Handlers groups the handler sets mounted by Register.
type Handlers struct {
	Health       *handler.HealthHandler
	Concerts     *handler.ConcertHandler
	Holds        *handler.HoldHandler
	Reservations *handler.ReservationHandler
}

// RegisterRoutes mounts the liveness probe.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterPublic mounts the concert browsing endpoints.  Only the concert
// listing goes through the response cache; detail and seat map carry
// live availability.
func RegisterPublic(e *echo.Echo, h *handler.ConcertHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/api/concerts")
	g.GET("", h.List, cache)
	g.GET("/:concertId", h.Detail)
	g.GET("/:concertId/seats/map", h.SeatMap)
}

// RegisterBooking mounts the hold and reservation endpoints.  Writes and
// the PIN lookup pass through the rate limiter.
func RegisterBooking(e *echo.Echo, holds *handler.HoldHandler, res *handler.ReservationHandler, limit echo.MiddlewareFunc) {
	hg := e.Group("/api/holds")
	hg.POST("", holds.Create, limit)
	hg.POST("/verify", holds.Verify)
	hg.DELETE("/:holdToken", holds.Release)

	rg := e.Group("/api/reservations")
	rg.POST("", res.Create, limit)
	rg.POST("/lookup", res.Lookup, limit)
	rg.GET("/:reservationId", res.Summary)
}

// Register mounts every route.
func Register(e *echo.Echo, h Handlers, limit, cache echo.MiddlewareFunc) {
	RegisterRoutes(e, h.Health)
	RegisterPublic(e, h.Concerts, cache)
	RegisterBooking(e, h.Holds, h.Reservations, limit)
}
