package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

// ConcertHandler serves the read-only browsing endpoints.
type ConcertHandler struct {
	Availability *service.AvailabilityService
}

// List handles GET /api/concerts?sortBy=&sortOrder=.
func (h *ConcertHandler) List(c echo.Context) error {
	in := service.ListConcertsInput{
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	concerts, err := h.Availability.ListConcerts(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"concerts": concerts})
}

// Detail handles GET /api/concerts/:concertId.
func (h *ConcertHandler) Detail(c echo.Context) error {
	detail, err := h.Availability.ConcertDetail(c.Request().Context(), c.Param("concertId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// SeatMap handles GET /api/concerts/:concertId/seats/map.
func (h *ConcertHandler) SeatMap(c echo.Context) error {
	m, err := h.Availability.SeatMap(c.Request().Context(), c.Param("concertId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
