package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

// ReservationHandler exposes reservation creation, summary and lookup.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// Create handles POST /api/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.CreateReservationInput
	if err := c.Bind(&in); err != nil {
		return bindFailed(c, err)
	}
	summary, err := h.Reservations.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, summary)
}

// Summary handles GET /api/reservations/:reservationId.
func (h *ReservationHandler) Summary(c echo.Context) error {
	summary, err := h.Reservations.Summary(c.Request().Context(), c.Param("reservationId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Lookup handles POST /api/reservations/lookup with {phoneNumber, pin}.
func (h *ReservationHandler) Lookup(c echo.Context) error {
	var in service.LookupInput
	if err := c.Bind(&in); err != nil {
		return bindFailed(c, err)
	}
	found, err := h.Reservations.Lookup(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": found})
}
