package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

// HoldHandler exposes the hold ledger.
type HoldHandler struct {
	Holds *service.HoldService
}

// Create handles POST /api/holds with {seatId, sessionHint?, ttlSeconds?}.
// It answers 201 with {holdToken, expiresAt} for new and renewed holds.
func (h *HoldHandler) Create(c echo.Context) error {
	var in service.CreateHoldInput
	if err := c.Bind(&in); err != nil {
		return bindFailed(c, err)
	}
	res, err := h.Holds.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Release handles DELETE /api/holds/:holdToken.
func (h *HoldHandler) Release(c echo.Context) error {
	if err := h.Holds.Release(c.Request().Context(), c.Param("holdToken")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}

// Verify handles POST /api/holds/verify with {seatIds}.
func (h *HoldHandler) Verify(c echo.Context) error {
	var in service.VerifyInput
	if err := c.Bind(&in); err != nil {
		return bindFailed(c, err)
	}
	conflicts, err := h.Holds.Verify(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conflicts": conflicts})
}
