// Package handler exposes the HTTP handlers of the public concert API.
// Handlers bind and forward requests to the service layer and render
// *service.Error values as {"error": {"code", "message", "details"}}.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

// errorBody is the failure envelope shared by every endpoint.
type errorBody struct {
	Code    service.Code `json:"code"`
	Message string       `json:"message"`
	Details any          `json:"details,omitempty"`
}

// fail renders err.  Errors that are not *service.Error are logged and
// reported as a bare 500 so internal details never reach clients.
func fail(c echo.Context, err error) error {
	se, ok := service.AsError(err)
	if !ok {
		c.Logger().Errorf("unhandled error on %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": errorBody{Code: "INTERNAL", Message: "internal server error"},
		})
	}
	if se.Err != nil {
		c.Logger().Debugf("%s %s: %v", c.Request().Method, c.Path(), se)
	}
	return c.JSON(se.Status, echo.Map{
		"error": errorBody{Code: se.Code, Message: se.Message, Details: se.Details},
	})
}

// bindFailed reports a body that could not be decoded.
func bindFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error": errorBody{Code: service.CodeInvalidPayload, Message: "request body is not valid JSON", Details: bindMessage(err)},
	})
}

func bindMessage(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
