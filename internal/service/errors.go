// Package service implements the seat hold ledger, the availability
// resolver, the reservation committer and reservation lookup on top of
// the repository interfaces declared in ports.go.  Every operation
// returns either a result or a *Error carrying the HTTP status and the
// stable error code clients match on.
package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable failure identifier.
type Code string

const (
	CodeInvalidPayload      Code = "INVALID_PAYLOAD"
	CodeInvalidParams       Code = "INVALID_PARAMS"
	CodeConcertNotFound     Code = "CONCERT_NOT_FOUND"
	CodeSeatNotFound        Code = "SEAT_NOT_FOUND"
	CodeSeatAlreadyReserved Code = "SEAT_ALREADY_RESERVED"
	CodeSeatAlreadyHeld     Code = "SEAT_ALREADY_HELD"
	CodeSeatConflict        Code = "SEAT_CONFLICT"
	CodeHoldMissing         Code = "HOLD_MISSING"
	CodeHoldMismatch        Code = "HOLD_MISMATCH"
	CodeHoldExpired         Code = "HOLD_EXPIRED"
	CodeFetchFailed         Code = "FETCH_FAILED"
	CodeCreationFailed      Code = "CREATION_FAILED"
	CodeReleaseFailed       Code = "RELEASE_FAILED"
	CodeVerificationFailed  Code = "VERIFICATION_FAILED"
	CodeSummaryFailed       Code = "SUMMARY_FAILED"
	CodeLookupFailed        Code = "LOOKUP_FAILED"
	CodeAuthFailed          Code = "AUTH_FAILED"
)

// Error is the tagged failure returned by every service operation.  Only
// Code, Message and Details are meant for clients; Err keeps the
// underlying cause for logs.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func newError(status int, code Code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

func invalidPayload(details any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidPayload, Message: "request payload is invalid", Details: details}
}

func invalidParams(details any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidParams, Message: "request parameters are invalid", Details: details}
}

func storeFailure(code Code, msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: code, Message: msg, Err: err}
}
