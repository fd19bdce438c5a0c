// internal/api/errors.go
package api

import (
	"errors"
	"net/http"
)

// Error is a business fault with a user-facing message and an HTTP status
// classification. It is the only error type that crosses the service boundary.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a 404 business error.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// BadRequest builds a 400 business error for rule violations.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Conflict builds a 409 business error for concurrency conflicts; the caller
// may retry.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// Internal wraps an unrecognized fault into a generic retryable 500 error.
func Internal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// AsError unwraps err to an *Error, or nil if it is not a business error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
