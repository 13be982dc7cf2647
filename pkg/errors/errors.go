package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Stable machine-readable error codes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeConflict          = "CONFLICT"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_STATE_TRANSITION"
	CodeInternal          = "INTERNAL_ERROR"
	CodeCacheMiss         = "CACHE_MISS"
)

// Predefined errors for common scenarios.
var (
	ErrNotFound          = New(CodeNotFound, http.StatusNotFound, "resource not found")
	ErrForbidden         = New(CodeForbidden, http.StatusForbidden, "forbidden")
	ErrUnauthorized      = New(CodeUnauthorized, http.StatusUnauthorized, "unauthorized")
	ErrConflict          = New(CodeConflict, http.StatusConflict, "conflict")
	ErrValidation        = New(CodeValidation, http.StatusBadRequest, "validation failed")
	ErrInvalidTransition = New(CodeInvalidTransition, http.StatusBadRequest, "invalid state transition")
	ErrInternal          = New(CodeInternal, http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New(CodeCacheMiss, http.StatusNotFound, "cache miss")
)

// InvalidTransition reports the request's current status verbatim so the
// client can render "already approved/rejected".
func InvalidTransition(currentStatus string) *Error {
	return Clone(ErrInvalidTransition, fmt.Sprintf("request is already %s", currentStatus))
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
