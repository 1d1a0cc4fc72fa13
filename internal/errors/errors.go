// Package errors provides coded domain errors for the page tree and its API.
//
// Usage:
//
//	// In services - return typed errors
//	if !registry.CanExistUnder(child, parent) {
//	    return errors.InvalidPositionf("%s cannot live under %s", child, parent)
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrInvalidPosition) {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeValidation          Code = "VALIDATION"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL"
	CodeInvalidPath         Code = "INVALID_PATH"
	CodeInvalidPosition     Code = "INVALID_POSITION"
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"
	CodeTypeResolutionStale Code = "TYPE_RESOLUTION_STALE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeConstraintViolation:
		return http.StatusConflict
	case CodeValidation, CodeInvalidPath:
		return http.StatusBadRequest
	case CodeInvalidPosition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict            = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal            = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidPath         = &Error{Code: CodeInvalidPath, Message: "invalid path"}
	ErrInvalidPosition     = &Error{Code: CodeInvalidPosition, Message: "invalid position"}
	ErrConstraintViolation = &Error{Code: CodeConstraintViolation, Message: "constraint violation"}
	ErrTypeResolutionStale = &Error{Code: CodeTypeResolutionStale, Message: "type resolution stale"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// InvalidPathf creates an invalid path error with formatted message.
func InvalidPathf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidPath, Message: fmt.Sprintf(format, args...)}
}

// InvalidPositionf creates an invalid position error with formatted message.
func InvalidPositionf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidPosition, Message: fmt.Sprintf(format, args...)}
}

// ConstraintViolationf creates a constraint violation error with formatted message.
func ConstraintViolationf(format string, args ...any) *Error {
	return &Error{Code: CodeConstraintViolation, Message: fmt.Sprintf(format, args...)}
}

// TypeResolutionStalef creates a stale type resolution error.
// It is logged, never returned to API clients.
func TypeResolutionStalef(format string, args ...any) *Error {
	return &Error{Code: CodeTypeResolutionStale, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
