package store

import (
	"fmt"
	"net/http"
)

// Sentinel errors returned by store implementations. Compare with
// errors.Is; the copies returned by WithMessage and WithCause match too.
var (
	ErrNotFound      = newError(http.StatusNotFound, "resource not found")
	ErrAlreadyExists = newError(http.StatusConflict, "resource already exists")
	ErrInvalidInput  = newError(http.StatusBadRequest, "invalid input")
)

// Error is a storage error carrying the HTTP status it maps to.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying driver error, if any
}

func newError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same status code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// WithCause returns a copy wrapping the driver error.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}
