// Package apperr defines the error kinds the engine returns. Every failure a
// caller can act on is one of four kinds; handlers map kinds to HTTP status
// codes and callers branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

// Error is an engine error: a kind plus a caller-facing message.
type Error struct {
	Kind    error  `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// HTTPStatus maps the error kind to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidState, ErrConflict:
		return http.StatusConflict
	case ErrValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NotFound reports a missing bed, turnover, equipment item or queue entry.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidState reports an operation that is illegal in the current state.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a concurrent mutation; the caller may retry.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a malformed identifier or unsupported enum value.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Status returns the HTTP status for err, or 500 for non-engine errors.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
