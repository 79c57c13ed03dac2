// Package errs holds the error kinds shared by the engine and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrQuery      = errors.New("query execution failed")
	ErrConnection = errors.New("connection failed")
)

// Error attaches a caller-safe message to one of the kinds above. Cause
// carries the underlying store error for logging and is never shown to callers.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Cause }

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Query wraps a store failure. message is what the caller sees.
func Query(message string, cause error) error {
	return &Error{Kind: ErrQuery, Message: message, Cause: cause}
}

func Connection(cause error) error {
	return &Error{Kind: ErrConnection, Message: "database unavailable", Cause: cause}
}

// Status maps an error to its HTTP status and the message safe to return.
func Status(err error) (int, string) {
	var e *Error
	msg := "internal error"
	if errors.As(err, &e) {
		msg = e.Message
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, msg
	case errors.Is(err, ErrQuery), errors.Is(err, ErrConnection):
		return http.StatusInternalServerError, msg
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
