// Package errs defines the error taxonomy shared by every component of the
// service and the mapping of those errors onto HTTP statuses and user-facing
// messages.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing input. Never retried.
	ErrValidation = errors.New("invalid input")

	// ErrGeneration marks a provider call that produced no usable structured payload.
	ErrGeneration = errors.New("generation failed")

	// ErrService marks an unexpected failure such as an unreachable store.
	ErrService = errors.New("service unavailable")
)

// RateLimitError is returned when a client identity has exhausted its daily
// generation quota.
type RateLimitError struct {
	Remaining    int
	ResetInHours int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily question generation limit reached, resets in %d hours", e.ResetInHours)
}

// Validation builds an ErrValidation with a formatted detail.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Generation wraps cause as an ErrGeneration.
func Generation(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, ErrGeneration)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrGeneration, cause)
}

// Service wraps cause as an ErrService.
func Service(op string, cause error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrService, cause)
}

// AsRateLimit reports whether err carries a rate-limit hint.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// HTTPStatus maps err onto the status code the HTTP boundary responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	}
	if _, ok := AsRateLimit(err); ok {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Message converts err into the message shown to the user. Internal detail
// is only exposed for validation failures.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if rl, ok := AsRateLimit(err); ok {
		return rl.Error()
	}
	switch {
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrGeneration):
		return "We couldn't generate a response right now. Please try again."
	default:
		return "Something went wrong on our side. Please try again later."
	}
}
