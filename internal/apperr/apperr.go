// Package apperr defines the error taxonomy shared by services and the
// HTTP layer. Handlers convert these to JSON error responses; anything
// unrecognized maps to a 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationError means the input was bad or missing (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation creates a ValidationError.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means an unknown identifier was requested (HTTP 404).
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFound creates a NotFoundError.
func NewNotFound(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ServiceUnavailableError means a required external credential is not
// configured (HTTP 503). Features degrade to this instead of failing at
// startup.
type ServiceUnavailableError struct {
	Service string
}

func (e *ServiceUnavailableError) Error() string {
	return e.Service + " is not configured"
}

// NewServiceUnavailable creates a ServiceUnavailableError for a provider.
func NewServiceUnavailable(service string) error {
	return &ServiceUnavailableError{Service: service}
}

// UpstreamError means a third-party provider call failed or returned an
// unexpected shape (HTTP 500 at our boundary).
type UpstreamError struct {
	Provider string
	Message  string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s request failed", e.Provider)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstream creates an UpstreamError.
func NewUpstream(provider, message string, err error) error {
	return &UpstreamError{Provider: provider, Message: message, Err: err}
}

// TimeoutError means a client-side polling loop exhausted its attempt
// budget.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string { return e.Message }

// NewTimeout creates a TimeoutError.
func NewTimeout(format string, args ...any) error {
	return &TimeoutError{Message: fmt.Sprintf(format, args...)}
}

// RateLimitedError is a transient signal from a provider: the caller
// should retry after the suggested delay. It never changes stored state.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// StatusCode maps an error to the HTTP status its category carries.
func StatusCode(err error) int {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		unavailable *ServiceUnavailableError
		rateLimited *RateLimitedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
