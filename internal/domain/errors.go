package domain

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

var (
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrNoCredentials is returned when a stored record resolves to an
	// empty credential payload. Display paths may treat it as an empty
	// object; refresh paths must surface it.
	ErrNoCredentials = errors.New("integration has no usable credentials")

	ErrUnauthenticated = errors.New("missing or invalid authentication")
)

// DecryptionError wraps any failure to parse or authenticate cipher text.
// The attempted value is never included in the message.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decryption failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decryption failed: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// ValidationError covers malformed caller input.
type ValidationError struct {
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError carries a platform rejection that is safe to disclose to the
// caller, e.g. an expired refresh token that requires a reconnect.
type UpstreamError struct {
	Platform PlatformType
	Message  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

// RateLimitError signals the caller exceeded its window quota.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded"
}

// HTTPStatus maps the vault error taxonomy onto response status codes.
// Anything unclassified is an internal failure.
func HTTPStatus(err error) int {
	var (
		validationErr *ValidationError
		upstreamErr   *UpstreamError
		rateErr       *RateLimitError
	)

	switch {
	case errors.Is(err, ErrIntegrationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.As(err, &validationErr), errors.As(err, &upstreamErr), errors.Is(err, ErrNoCredentials):
		return fiber.StatusBadRequest
	case errors.As(err, &rateErr):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
