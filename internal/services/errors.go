package services

import (
	"errors"
	"strings"
)

// Sentinel errors shared by the services. Handlers translate these into
// HTTP statuses and user-facing messages; anything else is treated as an
// infrastructure failure.
var (
	// ErrUnavailable means stock or status changed since the caller last
	// looked; refreshing the cart recovers.
	ErrUnavailable = errors.New("product is no longer available")
	// ErrInvalidTransition means an illegal lifecycle move, usually a
	// double-submit or stale UI state. The attempt is a no-op.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrNotFound means the referenced entity is missing or soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrPermission means the actor lacks rights on the entity.
	ErrPermission = errors.New("permission denied")

	// Login failures. The credentials message never reveals which of
	// email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("your account is not activated")
	ErrAccountBlocked     = errors.New("your account has been blocked, please contact support")

	// ErrTooManyAttempts means the OTP attempt limit was hit.
	ErrTooManyAttempts = errors.New("too many failed attempts, please try again later")
)

// ValidationError carries field-level messages for bad input. The user
// fixes the form and retries.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
