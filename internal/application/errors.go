package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned when a login PIN does not match any user.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a presented token has aged past its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrLastAdmin is returned when deleting a user would leave no administrator.
	ErrLastAdmin = errors.New("application: cannot delete last administrator")
	// ErrInviteInFlight is returned when a speaker invitation is already being delivered.
	ErrInviteInFlight = errors.New("application: invitation already in progress")
	// ErrAssistUnavailable is returned when the content assistant is not configured.
	ErrAssistUnavailable = errors.New("application: content assistant not configured")
)

// ExternalServiceError wraps a failure reported by a collaborator outside the
// process, such as the calendar bridge or the notification webhook.
type ExternalServiceError struct {
	Service string
	Err     error
}

// Error implements the error interface.
func (e *ExternalServiceError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *ExternalServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
