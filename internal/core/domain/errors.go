package domain

import (
	"errors"
	"strings"
)

// Common domain errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("Username or Password is incorrect")
)

// User errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrRoleNotFound    = errors.New("role not found")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidPassword = errors.New("Incorrect password")
)

// ValidationError carries one or more input rule violations.
// Its message is the violations joined by ", ".
type ValidationError struct {
	Messages []string
}

// NewValidationError creates a validation error from the given messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// Is reports ErrValidation so callers can match the whole class
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsNotFound reports whether err means a user or role is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRoleNotFound)
}

// IsBusinessError reports whether err is an expected outcome that is safe
// to show to the client as-is.
func IsBusinessError(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidRole),
		IsNotFound(err):
		return true
	}
	return false
}
