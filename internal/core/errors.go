package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoActiveSession = errors.New("no round in progress")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// ValidationError reports a required field that is missing or malformed.
// The action that produced it must leave state unchanged.
type ValidationError struct {
	Field    string
	Message  string
	Problems []FieldProblem // set when a whole form is validated at once
}

// FieldProblem is a single field failure inside a form validation.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidationError builds a single-field ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SelectionLimitError is returned when a selection would exceed its cap.
type SelectionLimitError struct {
	Limit int
}

func (e *SelectionLimitError) Error() string {
	return fmt.Sprintf("You can select up to %d tasks.", e.Limit)
}

// StoreParseError describes a persisted value that could not be decoded.
// Callers recover by substituting a default; it is only ever logged.
type StoreParseError struct {
	Key string
	Err error
}

func (e *StoreParseError) Error() string {
	return fmt.Sprintf("parse stored value %q: %v", e.Key, e.Err)
}

func (e *StoreParseError) Unwrap() error { return e.Err }

// IsUserError reports whether err should be shown to the user as a blocked action
// rather than treated as an internal failure.
func IsUserError(err error) bool {
	var ve *ValidationError
	var se *SelectionLimitError
	return errors.As(err, &ve) || errors.As(err, &se)
}
