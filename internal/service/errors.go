package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when the request conflicts with current state
	ErrConflict = errors.New("resource conflict")

	// ErrAlreadyConverted is returned when a converted lead is converted or edited again
	ErrAlreadyConverted = errors.New("lead is already converted")
)

// Entity-specific errors; each wraps one of the common errors above
var (
	ErrAccountNotFound      = fmt.Errorf("account %w", ErrNotFound)
	ErrContactNotFound      = fmt.Errorf("contact %w", ErrNotFound)
	ErrOpportunityNotFound  = fmt.Errorf("opportunity %w", ErrNotFound)
	ErrLeadNotFound         = fmt.Errorf("lead %w", ErrNotFound)
	ErrAccountHasDependents = fmt.Errorf("%w: account still has contacts, opportunities or child accounts", ErrConflict)
	ErrAccountNameBusy      = fmt.Errorf("%w: account name is being resolved by another request", ErrConflict)
)

// ValidationError reports one or more invalid request fields.
// It is raised before any write takes place.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a field error, keeping the first message per field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field errors were recorded
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match ValidationError with errors.Is(err, ErrInvalidInput)
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
