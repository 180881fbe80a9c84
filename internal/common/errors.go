// Package common defines the sentinel errors shared by every saverpwd layer.
// Callers should match them with errors.Is; the storage and service layers
// wrap them with context using fmt.Errorf("...: %w").
package common

import (
	"errors"
	"fmt"
)

var (
	// Store-level errors.
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrAmbiguousResult = errors.New("ambiguous result: more than one record matches")

	// Credential errors.
	ErrDecryption         = errors.New("decryption failed")
	ErrMissingCredential  = errors.New("current password is required")
	ErrForbiddenOperation = errors.New("forbidden operation")

	// ErrInconsistentState signals a broken store invariant. It is a bug, not user error.
	ErrInconsistentState = errors.New("inconsistent store state")
)

var (
	// ErrIncorrectPassword is how a failed decryption or a hash mismatch is reported.
	ErrIncorrectPassword = fmt.Errorf("incorrect password: %w", ErrDecryption)

	ErrNothingToUpdate = fmt.Errorf("nothing to update: %w", ErrValidation)

	// ErrKDFMismatch is returned when a store created with one key derivation
	// function is opened with another.
	ErrKDFMismatch = fmt.Errorf("key derivation function mismatch: %w", ErrInconsistentState)
)

// ValidationError describes a malformed record field.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s.%s: %s", e.Entity, e.Field, e.Reason)
}

// Is reports ValidationError as ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand used by the model validators.
func NewValidationError(entity, field, reason string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}
