package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrRunNotFound        = fmt.Errorf("%w: run", ErrNotFound)
	ErrHypothesisNotFound = fmt.Errorf("%w: hypothesis", ErrNotFound)
	ErrExperimentNotFound = fmt.Errorf("%w: experiment", ErrNotFound)

	// Collaborator errors
	ErrNotImplemented = errors.New("generator path not implemented")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrDigestMismatch   = errors.New("digest mismatch")

	// Storage errors
	ErrStorageWrite = errors.New("storage write failed")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: validation failed for %s: %s", ErrInvalidInput, field, reason)
}

func NewStorageError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageWrite, path, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNotImplementedError(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageWrite)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrDigestMismatch)
}
