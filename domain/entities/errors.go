package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks an operation rejected before any state mutation
	ErrValidation = errors.New("validation failed")

	// ErrOverflow marks an arithmetic overflow or underflow in stake math
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrConsistency marks state that upstream invariants should have made impossible
	ErrConsistency = errors.New("consistency violation")

	// ErrNotFound is returned when a referenced game or bet does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the submitter may not perform the operation
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInsufficientFunds is returned when a debit exceeds the account balance
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ValidationError describes which rule rejected an operation
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrValidation)
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError formats a validation failure
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
