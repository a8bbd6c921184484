package core

import "errors"

// Validation primitives.
var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrMissingReference = errors.New("missing reference")
)

// Error taxonomy surfaced by ledger and tracker mutators. Every mutator
// either fully succeeds or returns one of these without changing state.
var (
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientSavings  = errors.New("insufficient savings")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrNotFound             = errors.New("not found")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrImmutableTransfer    = errors.New("internal transfers cannot be edited")
	ErrReservedCategory     = errors.New("reserved category cannot be deleted")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field string
	Err   error
}

// Invalid wraps err as a validation failure on field.
func Invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
