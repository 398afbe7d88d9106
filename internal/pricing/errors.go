package pricing

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every construction-time fault raised in this
// package. Use errors.Is to tell a rejected configuration apart from a
// collaborator fault.
var ErrValidation = errors.New("pricing: validation failed")

// ValidationError names the offending field and why it was rejected.
// Values are never clamped into range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pricing: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
