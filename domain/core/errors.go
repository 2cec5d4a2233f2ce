package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrRunNotFound   = fmt.Errorf("%w: report run", ErrNotFound)
	ErrPixelNotFound = fmt.Errorf("%w: pixel", ErrNotFound)

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateBand   = errors.New("degenerate payout band")
	ErrNoCoordinates    = errors.New("row has no usable coordinates")
)

// NewNotFoundError builds a not-found error with resource context.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError builds a field-level validation error.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsNotFoundError reports whether err is any not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
