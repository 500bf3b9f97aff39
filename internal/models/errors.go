package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a value that cannot be mapped onto the model,
// such as an unknown severity or category name.
type ValidationError struct {
	message string
}

// NewValidationError creates a new validation error
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return e.message
}

// IsValidationError checks if an error (or anything it wraps) is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
