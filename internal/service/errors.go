package service

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderCreationFailed wraps every failed checkout confirmation. The
	// underlying cause stays reachable through errors.Is.
	ErrOrderCreationFailed = errors.New("order creation failed")
	// ErrUpdateFailed wraps storage failures during admin mutations
	ErrUpdateFailed = errors.New("update failed")
)

// ValidationError reports bad input; nothing was changed
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err carries a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
