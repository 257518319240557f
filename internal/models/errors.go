package models

import "errors"

// Sentinel errors mapped to HTTP status codes by the server layer.
// ErrNotFound deliberately covers both "absent" and "owned by another
// account" so existence never leaks across tenants.
var (
	ErrNotFound       = errors.New("not found")
	ErrClosedPosition = errors.New("operation is closed")
	ErrConflict       = errors.New("already exists")
)

// ValidationError carries field-level detail for rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError builds a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
