// Package apperrors defines the error taxonomy shared across services
// and handlers. Validation and parse failures carry user-facing
// messages; anything else is treated as unexpected and never leaks
// internal detail to the caller.
package apperrors

import "errors"

// ErrNotFound is returned when a referenced report does not exist.
var ErrNotFound = errors.New("report not found")

// ValidationError indicates user input violated a precondition
// (file presence, extension, size, question length). The message is
// safe to surface verbatim as a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation creates a ValidationError with the given user-facing message.
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ParseError indicates uploaded file content could not be turned into
// a valid dataset (empty data, no columns, decode or structure
// failure). Surfaced as a 400 with its message.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParse creates a ParseError with the given user-facing message.
func NewParse(message string, cause error) *ParseError {
	return &ParseError{Message: message, Cause: cause}
}
