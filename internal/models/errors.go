package models

import "errors"

var (
	// ErrValidation indicates a missing or malformed input field.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail indicates an account already exists for the email address.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials indicates the username/password pair did not authenticate.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates the request carries no valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the requested resource does not exist for the caller.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedMediaType indicates an upload with a content type other than JPEG or PNG.
	ErrUnsupportedMediaType = errors.New("only JPEG and PNG files are allowed")
)

// ValidationError describes which input field was rejected. It matches ErrValidation
// under errors.Is so callers can classify it without a type assertion.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError constructs a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
