package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// statuses; anything unrecognized is reported as an internal error.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrNameInUse       = errors.New("username already in use")
	ErrEmailInUse      = errors.New("email already in use")
	ErrSlugInUse       = errors.New("slug already in use")
	ErrDuplicateReview = errors.New("duplicate review")
	ErrInvalidCode     = errors.New("confirmation code is invalid")
	ErrInvalidToken    = errors.New("invalid token")
	ErrForbidden       = errors.New("insufficient permissions")
)

// ValidationError carries the offending field so the caller can correct
// the request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
