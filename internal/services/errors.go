package services

import (
	"errors"

	"github.com/SAP-F-2025/profile-service/internal/validator"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrUserNotFound      = errors.New("user not found")
	ErrValidationFailed  = errors.New("validation failed")
	ErrSignInUnavailable = errors.New("sign-in is not configured")
)

type ValidationErrors = validator.ValidationErrors

// ValidationFailure matches both ErrValidationFailed and the field errors it carries
type ValidationFailure struct {
	Errors ValidationErrors
}

func NewValidationFailure(errs ValidationErrors) *ValidationFailure {
	return &ValidationFailure{Errors: errs}
}

func (e *ValidationFailure) Error() string {
	return e.Errors.Error()
}

func (e *ValidationFailure) Unwrap() []error {
	return []error{ErrValidationFailed, e.Errors}
}
