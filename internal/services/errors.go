package services

import (
	"errors"
	"fmt"

	"github.com/sjperalta/dealer-ledger/internal/database"
	"gorm.io/gorm"
)

// Common service errors
var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("record already exists")
	ErrStorage            = errors.New("storage unavailable")
	ErrRender             = errors.New("document rendering failed")
	ErrOverpayment        = fmt.Errorf("%w: payment exceeds remaining amount", ErrValidation)
	ErrForbidden          = errors.New("operation not permitted")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("account is inactive")
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsRetryable reports whether the failure may succeed on retry; state may
// be inconsistent until it does.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrRender)
}

// UserMessage turns an error into operator-facing text
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorage):
		return "The operation could not be completed because storage is unavailable. Please retry."
	case errors.Is(err, ErrRender):
		return "The record was saved but its document could not be generated. Please retry the rendering."
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveUser):
		return err.Error() + ". Nothing was changed."
	default:
		return "Unexpected error: " + err.Error()
	}
}

// classify maps a persistence error onto the service taxonomy. Errors
// that are already classified pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrStorage),
		errors.Is(err, ErrRender), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveUser):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}
}
