package service

import (
	"errors"
	"fmt"

	"go-warehouse-ws/internal/repository"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// so callers match with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidState         = errors.New("invalid state")
	ErrForbidden            = errors.New("forbidden")
	ErrReferentialIntegrity = errors.New("referential integrity")
	ErrUnauthorized         = errors.New("unauthorized")

	// ErrSizeNotFound is a NotFound for an unknown (item, size label) pair.
	ErrSizeNotFound = fmt.Errorf("size %w", ErrNotFound)
)

// Error carries a human readable message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func notFoundf(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func insufficientf(format string, args ...interface{}) error {
	return newError(ErrInsufficientStock, format, args...)
}

func invalidStatef(format string, args ...interface{}) error {
	return newError(ErrInvalidState, format, args...)
}

func forbiddenf(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

// repoErr maps repository errors to service errors. what names the record
// ("Item", "Category") for the not-found message.
func repoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("%s not found", what)
	case errors.Is(err, repository.ErrDuplicate):
		return validationf("%s already exists", what)
	case errors.Is(err, repository.ErrStockConflict):
		return insufficientf("Insufficient stock")
	}
	return err
}
