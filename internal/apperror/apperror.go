// Package apperror defines the application's error taxonomy.
//
// The storage and service layers return these instead of raw database errors
// so that HTTP handlers can map outcomes to status codes with errors.Is,
// without knowing anything about SQL.
//
// Taxonomy:
//   - ErrNotFound          → a user, item, gift or task doesn't exist (404)
//   - ErrValidation        → malformed or missing input (400)
//   - ErrConflict          → a precondition was invalidated by a concurrent or
//     prior operation: item already owned, item not owned
//     by the sender, gift already opened, task already
//     completed (409)
//   - ErrInsufficientFunds → buyer balance below item price (400)
//   - ErrForbidden         → the caller may not act on this resource (403)
//
// Anything else that escapes the service layer is an infrastructure failure
// and maps to 500 with the details kept out of the response.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrForbidden         = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel, checked with errors.Is
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict signals that a transactional precondition no longer holds — the
// caller raced another operation (or repeated one) and lost. The message
// states which precondition failed.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// InsufficientFunds signals a business-rule rejection: the conditional balance
// debit matched zero rows because the balance was below the price at write
// time. Nothing was committed.
func InsufficientFunds() *AppError {
	return &AppError{
		Err:     ErrInsufficientFunds,
		Message: "insufficient funds",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
