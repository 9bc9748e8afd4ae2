package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrBadCredential = errors.New("bad credential")

	// ErrConsistency marks a partial failure of a multi-part write, e.g.
	// a repost toggle that updated the reposters set but lost the copy.
	// Unlike the kinds above it must never be silently swallowed — the
	// service layer logs it at error level before returning.
	ErrConsistency = errors.New("consistency fault")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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

// DuplicateUser indicates a registration attempt with a username that is
// already taken.
func DuplicateUser(username string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("username %q is already taken", username),
		Field:   "username",
	}
}

// BadCredential indicates a failed password comparison. Handlers must map
// this and ErrNotFound to the same user-visible response so login failures
// don't reveal whether the username exists.
func BadCredential() *AppError {
	return &AppError{
		Err:     ErrBadCredential,
		Message: "invalid username or password",
	}
}

// Consistency wraps a consistency fault with context about which
// documents diverged.
func Consistency(message string) *AppError {
	return &AppError{
		Err:     ErrConsistency,
		Message: message,
	}
}
