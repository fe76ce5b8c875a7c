// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBadRequest indicates the request cannot be served in the current state.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Public is an error whose message is safe to hand back to remote callers.
// Kind carries the sentinel used for status mapping.
type Public struct {
	Kind    error
	Message string
}

// Error returns the public message.
func (e *Public) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *Public) Unwrap() error {
	return e.Kind
}

// NewPublic creates an error of the given kind whose message may cross the wire.
func NewPublic(kind error, message string) error {
	return &Public{Kind: kind, Message: message}
}

// PublicMessage returns the curated message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var pub *Public
	if errors.As(err, &pub) {
		return pub.Message, true
	}
	return "", false
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
