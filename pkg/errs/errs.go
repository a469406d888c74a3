// Package errs defines the error kinds shared across stores, services, and
// the API layer. Callers classify failures with errors.Is against the kind
// sentinels; the API layer maps kinds onto HTTP status codes.
package errs

import (
	"errors"
	"fmt"
)

// Kind sentinels. Wrap them with NotFound, AlreadyExists, Validation, or
// Infrastructure so the original cause stays reachable via errors.Unwrap.
var (
	// ErrNotFound indicates a direct entity lookup by id found nothing, or
	// found only a soft-deleted record. Resolution queries never return it;
	// an empty result set is a valid answer there.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a create collided with an active record
	// holding the same unique key.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a malformed request, such as a granular
	// permission entry without an id.
	ErrValidation = errors.New("validation failed")

	// ErrInfrastructure indicates an underlying store read or write failed.
	// These propagate unchanged through the resolver; retry policy belongs
	// to the caller.
	ErrInfrastructure = errors.New("infrastructure failure")
)

type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }

// NotFound returns a NotFound-kind error.
func NotFound(format string, args ...interface{}) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// AlreadyExists returns an AlreadyExists-kind error.
func AlreadyExists(format string, args ...interface{}) error {
	return &kindError{kind: ErrAlreadyExists, msg: fmt.Sprintf(format, args...)}
}

// Validation returns a Validation-kind error.
func Validation(format string, args ...interface{}) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Infrastructure wraps a store failure. The cause remains reachable through
// errors.Unwrap.
func Infrastructure(cause error, format string, args ...interface{}) error {
	return &kindError{kind: ErrInfrastructure, msg: fmt.Sprintf(format, args...), cause: cause}
}
