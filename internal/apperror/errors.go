// Package apperror carries the error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindCapacity
	KindValidation
	KindConflict
	KindUnauthorized
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindCapacity:
		return "capacity"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified failure. Reason is a stable machine code, Message is
// meant for humans.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg}
}

func NotFound(reason, msg string) *Error   { return newError(KindNotFound, reason, msg) }
func Forbidden(reason, msg string) *Error  { return newError(KindForbidden, reason, msg) }
func Capacity(reason, msg string) *Error   { return newError(KindCapacity, reason, msg) }
func Validation(reason, msg string) *Error { return newError(KindValidation, reason, msg) }
func Conflict(reason, msg string) *Error   { return newError(KindConflict, reason, msg) }
func Unavailable(reason, msg string) *Error {
	return newError(KindUnavailable, reason, msg)
}
func Unauthorized(reason, msg string) *Error {
	return newError(KindUnauthorized, reason, msg)
}

// Internal wraps an unexpected failure. The message never reaches clients.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Reason: "internal_error", Message: msg, Err: err}
}

// Wrap attaches a classification to err.
func Wrap(err error, kind Kind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind and reason.
func Is(err error, kind Kind, reason string) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind && appErr.Reason == reason
}
