// Package apperr defines the application error kinds shared by every layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error. The HTTP layer maps kinds to status codes.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindBadRequest
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad request"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Kind sentinels for use with errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrBadRequest   = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict"}
)

// Error is an error tagged with a Kind. Details holds per-field messages for
// validation failures.
type Error struct {
	Kind    Kind
	Message string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return e.Message + ": " + strings.Join(e.Details, "; ")
	}
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so errors.Is
// matches the sentinels above against any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err. Untagged errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Forbidden returns a KindForbidden error.
func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

// BadRequest returns a KindBadRequest error.
func BadRequest(format string, args ...any) *Error {
	return newf(KindBadRequest, format, args...)
}

// Invalid returns a KindBadRequest error carrying one message per violation.
func Invalid(details []string) *Error {
	return &Error{Kind: KindBadRequest, Message: "invalid request", Details: details}
}

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

// Conflict returns a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Internal returns a KindInternal error. It is used when an operation on a
// resource the caller already holds affects no rows.
func Internal(format string, args ...any) *Error {
	return newf(KindInternal, format, args...)
}

func newf(kind Kind, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg}
}
