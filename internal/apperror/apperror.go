// Package apperror classifies failures so that every layer can tell a
// client-fixable error from an internal one without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the classification carried by an Error
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindConflict        Kind = "CONFLICT"
	KindInternal        Kind = "INTERNAL"
)

// GenericMessage is what callers see for any internal failure
const GenericMessage = "operation failed"

// Error is a classified application error. The message is safe to show
// to callers; the wrapped error is for logs only.
type Error struct {
	kind    Kind
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

// Kind returns the classification
func (e *Error) Kind() Kind {
	return e.kind
}

// Message returns the caller-facing message
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// Forbidden reports a missing link or an insufficient role
func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

// NotFound reports an absent or soft-deleted entity
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Unauthenticated reports a missing or invalid credential
func Unauthenticated(format string, args ...any) *Error {
	return newf(KindUnauthenticated, format, args...)
}

// Conflict reports a uniqueness violation the caller can resolve
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Internal wraps an unexpected failure behind a public message
func Internal(message string, err error) *Error {
	return &Error{kind: KindInternal, message: message, err: err}
}

// Boundary is applied where a public operation returns. Classified errors
// pass through unchanged. Anything else, including an internal error raised
// by a nested operation, becomes an internal error carrying message.
func Boundary(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.kind != KindInternal {
		return err
	}
	if appErr != nil && appErr.message == message {
		return err
	}
	return Internal(message, err)
}

// KindOf returns the classification of err, INTERNAL when unclassified
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code of its classification
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to a caller
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return GenericMessage
	}
	if appErr.kind == KindInternal && appErr.message == "" {
		return GenericMessage
	}
	return appErr.message
}
