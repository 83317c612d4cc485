// Package apperr defines the application error taxonomy shared by services and
// HTTP handlers. Each Kind maps to one HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindConfig     Kind = "config"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
	KindStorage    Kind = "storage"
	KindInternal   Kind = "internal"
)

// Error is an application error with a user-facing message and an optional
// wrapped cause kept for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Missing lists unset environment variable names (KindConfig).
	Missing []string
	// Details carries route specific fields merged into the JSON body.
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status for the error kind.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// With attaches a detail field and returns the same error.
func (e *Error) With(key string, val any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = val
	return e
}

// MissingEnv builds a configuration error listing the unset variables.
func MissingEnv(names ...string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: "Missing environment variables: " + strings.Join(names, ", "),
		Missing: names,
	}
}

// Validation builds a 400 error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Validationf builds a 400 error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a 409 error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Upstream wraps a failed vendor call.
func Upstream(vendor string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: vendor + " request failed", Err: err}
}

// Storage wraps a failed database write or read.
func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// As extracts an *Error from err. Errors outside the taxonomy come back as
// KindInternal wrapping the original error.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
