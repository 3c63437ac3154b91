// Package apperr defines the error categories shared by all components.
// Handlers map categories to HTTP statuses; everything below the HTTP layer
// wraps causes with one of the constructors here.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable error category.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindAIService  Kind = "ai_service"
	KindDatabase   Kind = "database"
)

// Error carries a category, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports invalid user input.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent resource.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports an operation the caller is not allowed to perform.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// AIService wraps a failure from the AI boundary. The cause is preserved so
// callers can distinguish timeouts and rate limits via errors.Is.
func AIService(err error, format string, args ...any) error {
	return &Error{Kind: KindAIService, Message: fmt.Sprintf(format, args...), Err: err}
}

// Database wraps a storage failure.
func Database(err error, format string, args ...any) error {
	return &Error{Kind: KindDatabase, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the category of err, or an empty Kind if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err belongs to the given category.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the human-readable message of err, falling back to
// err.Error() for uncategorized errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
