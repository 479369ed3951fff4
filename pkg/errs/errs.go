// Package errs defines the error kinds raised by the pagination packages.
package errs

import (
	"fmt"
)

// Kind classifies a pagination error.
type Kind string

const (
	// KindUsage represents a bad call shape (missing container, unknown command).
	KindUsage Kind = "usage"

	// KindValidation represents options rejected by the parameter checker.
	KindValidation Kind = "validation"

	// KindLocator represents a path that could not be resolved against a response or bag.
	KindLocator Kind = "locator"

	// KindDataSource represents a data source of an unsupported shape.
	KindDataSource Kind = "data_source"

	// KindState represents an operation on a container with no live instance.
	KindState Kind = "state"

	// KindFetch represents a failed remote page request.
	KindFetch Kind = "fetch"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrUsage      = &Error{Kind: KindUsage}
	ErrValidation = &Error{Kind: KindValidation}
	ErrLocator    = &Error{Kind: KindLocator}
	ErrDataSource = &Error{Kind: KindDataSource}
	ErrState      = &Error{Kind: KindState}
	ErrFetch      = &Error{Kind: KindFetch}
)

// Error is a classified pagination error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pagination: %s: %v", e.Message, e.Err)
	}
	return "pagination: " + e.Message
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Usage returns a KindUsage error.
func Usage(format string, args ...any) *Error {
	return newError(KindUsage, format, args...)
}

// Validation returns a KindValidation error.
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// Locator returns a KindLocator error.
func Locator(format string, args ...any) *Error {
	return newError(KindLocator, format, args...)
}

// DataSource returns a KindDataSource error.
func DataSource(format string, args ...any) *Error {
	return newError(KindDataSource, format, args...)
}

// State returns a KindState error.
func State(format string, args ...any) *Error {
	return newError(KindState, format, args...)
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		if k, ok := err.(interface{ ErrorKind() Kind }); ok {
			return k.ErrorKind()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
