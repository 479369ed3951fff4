package fetch

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/pagination-go/pkg/errs"
)

// Tag is the kind tag handed to onError alongside a failed page request.
type Tag string

const (
	// TagFetch represents a failed standard transport request
	// (network error, non-2xx status, undecodable body, bad payload).
	TagFetch Tag = "fetchError"

	// TagJSONPTimeout represents a JSONP request whose callback never ran in time.
	TagJSONPTimeout Tag = "jsonpTimeout"

	// TagJSONPError represents a JSONP script that failed to load or a bad payload.
	TagJSONPError Tag = "jsonpError"
)

// Error is a failed remote page request.
type Error struct {
	Tag        Tag
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Tag, msg, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Tag, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match errs.ErrFetch.
func (e *Error) Is(target error) bool {
	return target == errs.ErrFetch
}

// ErrorKind classifies e for errs.KindOf.
func (e *Error) ErrorKind() errs.Kind {
	return errs.KindFetch
}

// TagOf returns the tag of the first *Error in err's chain, or TagFetch.
func TagOf(err error) Tag {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Tag
	}
	return TagFetch
}
