package query

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is wrapped by every error returned from Parse.
var ErrInvalidQuery = errors.New("invalid query")

// Error describes a rejected query string parameter.
type Error struct {
	Param  string
	Value  string
	Reason string
}

// Error implements the error interface. The message is safe to show to
// API clients.
func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Invalid %s: %s", e.Param, e.Value)
	}
	return fmt.Sprintf("Invalid %s: %s (%s)", e.Param, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidQuery so callers can use errors.Is.
func (e *Error) Unwrap() error {
	return ErrInvalidQuery
}

func invalid(param, value, reason string) error {
	return &Error{Param: param, Value: value, Reason: reason}
}
