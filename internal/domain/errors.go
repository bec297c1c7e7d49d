package domain

import (
	"errors"
	"fmt"
)

// Error kinds, compared with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrUpstream   = errors.New("upstream failure")
	ErrConflict   = errors.New("conflict")
)

// Error carries a user-facing message and, for lookups, the valid
// alternatives the caller could have asked for.
type Error struct {
	Kind         error
	Message      string
	Alternatives []string
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func NotFound(msg string, alternatives ...string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg, Alternatives: alternatives}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Upstream(msg string, err error) *Error {
	return &Error{Kind: ErrUpstream, Message: msg, Err: err}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts the *Error from a chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
