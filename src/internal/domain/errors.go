package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalid     = errors.New("invalid")
	// ErrUnsupported marks a well-formed value outside an accepted set.
	ErrUnsupported = errors.New("unsupported")
)

// Error carries a user-facing message and one of the sentinel kinds above,
// so callers can branch with errors.Is while still showing the message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalid, Message: fmt.Sprintf(format, args...)}
}

func Unsupportedf(format string, args ...any) error {
	return &Error{Kind: ErrUnsupported, Message: fmt.Sprintf(format, args...)}
}
