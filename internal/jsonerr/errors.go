// Package jsonerr holds the error values shared by both parsing stages.
package jsonerr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUTF8     = errors.New("invalid UTF-8")
	ErrMalformed       = errors.New("malformed JSON")
	ErrDepth           = errors.New("depth limit exceeded")
	ErrCapacity        = errors.New("capacity exceeded")
	ErrAllocation      = errors.New("allocation failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmpty           = errors.New("empty input")
)

// Error carries the stage that failed and, when known, the byte offset into
// the input that triggered it.
type Error struct {
	Op     string
	Offset int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("simdjson %s: %s at offset %d", e.Op, msg, e.Offset)
	}
	return fmt.Sprintf("simdjson %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Op and cause, or the cause itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Op == t.Op && e.Err == t.Err
	}
	return errors.Is(e.Err, target)
}

// New builds an *Error.
func New(op string, offset int, err error, msg string) *Error {
	return &Error{Op: op, Offset: offset, Msg: msg, Err: err}
}

// Newf builds an *Error with a formatted message.
func Newf(op string, offset int, err error, format string, args ...any) *Error {
	return &Error{Op: op, Offset: offset, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Offset extracts the byte offset from err, or -1.
func Offset(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Offset
	}
	return -1
}
