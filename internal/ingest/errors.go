package ingest

import (
	"errors"
	"fmt"
)

// ErrEmptyTimestamp is returned by ParseTimestamp for blank input.
var ErrEmptyTimestamp = errors.New("timestamp is empty")

// DecodeError reports an input line that could not be turned into an entry.
type DecodeError struct {
	Line  int
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("field %q: %s", e.Field, msg)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
