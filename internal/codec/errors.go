package codec

import (
	"errors"
	"fmt"
)

// ErrFormat matches every *FormatError via errors.Is.
var ErrFormat = errors.New("invalid interchange format")

// FormatError reports a malformed import payload.
// Index is the offending element, or -1 for the document as a whole.
type FormatError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	var where string
	switch {
	case e.Index < 0:
		where = "document"
	case e.Field != "":
		where = fmt.Sprintf("task %d: %s", e.Index, e.Field)
	default:
		where = fmt.Sprintf("task %d", e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("format error: %s: %s: %v", where, e.Reason, e.Err)
	}
	return fmt.Sprintf("format error: %s: %s", where, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
