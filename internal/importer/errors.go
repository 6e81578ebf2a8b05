package importer

import (
	"errors"
	"fmt"
)

// ErrFormat matches every FormatError via errors.Is
var ErrFormat = errors.New("invalid question format")

// FormatError rejects an import as a whole. Index is the offending question
// position, or -1 when the problem is with the top-level value.
type FormatError struct {
	Index  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
	}
	return fmt.Sprintf("%s: question %d: %s", ErrFormat, e.Index+1, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErr(index int, format string, args ...interface{}) *FormatError {
	return &FormatError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
