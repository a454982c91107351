package parser

import (
	"errors"
	"fmt"
)

// ErrMalformed indicates a fenced code block that cannot be parsed. It is
// fatal for the document: no output is produced.
var ErrMalformed = errors.New("malformed input")

// MalformedError describes where and why a document is malformed.
type MalformedError struct {
	// Line is the 1-based line of the offending start guard.
	Line int

	// Reason describes the problem.
	Reason string
}

// Error returns the error message including the line.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed code block at line %d: %s", e.Line, e.Reason)
}

// Is reports whether target is ErrMalformed.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
