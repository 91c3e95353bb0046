package rawsql

import (
	"fmt"
	"strings"
)

// StateError indicates an operation was attempted in a state that does not
// permit it - such as freezing a mapping that still has columns with no
// property name
type StateError struct {
	msg string
}

func (e *StateError) Error() string {
	return e.msg
}

func newStateError(format string, args ...any) *StateError {
	return &StateError{msg: fmt.Sprintf(format, args...)}
}

// LookupError indicates a dbColumn was not found among the known columns of a
// parsed mapping
//
// the error message enumerates the known columns (in insertion order) to make
// misconfiguration diagnosable at definition time
type LookupError struct {
	// DbColumn is the column that was not found
	DbColumn string
	// Known is the known dbColumn keys, in insertion order
	Known []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("db column %q not found in mapping - expecting one of [%s]", e.DbColumn, strings.Join(e.Known, ", "))
}

// InvariantError indicates an internal invariant was broken - such as asking
// for the query hash of a mapping whose hash was never computed
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return e.msg
}

func newInvariantError(format string, args ...any) *InvariantError {
	return &InvariantError{msg: fmt.Sprintf(format, args...)}
}
