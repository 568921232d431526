package crontab

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldGrammar is returned when a schedule field does not satisfy its grammar
	ErrFieldGrammar = errors.New("field grammar violation")

	// ErrEmptyCommand is returned when a task line has no command after the schedule
	ErrEmptyCommand = errors.New("empty command")

	// ErrFieldCount is returned when a line does not start with five schedule fields
	ErrFieldCount = errors.New("expected five schedule fields")

	// ErrEnvironmentLine is returned for NAME=value assignments, which are not task lines
	ErrEnvironmentLine = errors.New("environment assignment is not a task line")

	// ErrNotTaskLine is returned when a blank or comment line is parsed as a task
	ErrNotTaskLine = errors.New("not a task line")

	// ErrUnparseableLine is the aggregate failure for a line that cannot become a record
	ErrUnparseableLine = errors.New("unparseable line")

	// ErrIndexOutOfRange is returned when a table position does not exist
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidRecord is returned when a builder cannot produce a well-formed record
	ErrInvalidRecord = errors.New("invalid record")
)

// FieldError reports which schedule field rejected which token.
type FieldError struct {
	Field Field
	Token string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s field %q", e.Field, e.Token)
}

func (e *FieldError) Unwrap() error {
	return ErrFieldGrammar
}

// LineError describes a line that could not be turned into a record.
// Line is 1-based; it is zero when the line was parsed on its own.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrUnparseableLine, e.Err)
}

// Reason returns the human readable cause without the line prefix.
func (e *LineError) Reason() string {
	return e.Err.Error()
}

func (e *LineError) Unwrap() []error {
	return []error{ErrUnparseableLine, e.Err}
}

func indexError(index, length int) error {
	return fmt.Errorf("%w: %d (table has %d records)", ErrIndexOutOfRange, index, length)
}
