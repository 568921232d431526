package crontab

import (
	"errors"
	"fmt"
	"strings"
)

// Builder assembles a Record and validates it as a whole. Unset schedule
// fields default to "*".
type Builder struct {
	rec  *Record
	errs []error
}

// NewBuilder creates a builder for a new record
func NewBuilder() *Builder {
	return &Builder{rec: newRecord()}
}

// FromRecord starts a builder from a copy of an existing record.
func FromRecord(r *Record) *Builder {
	return &Builder{rec: r.Clone()}
}

func (b *Builder) Minute(v string) *Builder     { return b.field(FieldMinute, v) }
func (b *Builder) Hour(v string) *Builder       { return b.field(FieldHour, v) }
func (b *Builder) DayOfMonth(v string) *Builder { return b.field(FieldDayOfMonth, v) }
func (b *Builder) Month(v string) *Builder      { return b.field(FieldMonth, v) }
func (b *Builder) DayOfWeek(v string) *Builder  { return b.field(FieldDayOfWeek, v) }

func (b *Builder) field(f Field, v string) *Builder {
	b.rec.SetField(f, v)
	return b
}

// Schedule sets all five fields from a space separated expression.
func (b *Builder) Schedule(expr string) *Builder {
	parts := strings.Fields(expr)
	if len(parts) != len(Fields) {
		b.errs = append(b.errs, fmt.Errorf("%w: schedule %q has %d fields", ErrFieldCount, expr, len(parts)))
		return b
	}
	for i, f := range Fields {
		b.rec.SetField(f, parts[i])
	}
	return b
}

func (b *Builder) Command(v string) *Builder {
	b.rec.command = v
	return b
}

func (b *Builder) OutputLog(path string) *Builder {
	b.rec.SetOutputLog(path)
	return b
}

func (b *Builder) ErrorLog(path string) *Builder {
	b.rec.SetErrorLog(path)
	return b
}

func (b *Builder) Comment(v string) *Builder {
	b.rec.comment = v
	return b
}

func (b *Builder) Suspended(v bool) *Builder {
	b.rec.suspended = v
	return b
}

// Build validates the collected values and returns a new record. The builder
// can be reused; each call returns an independent copy.
func (b *Builder) Build() (*Record, error) {
	errs := append([]error(nil), b.errs...)
	errs = append(errs, ValidateRecord(b.rec))
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return b.rec.Clone(), nil
}

// ValidateRecord checks that a record serializes to a line the parser reads
// back field for field.
func ValidateRecord(r *Record) error {
	var errs []error
	for _, f := range Fields {
		if err := f.Validate(r.Field(f)); err != nil {
			errs = append(errs, err)
		}
	}

	cmd := strings.TrimSpace(r.command)
	switch {
	case cmd == "":
		errs = append(errs, ErrEmptyCommand)
	case cmd != r.command:
		errs = append(errs, errors.New("command has surrounding whitespace"))
	case strings.ContainsAny(r.command, "\r\n"):
		errs = append(errs, errors.New("command spans multiple lines"))
	}

	if p, ok := r.OutputLog(); ok && !validPath(p) {
		errs = append(errs, fmt.Errorf("invalid output log path %q", p))
	}
	if p, ok := r.ErrorLog(); ok && !validPath(p) {
		errs = append(errs, fmt.Errorf("invalid error log path %q", p))
	}

	if strings.ContainsAny(r.comment, "\r\n") {
		errs = append(errs, errors.New("comment spans multiple lines"))
	}
	if strings.HasPrefix(r.comment, "suspended") {
		errs = append(errs, errors.New(`comment may not start with "suspended"`))
	}
	if r.comment != strings.TrimRight(r.comment, " \t") {
		errs = append(errs, errors.New("comment has trailing whitespace"))
	}

	if len(errs) == 0 {
		line := r.String()
		if parsed, err := ParseLine(line); err != nil || !parsed.Equal(r) {
			errs = append(errs, fmt.Errorf("line %q does not read back unchanged", line))
		}
	}

	return errors.Join(errs...)
}

func validPath(p string) bool {
	return p != "" && !strings.ContainsAny(p, " \t\r\n")
}
