package crontab

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the last-run outcome derived from the sizes of a record's log files
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// SuspendedMarker prefixes a task line that is kept in the table but inactive.
const SuspendedMarker = "#suspended:"

// Record represents one scheduled task line. It holds:
//   - the five schedule fields
//   - the command
//   - optional output and error redirect paths
//   - a trailing comment and the suspended flag
//   - run information gathered from the log files
//
// Records are produced by the parser or by a Builder; the zero value is not a
// valid record.
type Record struct {
	minute     string
	hour       string
	dayOfMonth string
	month      string
	dayOfWeek  string
	command    string
	outputLog  *string
	errorLog   *string
	comment    string
	suspended  bool

	lastRunTime *time.Time
	logSize     *int64
	errorSize   *int64
}

func newRecord() *Record {
	return &Record{
		minute:     "*",
		hour:       "*",
		dayOfMonth: "*",
		month:      "*",
		dayOfWeek:  "*",
	}
}

func (r *Record) Minute() string     { return r.minute }
func (r *Record) Hour() string       { return r.hour }
func (r *Record) DayOfMonth() string { return r.dayOfMonth }
func (r *Record) Month() string      { return r.month }
func (r *Record) DayOfWeek() string  { return r.dayOfWeek }

func (r *Record) SetMinute(v string)     { r.minute = v }
func (r *Record) SetHour(v string)       { r.hour = v }
func (r *Record) SetDayOfMonth(v string) { r.dayOfMonth = v }
func (r *Record) SetMonth(v string)      { r.month = v }
func (r *Record) SetDayOfWeek(v string)  { r.dayOfWeek = v }

// Field returns the value of a schedule column.
func (r *Record) Field(f Field) string {
	switch f {
	case FieldMinute:
		return r.minute
	case FieldHour:
		return r.hour
	case FieldDayOfMonth:
		return r.dayOfMonth
	case FieldMonth:
		return r.month
	case FieldDayOfWeek:
		return r.dayOfWeek
	}
	return ""
}

// SetField replaces the value of a schedule column.
func (r *Record) SetField(f Field, v string) {
	switch f {
	case FieldMinute:
		r.minute = v
	case FieldHour:
		r.hour = v
	case FieldDayOfMonth:
		r.dayOfMonth = v
	case FieldMonth:
		r.month = v
	case FieldDayOfWeek:
		r.dayOfWeek = v
	}
}

func (r *Record) Command() string     { return r.command }
func (r *Record) SetCommand(v string) { r.command = v }

// OutputLog returns the stdout redirect path and whether one is set.
func (r *Record) OutputLog() (string, bool) {
	if r.outputLog == nil {
		return "", false
	}
	return *r.outputLog, true
}

func (r *Record) SetOutputLog(path string) { r.outputLog = &path }
func (r *Record) ClearOutputLog()          { r.outputLog = nil }

// ErrorLog returns the stderr redirect path and whether one is set.
func (r *Record) ErrorLog() (string, bool) {
	if r.errorLog == nil {
		return "", false
	}
	return *r.errorLog, true
}

func (r *Record) SetErrorLog(path string) { r.errorLog = &path }
func (r *Record) ClearErrorLog()          { r.errorLog = nil }

func (r *Record) Comment() string     { return r.comment }
func (r *Record) SetComment(v string) { r.comment = v }

func (r *Record) Suspended() bool { return r.suspended }

// Suspend marks the record inactive. Suspending a suspended record is a no-op.
func (r *Record) Suspend() { r.suspended = true }

// Resume reactivates the record. Resuming an active record is a no-op.
func (r *Record) Resume() { r.suspended = false }

// LastRunTime returns the most recent log modification time, if known.
func (r *Record) LastRunTime() (time.Time, bool) {
	if r.lastRunTime == nil {
		return time.Time{}, false
	}
	return *r.lastRunTime, true
}

func (r *Record) SetLastRunTime(t time.Time) { r.lastRunTime = &t }

// LogSize returns the size of the output log, if it was inspected.
func (r *Record) LogSize() (int64, bool) {
	if r.logSize == nil {
		return 0, false
	}
	return *r.logSize, true
}

func (r *Record) SetLogSize(n int64) { r.logSize = &n }

// ErrorSize returns the size of the error log, if it was inspected.
func (r *Record) ErrorSize() (int64, bool) {
	if r.errorSize == nil {
		return 0, false
	}
	return *r.errorSize, true
}

func (r *Record) SetErrorSize(n int64) { r.errorSize = &n }

// ClearRunInfo forgets everything learned from the log files.
func (r *Record) ClearRunInfo() {
	r.lastRunTime = nil
	r.logSize = nil
	r.errorSize = nil
}

// Status derives the run status from the log sizes. It is recomputed on every
// call so it can never go stale after SetLogSize or SetErrorSize.
func (r *Record) Status() Status {
	switch {
	case r.logSize == nil && r.errorSize == nil:
		return StatusUnknown
	case r.errorSize != nil && *r.errorSize != 0:
		return StatusError
	default:
		return StatusSuccess
	}
}

// Expression joins the five schedule fields with single spaces.
func (r *Record) Expression() string {
	return strings.Join([]string{r.minute, r.hour, r.dayOfMonth, r.month, r.dayOfWeek}, " ")
}

// String serializes the record into one task line:
//
//	[#suspended: ]<expression> <command>[ > out][ 2> err][ #comment]
func (r *Record) String() string {
	var b strings.Builder
	if r.suspended {
		b.WriteString(SuspendedMarker)
		b.WriteByte(' ')
	}
	b.WriteString(r.Expression())
	b.WriteByte(' ')
	b.WriteString(r.command)
	if r.outputLog != nil && *r.outputLog != "" {
		b.WriteString(" > ")
		b.WriteString(*r.outputLog)
	}
	if r.errorLog != nil && *r.errorLog != "" {
		b.WriteString(" 2> ")
		b.WriteString(*r.errorLog)
	}
	if r.comment != "" {
		b.WriteString(" #")
		b.WriteString(r.comment)
	}
	return b.String()
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.outputLog = clonePtr(r.outputLog)
	c.errorLog = clonePtr(r.errorLog)
	c.lastRunTime = clonePtr(r.lastRunTime)
	c.logSize = clonePtr(r.logSize)
	c.errorSize = clonePtr(r.errorSize)
	return &c
}

// Equal compares the fields that are written to the table. Run information
// is not part of the line and is ignored.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.minute == o.minute &&
		r.hour == o.hour &&
		r.dayOfMonth == o.dayOfMonth &&
		r.month == o.month &&
		r.dayOfWeek == o.dayOfWeek &&
		r.command == o.command &&
		equalPtr(r.outputLog, o.outputLog) &&
		equalPtr(r.errorLog, o.errorLog) &&
		r.comment == o.comment &&
		r.suspended == o.suspended
}

type recordJSON struct {
	Minute      string     `json:"minute"`
	Hour        string     `json:"hour"`
	DayOfMonth  string     `json:"day_of_month"`
	Month       string     `json:"month"`
	DayOfWeek   string     `json:"day_of_week"`
	Expression  string     `json:"expression"`
	Command     string     `json:"command"`
	OutputLog   *string    `json:"output_log,omitempty"`
	ErrorLog    *string    `json:"error_log,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	Suspended   bool       `json:"suspended"`
	LastRunTime *time.Time `json:"last_run_time,omitempty"`
	LogSize     *int64     `json:"log_size,omitempty"`
	ErrorSize   *int64     `json:"error_size,omitempty"`
	Status      Status     `json:"status"`
}

// MarshalJSON implements json.Marshaler
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Minute:      r.minute,
		Hour:        r.hour,
		DayOfMonth:  r.dayOfMonth,
		Month:       r.month,
		DayOfWeek:   r.dayOfWeek,
		Expression:  r.Expression(),
		Command:     r.command,
		OutputLog:   r.outputLog,
		ErrorLog:    r.errorLog,
		Comment:     r.comment,
		Suspended:   r.suspended,
		LastRunTime: r.lastRunTime,
		LogSize:     r.logSize,
		ErrorSize:   r.errorSize,
		Status:      r.Status(),
	})
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
