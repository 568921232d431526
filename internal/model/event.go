package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies what happened to a table
type EventKind string

const (
	EventTableLoaded   EventKind = "table.loaded"
	EventTableSaved    EventKind = "table.saved"
	EventTableRestored EventKind = "table.restored"
	EventRecordFailing EventKind = "record.failing"
)

// EventSeverity represents the severity level of an event
type EventSeverity string

const (
	EventSeverityInfo    EventSeverity = "info"
	EventSeverityWarning EventSeverity = "warning"
	EventSeverityError   EventSeverity = "error"
)

// TableEvent describes a change to a crontab or an alert about one of its
// records.
type TableEvent struct {
	ID         string        `json:"id"`
	Kind       EventKind     `json:"kind"`
	Severity   EventSeverity `json:"severity"`
	Source     string        `json:"source"`
	Records    int           `json:"records"`
	Warnings   int           `json:"warnings,omitempty"`
	SnapshotID string        `json:"snapshot_id,omitempty"`
	Index      *int          `json:"index,omitempty"`
	Line       string        `json:"line,omitempty"`
	Message    string        `json:"message,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewTableEvent creates a new event with a fresh ID. Severity defaults to
// info, record.failing is an error.
func NewTableEvent(kind EventKind, source string) *TableEvent {
	severity := EventSeverityInfo
	if kind == EventRecordFailing {
		severity = EventSeverityError
	}
	return &TableEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Severity:  severity,
		Source:    source,
		CreatedAt: time.Now(),
	}
}

// ForRecord attaches a record position and its serialized line
func (e *TableEvent) ForRecord(index int, line string) *TableEvent {
	e.Index = &index
	e.Line = line
	return e
}
