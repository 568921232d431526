// Package manager runs the load, edit and save cycle of one crontab.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/t77yq/cronmgr/internal/crontab"
	"github.com/t77yq/cronmgr/internal/inspect"
	"github.com/t77yq/cronmgr/internal/model"
	"github.com/t77yq/cronmgr/internal/service"
	"github.com/t77yq/cronmgr/internal/storage"
	"github.com/t77yq/cronmgr/internal/store"
)

// Options wires the optional collaborators of a Manager. Nil fields fall back
// to a strict parser, no history and no events.
type Options struct {
	Parser    *crontab.Parser
	Inspector *inspect.Inspector
	History   storage.TableHistoryStorage
	Events    service.EventPublisher
}

// SaveResult describes a completed write
type SaveResult struct {
	SnapshotID string             `json:"snapshot_id,omitempty"`
	Records    int                `json:"records"`
	Write      *store.WriteResult `json:"write,omitempty"`
}

// Manager holds the working copy of one table. It is safe for concurrent use.
type Manager struct {
	logger    *zap.Logger
	store     store.TableStore
	parser    *crontab.Parser
	inspector *inspect.Inspector
	history   storage.TableHistoryStorage
	events    service.EventPublisher

	mu       sync.Mutex
	loaded   bool
	raw      string
	table    *crontab.Table
	warnings []*crontab.LineError
}

// New creates a new manager for the table behind st
func New(st store.TableStore, logger *zap.Logger, opts Options) *Manager {
	if opts.Parser == nil {
		opts.Parser = crontab.NewParser(crontab.ParseOptions{})
	}
	if opts.Inspector == nil {
		opts.Inspector = inspect.NewInspector(logger)
	}
	if opts.Events == nil {
		opts.Events = service.NopPublisher{}
	}
	return &Manager{
		logger:    logger.Named("manager"),
		store:     st,
		parser:    opts.Parser,
		inspector: opts.Inspector,
		history:   opts.History,
		events:    opts.Events,
		table:     crontab.NewTable(),
	}
}

// Load reads the table from the store, replacing any unsaved edits
func (m *Manager) Load(ctx context.Context) error {
	raw, err := m.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}

	m.mu.Lock()
	failing := m.setRaw(raw)
	event := m.newEvent(model.EventTableLoaded)
	lines := m.failingLines(failing)
	m.mu.Unlock()

	m.logger.Info("Table loaded",
		zap.String("source", m.store.String()),
		zap.Int("records", event.Records),
		zap.Int("warnings", event.Warnings))

	m.publish(ctx, event)
	m.publishFailing(ctx, lines)
	return nil
}

// setRaw parses raw into the working table. Callers hold mu.
func (m *Manager) setRaw(raw string) []int {
	table, warnings := m.parser.ParseTable(raw)
	for _, w := range warnings {
		m.logger.Warn("Skipping unparseable line",
			zap.Int("line", w.Line),
			zap.String("raw", w.Raw),
			zap.String("reason", w.Reason()))
	}

	m.raw = raw
	m.table = table
	m.warnings = warnings
	m.loaded = true
	return m.inspector.AnnotateAll(table.Records())
}

func (m *Manager) failingLines(indexes []int) map[int]string {
	lines := make(map[int]string, len(indexes))
	for _, i := range indexes {
		if rec, err := m.table.At(i); err == nil {
			lines[i] = rec.String()
		}
	}
	return lines
}

// Records returns copies of the records in table order
func (m *Manager) Records() ([]*crontab.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, ErrNotLoaded
	}
	records := m.table.Records()
	for i, r := range records {
		records[i] = r.Clone()
	}
	return records, nil
}

// Table returns a copy of the working table
func (m *Manager) Table() (*crontab.Table, error) {
	records, err := m.Records()
	if err != nil {
		return nil, err
	}
	return crontab.NewTable(records...), nil
}

// Warnings returns the lines skipped by the last load
func (m *Manager) Warnings() []*crontab.LineError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*crontab.LineError(nil), m.warnings...)
}

// Raw returns the table text as last read or written
func (m *Manager) Raw() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}

// Add validates rec and appends a copy to the working table
func (m *Manager) Add(rec *crontab.Record) error {
	if err := crontab.ValidateRecord(rec); err != nil {
		return fmt.Errorf("%w: %w", crontab.ErrInvalidRecord, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	added := rec.Clone()
	m.inspector.Annotate(added)
	m.table.Add(added)
	return nil
}

// Remove deletes the record at index from the working table
func (m *Manager) Remove(index int) (*crontab.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, ErrNotLoaded
	}
	return m.table.Remove(index)
}

// Suspend comments out the record at index
func (m *Manager) Suspend(index int) error {
	return m.update(index, (*crontab.Record).Suspend)
}

// Resume reactivates the record at index
func (m *Manager) Resume(index int) error {
	return m.update(index, (*crontab.Record).Resume)
}

func (m *Manager) update(index int, fn func(*crontab.Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	rec, err := m.table.At(index)
	if err != nil {
		return err
	}
	fn(rec)
	return nil
}

// Discard drops unsaved edits by parsing the last known text again
func (m *Manager) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	m.setRaw(m.raw)
	return nil
}

// Lint reports advisory findings for the working table
func (m *Manager) Lint() ([]crontab.Finding, error) {
	records, err := m.Records()
	if err != nil {
		return nil, err
	}
	findings := crontab.Lint(records)
	for _, f := range findings {
		m.logger.Debug("Lint finding", zap.String("finding", f.String()))
	}
	return findings, nil
}

// Save writes the working table to the store. Lines that are not task
// records (comments, environment assignments, unparseable lines) are not part
// of the table and are dropped; the replaced text is kept in history.
func (m *Manager) Save(ctx context.Context) (*SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, ErrNotLoaded
	}

	if len(m.warnings) > 0 {
		m.logger.Warn("Saving drops lines that could not be parsed",
			zap.Int("lines", len(m.warnings)))
	}

	return m.write(ctx, m.table.String(), storage.SnapshotActionSave, model.EventTableSaved)
}

// Restore writes back the text a snapshot replaced
func (m *Manager) Restore(ctx context.Context, snapshotID string) (*SaveResult, error) {
	if m.history == nil {
		return nil, ErrHistoryDisabled
	}

	snapshot, err := m.history.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, ErrNotLoaded
	}
	return m.write(ctx, snapshot.Previous, storage.SnapshotActionRestore, model.EventTableRestored)
}

// write installs text and records it. Callers hold mu.
func (m *Manager) write(ctx context.Context, text string, action storage.SnapshotAction, kind model.EventKind) (*SaveResult, error) {
	table, warnings := m.parser.ParseTable(text)
	snapshot := &storage.TableSnapshot{
		ID:        uuid.NewString(),
		Source:    m.store.String(),
		Action:    action,
		Previous:  m.raw,
		Current:   text,
		Records:   table.Len(),
		Warnings:  len(warnings),
		CreatedAt: time.Now(),
	}

	result, err := m.store.Write(ctx, text)
	if result != nil {
		snapshot.Output = result.Output
	}
	if err != nil {
		snapshot.Error = err.Error()
	}
	m.recordSnapshot(ctx, snapshot)

	if err != nil {
		m.logger.Error("Failed to write table",
			zap.String("source", snapshot.Source),
			zap.Error(err))
		return nil, fmt.Errorf("failed to write table: %w", err)
	}

	failing := m.setRaw(text)

	m.logger.Info("Table written",
		zap.String("source", snapshot.Source),
		zap.String("action", string(action)),
		zap.Int("records", snapshot.Records))

	event := m.newEvent(kind)
	if m.history != nil {
		event.SnapshotID = snapshot.ID
	}
	m.publish(ctx, event)
	m.publishFailing(ctx, m.failingLines(failing))

	res := &SaveResult{Records: snapshot.Records, Write: result}
	if m.history != nil {
		res.SnapshotID = snapshot.ID
	}
	return res, nil
}

func (m *Manager) recordSnapshot(ctx context.Context, snapshot *storage.TableSnapshot) {
	if m.history == nil {
		return
	}
	if err := m.history.Store(ctx, snapshot); err != nil {
		m.logger.Error("Failed to store snapshot",
			zap.String("snapshot_id", snapshot.ID),
			zap.Error(err))
	}
}

// newEvent builds an event from the current state. Callers hold mu.
func (m *Manager) newEvent(kind model.EventKind) *model.TableEvent {
	event := model.NewTableEvent(kind, m.store.String())
	event.Records = m.table.Len()
	event.Warnings = len(m.warnings)
	return event
}

func (m *Manager) publish(ctx context.Context, event *model.TableEvent) {
	if err := m.events.Publish(ctx, event); err != nil {
		m.logger.Warn("Failed to publish event",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}

func (m *Manager) publishFailing(ctx context.Context, lines map[int]string) {
	for index, line := range lines {
		event := model.NewTableEvent(model.EventRecordFailing, m.store.String()).ForRecord(index, line)
		event.Message = "error log is not empty"
		m.logger.Warn("Record is failing",
			zap.Int("index", index),
			zap.String("line", line))
		m.publish(ctx, event)
	}
}
