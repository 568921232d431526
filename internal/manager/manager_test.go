package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/t77yq/cronmgr/internal/crontab"
	"github.com/t77yq/cronmgr/internal/model"
	"github.com/t77yq/cronmgr/internal/storage"
	"github.com/t77yq/cronmgr/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.TableEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e *model.TableEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []model.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []model.EventKind
	for _, e := range p.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type failingStore struct {
	store.TableStore
}

func (failingStore) Write(context.Context, string) (*store.WriteResult, error) {
	return &store.WriteResult{Output: "bad minute"}, errors.New("rejected")
}

type fixture struct {
	path    string
	store   store.TableStore
	history *storage.SQLiteTableHistory
	events  *recordingPublisher
	manager *Manager
}

func newFixture(t *testing.T, initial string) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	path := filepath.Join(dir, "crontab")
	if initial != "" {
		require.NoError(t, os.WriteFile(path, []byte(initial), 0644))
	}

	history, err := storage.NewSQLiteTableHistory(logger, filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	f := &fixture{
		path:    path,
		store:   store.NewFileStore(path, logger),
		history: history,
		events:  &recordingPublisher{},
	}
	f.manager = New(f.store, logger, Options{History: history, Events: f.events})
	return f
}

func (f *fixture) content(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	return string(data)
}

func TestManagerLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Skips Malformed Lines", func(t *testing.T) {
		f := newFixture(t, "# header\nMAILTO=root\n0 1 * * * first\n* 99 * * * broken\n")
		require.NoError(t, f.manager.Load(ctx))

		records, err := f.manager.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "first", records[0].Command())

		warnings := f.manager.Warnings()
		require.Len(t, warnings, 2)
		assert.Equal(t, 2, warnings[0].Line)
		assert.ErrorIs(t, warnings[0], crontab.ErrEnvironmentLine)
		assert.Equal(t, 4, warnings[1].Line)

		assert.Equal(t, []model.EventKind{model.EventTableLoaded}, f.events.kinds())
	})

	t.Run("Missing Table Is Empty", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.manager.Load(ctx))
		table, err := f.manager.Table()
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	})

	t.Run("Failing Record Raises Event", func(t *testing.T) {
		errLog := filepath.Join(t.TempDir(), "err.log")
		require.NoError(t, os.WriteFile(errLog, []byte("boom\n"), 0644))

		f := newFixture(t, "0 1 * * * ok\n0 2 * * * bad 2> "+errLog+"\n")
		require.NoError(t, f.manager.Load(ctx))

		assert.Equal(t, []model.EventKind{model.EventTableLoaded, model.EventRecordFailing}, f.events.kinds())
		failing := f.events.events[1]
		require.NotNil(t, failing.Index)
		assert.Equal(t, 1, *failing.Index)

		records, err := f.manager.Records()
		require.NoError(t, err)
		assert.Equal(t, crontab.StatusError, records[1].Status())
	})

	t.Run("Use Before Load", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.manager.Records()
		assert.ErrorIs(t, err, ErrNotLoaded)
		assert.ErrorIs(t, f.manager.Suspend(0), ErrNotLoaded)
		_, err = f.manager.Save(ctx)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})
}

func TestManagerEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("Add And Save", func(t *testing.T) {
		f := newFixture(t, "0 1 * * * first\n")
		require.NoError(t, f.manager.Load(ctx))

		rec, err := crontab.NewBuilder().Schedule("*/5 * * * *").Command("second").OutputLog("/tmp/second.log").Build()
		require.NoError(t, err)
		require.NoError(t, f.manager.Add(rec))

		res, err := f.manager.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Records)
		assert.NotEmpty(t, res.SnapshotID)

		assert.Equal(t, "0 1 * * * first\n*/5 * * * * second > /tmp/second.log\n", f.content(t))
		assert.Equal(t, f.content(t), f.manager.Raw())

		snapshot, err := f.history.Get(ctx, res.SnapshotID)
		require.NoError(t, err)
		assert.Equal(t, "0 1 * * * first\n", snapshot.Previous)
		assert.Equal(t, f.content(t), snapshot.Current)
		assert.Equal(t, storage.SnapshotActionSave, snapshot.Action)

		assert.Contains(t, f.events.kinds(), model.EventTableSaved)
	})

	t.Run("Add Rejects Invalid Record", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.manager.Load(ctx))

		rec, err := crontab.NewBuilder().Command("ok").Build()
		require.NoError(t, err)
		rec.SetHour("25")

		assert.ErrorIs(t, f.manager.Add(rec), crontab.ErrInvalidRecord)
		records, err := f.manager.Records()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Suspend Resume Remove", func(t *testing.T) {
		f := newFixture(t, "0 1 * * * a\n0 2 * * * b\n0 3 * * * c\n")
		require.NoError(t, f.manager.Load(ctx))

		require.NoError(t, f.manager.Suspend(0))
		require.NoError(t, f.manager.Suspend(0))
		removed, err := f.manager.Remove(1)
		require.NoError(t, err)
		assert.Equal(t, "b", removed.Command())

		_, err = f.manager.Remove(7)
		assert.ErrorIs(t, err, crontab.ErrIndexOutOfRange)
		assert.ErrorIs(t, f.manager.Resume(5), crontab.ErrIndexOutOfRange)

		_, err = f.manager.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, "#suspended: 0 1 * * * a\n0 3 * * * c\n", f.content(t))

		require.NoError(t, f.manager.Resume(0))
		_, err = f.manager.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0 1 * * * a\n0 3 * * * c\n", f.content(t))
	})

	t.Run("Records Are Copies", func(t *testing.T) {
		f := newFixture(t, "0 1 * * * a\n")
		require.NoError(t, f.manager.Load(ctx))

		records, err := f.manager.Records()
		require.NoError(t, err)
		records[0].Suspend()

		again, err := f.manager.Records()
		require.NoError(t, err)
		assert.False(t, again[0].Suspended())
	})

	t.Run("Discard", func(t *testing.T) {
		f := newFixture(t, "0 1 * * * a\n")
		require.NoError(t, f.manager.Load(ctx))

		_, err := f.manager.Remove(0)
		require.NoError(t, err)
		require.NoError(t, f.manager.Discard())

		records, err := f.manager.Records()
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Lint", func(t *testing.T) {
		f := newFixture(t, "30-10 * * * * reversed\n0 1 * * * fine\n")
		require.NoError(t, f.manager.Load(ctx))

		findings, err := f.manager.Lint()
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, 0, findings[0].Index)
	})
}

func TestManagerSaveFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "0 1 * * * a\n")

	m := New(failingStore{TableStore: f.store}, zaptest.NewLogger(t), Options{History: f.history, Events: f.events})
	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.Suspend(0))

	_, err := m.Save(ctx)
	require.Error(t, err)

	assert.Equal(t, "0 1 * * * a\n", m.Raw())
	assert.Equal(t, "0 1 * * * a\n", f.content(t))

	list, err := f.history.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Failed())
	assert.Equal(t, "bad minute", list[0].Output)
	assert.NotContains(t, f.events.kinds(), model.EventTableSaved)
}

func TestManagerRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("Restores Previous Text", func(t *testing.T) {
		original := "# keep me\n0 1 * * * a\n"
		f := newFixture(t, original)
		require.NoError(t, f.manager.Load(ctx))

		_, err := f.manager.Remove(0)
		require.NoError(t, err)
		saved, err := f.manager.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", f.content(t))

		restored, err := f.manager.Restore(ctx, saved.SnapshotID)
		require.NoError(t, err)
		assert.Equal(t, 1, restored.Records)
		assert.Equal(t, original, f.content(t))
		assert.True(t, strings.HasPrefix(f.manager.Raw(), "# keep me"))

		count, err := f.history.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Contains(t, f.events.kinds(), model.EventTableRestored)
	})

	t.Run("Unknown Snapshot", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.manager.Load(ctx))
		_, err := f.manager.Restore(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
	})

	t.Run("History Disabled", func(t *testing.T) {
		f := newFixture(t, "")
		m := New(f.store, zaptest.NewLogger(t), Options{})
		require.NoError(t, m.Load(ctx))
		_, err := m.Restore(ctx, "any")
		assert.ErrorIs(t, err, ErrHistoryDisabled)
	})
}
