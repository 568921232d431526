// Package storage keeps a history of crontab snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SnapshotAction names the operation that produced a snapshot
type SnapshotAction string

const (
	SnapshotActionSave    SnapshotAction = "save"
	SnapshotActionRestore SnapshotAction = "restore"
)

// TableSnapshot records one write of a table: the text it replaced, the text
// written and what the installer reported.
type TableSnapshot struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Action    SnapshotAction `json:"action"`
	Previous  string         `json:"previous"`
	Current   string         `json:"current"`
	Records   int            `json:"records"`
	Warnings  int            `json:"warnings"`
	Output    string         `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Failed reports whether the write was refused
func (s *TableSnapshot) Failed() bool {
	return s.Error != ""
}

// TableHistoryStorage defines the interface for snapshot storage
type TableHistoryStorage interface {
	// Store stores a snapshot
	Store(ctx context.Context, snapshot *TableSnapshot) error

	// Get retrieves a snapshot by ID
	Get(ctx context.Context, id string) (*TableSnapshot, error)

	// List retrieves snapshots newest first
	List(ctx context.Context, offset, limit int) ([]*TableSnapshot, error)

	// Count returns the number of stored snapshots
	Count(ctx context.Context) (int, error)

	// DeleteBefore deletes snapshots older than before and returns how many
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)

	Close() error
}

// SQLiteTableHistory implements TableHistoryStorage using SQLite
type SQLiteTableHistory struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteTableHistory opens or creates the history database at dbPath
func NewSQLiteTableHistory(logger *zap.Logger, dbPath string) (*SQLiteTableHistory, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteTableHistory{
		logger: logger.Named("table-history"),
		db:     db,
	}

	if err := storage.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// initialize creates the necessary tables if they don't exist
func (s *SQLiteTableHistory) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS table_history (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			action TEXT NOT NULL,
			previous TEXT NOT NULL,
			current TEXT NOT NULL,
			records INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			output TEXT,
			error TEXT,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_table_history_source ON table_history(source);
		CREATE INDEX IF NOT EXISTS idx_table_history_created_at ON table_history(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Store implements TableHistoryStorage.Store
func (s *SQLiteTableHistory) Store(ctx context.Context, snapshot *TableSnapshot) error {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO table_history (
			id, source, action, previous, current, records, warnings, output, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.Source,
		snapshot.Action,
		snapshot.Previous,
		snapshot.Current,
		snapshot.Records,
		snapshot.Warnings,
		sql.NullString{String: snapshot.Output, Valid: snapshot.Output != ""},
		sql.NullString{String: snapshot.Error, Valid: snapshot.Error != ""},
		snapshot.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

const selectSnapshot = `
	SELECT id, source, action, previous, current, records, warnings, output, error, created_at
	FROM table_history`

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*TableSnapshot, error) {
	var snapshot TableSnapshot
	var output, errorStr sql.NullString

	err := row.Scan(
		&snapshot.ID,
		&snapshot.Source,
		&snapshot.Action,
		&snapshot.Previous,
		&snapshot.Current,
		&snapshot.Records,
		&snapshot.Warnings,
		&output,
		&errorStr,
		&snapshot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	snapshot.Output = output.String
	snapshot.Error = errorStr.String
	return &snapshot, nil
}

// Get implements TableHistoryStorage.Get
func (s *SQLiteTableHistory) Get(ctx context.Context, id string) (*TableSnapshot, error) {
	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, selectSnapshot+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	return snapshot, nil
}

// List implements TableHistoryStorage.List
func (s *SQLiteTableHistory) List(ctx context.Context, offset, limit int) ([]*TableSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		selectSnapshot+" ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*TableSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return snapshots, nil
}

// Count implements TableHistoryStorage.Count
func (s *SQLiteTableHistory) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM table_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// DeleteBefore implements TableHistoryStorage.DeleteBefore
func (s *SQLiteTableHistory) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM table_history WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.Info("Deleted old snapshots",
		zap.Time("before", before),
		zap.Int64("deleted", affected))

	return affected, nil
}

// Close closes the database connection
func (s *SQLiteTableHistory) Close() error {
	return s.db.Close()
}
