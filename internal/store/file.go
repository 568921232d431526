package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// FileStore keeps a table in a plain file, e.g. /etc/cron.d/app or a spool
// file edited directly.
type FileStore struct {
	logger *zap.Logger
	path   string
	perm   os.FileMode
}

// NewFileStore creates a new file backed store
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		logger: logger.Named("file-store"),
		path:   path,
		perm:   0644,
	}
}

func (s *FileStore) String() string {
	return "file:" + s.path
}

// Read returns the file content; a missing file is an empty table
func (s *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Crontab file does not exist", zap.String("path", s.path))
			return "", nil
		}
		return "", fmt.Errorf("failed to read crontab file: %w", err)
	}
	return string(data), nil
}

// Write replaces the file atomically through a temporary sibling
func (s *FileStore) Write(ctx context.Context, raw string) (*WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	perm := s.perm
	if info, err := os.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(raw); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return nil, fmt.Errorf("failed to replace crontab file: %w", err)
	}

	s.logger.Info("Crontab file written",
		zap.String("path", s.path),
		zap.Int("bytes", len(raw)))

	return &WriteResult{Duration: time.Since(start)}, nil
}
