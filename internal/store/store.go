// Package store reads and installs the raw text of a crontab.
package store

import (
	"context"
	"strings"
	"time"
)

// TableStore loads and replaces the whole text of one crontab. A table that
// does not exist yet reads as an empty string.
type TableStore interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, raw string) (*WriteResult, error)
	// String names the table for logs and history, e.g. "command:root"
	String() string
}

// WriteResult carries what the installer printed while replacing a table
type WriteResult struct {
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

const defaultTimeout = 10 * time.Second

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// isNoTable reports whether crontab -l failed only because the user has no
// table installed.
func isNoTable(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "no crontab for")
}
