package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandConfig configures the crontab binary backed store
type CommandConfig struct {
	Binary  string
	User    string
	Timeout time.Duration
	TempDir string
}

// CommandStore reads and installs a user's table through the crontab binary
type CommandStore struct {
	logger *zap.Logger
	config CommandConfig
}

// NewCommandStore creates a new crontab binary store
func NewCommandStore(config CommandConfig, logger *zap.Logger) *CommandStore {
	if config.Binary == "" {
		config.Binary = "crontab"
	}
	return &CommandStore{
		logger: logger.Named("command-store"),
		config: config,
	}
}

func (s *CommandStore) String() string {
	if s.config.User != "" {
		return "command:" + s.config.User
	}
	return "command"
}

func (s *CommandStore) args(extra ...string) []string {
	var args []string
	if s.config.User != "" {
		args = append(args, "-u", s.config.User)
	}
	return append(args, extra...)
}

// Read runs crontab -l. A user without a table reads as empty.
func (s *CommandStore) Read(ctx context.Context) (string, error) {
	cmdCtx, cancel := withTimeout(ctx, s.config.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, s.config.Binary, s.args("-l")...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s -l", ErrTimeout, s.config.Binary)
		}
		msg := strings.TrimSpace(stderr.String())
		if isNoTable(msg) {
			s.logger.Debug("No crontab installed", zap.String("user", s.config.User))
			return "", nil
		}
		return "", fmt.Errorf("%w: %s: %w", ErrCommandFailed, msg, err)
	}

	return stdout.String(), nil
}

// Write installs raw as the new table via a temporary file
func (s *CommandStore) Write(ctx context.Context, raw string) (*WriteResult, error) {
	tmp, err := os.CreateTemp(s.config.TempDir, "cronmgr-*.crontab")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(raw); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	cmdCtx, cancel := withTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cmdCtx, s.config.Binary, s.args(tmp.Name())...)

	s.logger.Info("Installing crontab",
		zap.String("binary", s.config.Binary),
		zap.String("user", s.config.User))

	output, err := cmd.CombinedOutput()
	result := &WriteResult{
		Output:   strings.TrimSpace(string(output)),
		Duration: time.Since(start),
	}

	if err != nil {
		if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: %s", ErrTimeout, s.config.Binary)
		}
		return result, fmt.Errorf("%w: %s", ErrRejected, result.Output)
	}

	return result, nil
}
