// Package monitor checks that a cron daemon is running to execute the table.
package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/t77yq/cronmgr/internal/model"
)

// commLen is the length the kernel truncates process names to
const commLen = 15

// DefaultDaemonNames are the process names of common cron daemons. Entries
// with a space match the first two command line words, e.g. busybox applets.
var DefaultDaemonNames = []string{"cron", "crond", "cronie", "busybox crond"}

// DaemonProbe looks for cron daemon processes on the local host
type DaemonProbe struct {
	logger *zap.Logger
	names  []string
}

// NewDaemonProbe creates a new daemon probe
func NewDaemonProbe(names []string, logger *zap.Logger) *DaemonProbe {
	if len(names) == 0 {
		names = DefaultDaemonNames
	}
	return &DaemonProbe{
		logger: logger.Named("daemon-probe"),
		names:  names,
	}
}

// Check scans the process list once
func (p *DaemonProbe) Check(ctx context.Context) (*model.DaemonStatus, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	status := &model.DaemonStatus{CheckedAt: time.Now()}
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			// process exited while scanning
			continue
		}

		matched, ok := p.match(ctx, proc, name)
		if !ok {
			continue
		}

		entry := model.DaemonProcess{PID: proc.Pid, Name: matched}
		if created, err := proc.CreateTimeWithContext(ctx); err == nil {
			entry.StartedAt = time.UnixMilli(created)
		}
		status.Processes = append(status.Processes, entry)
	}
	status.Running = len(status.Processes) > 0

	p.logger.Debug("Daemon check completed",
		zap.Bool("running", status.Running),
		zap.Int("processes", len(status.Processes)))

	return status, nil
}

func (p *DaemonProbe) match(ctx context.Context, proc *process.Process, name string) (string, bool) {
	var cmdline []string
	for _, want := range p.names {
		if !strings.Contains(want, " ") {
			if matchName(name, want) {
				return want, true
			}
			continue
		}

		if cmdline == nil {
			args, err := proc.CmdlineSliceWithContext(ctx)
			if err != nil || len(args) < 2 {
				cmdline = []string{}
				continue
			}
			cmdline = args
		}
		if len(cmdline) >= 2 && filepath.Base(cmdline[0])+" "+cmdline[1] == want {
			return want, true
		}
	}
	return "", false
}

// matchName compares a process name with a wanted name, allowing for the
// kernel's truncation of long names.
func matchName(name, want string) bool {
	if name == want {
		return true
	}
	return len(name) == commLen && strings.HasPrefix(want, name)
}

// Watch checks every interval until ctx is done, passing each result to fn.
// Failed checks are logged and skipped.
func (p *DaemonProbe) Watch(ctx context.Context, interval time.Duration, fn func(*model.DaemonStatus)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := p.Check(ctx)
		if err != nil {
			p.logger.Error("Failed to check cron daemon", zap.Error(err))
		} else {
			fn(status)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
