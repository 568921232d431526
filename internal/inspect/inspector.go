// Package inspect derives run information for records from their log files.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/cronmgr/internal/crontab"
)

const tailChunk = 4096

// Inspector stats the output and error logs of records
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates a new log inspector
func NewInspector(logger *zap.Logger) *Inspector {
	return &Inspector{
		logger: logger.Named("inspector"),
	}
}

// Annotate replaces the run information of rec with what its log files show.
// Last run time is the newest modification time of either log. A log that
// does not exist leaves its size absent.
func (i *Inspector) Annotate(rec *crontab.Record) {
	rec.ClearRunInfo()

	var last time.Time
	if path, ok := rec.OutputLog(); ok {
		if info := i.stat(path); info != nil {
			rec.SetLogSize(info.Size())
			last = info.ModTime()
		}
	}
	if path, ok := rec.ErrorLog(); ok {
		if info := i.stat(path); info != nil {
			rec.SetErrorSize(info.Size())
			if info.ModTime().After(last) {
				last = info.ModTime()
			}
		}
	}
	if !last.IsZero() {
		rec.SetLastRunTime(last)
	}
}

// AnnotateAll annotates every record and returns the indexes of those whose
// status is error.
func (i *Inspector) AnnotateAll(records []*crontab.Record) []int {
	var failing []int
	for idx, rec := range records {
		i.Annotate(rec)
		if rec.Status() == crontab.StatusError {
			failing = append(failing, idx)
		}
	}
	return failing
}

func (i *Inspector) stat(path string) os.FileInfo {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			i.logger.Warn("Failed to stat log file",
				zap.String("path", path),
				zap.Error(err))
		}
		return nil
	}
	if info.IsDir() {
		return nil
	}
	return info
}

// Tail returns up to n last lines of the file at path, reading backwards from
// the end so large logs are not loaded whole.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	var buf []byte
	offset := info.Size()
	for offset > 0 && bytes.Count(buf, []byte{'\n'}) <= n {
		size := int64(tailChunk)
		if size > offset {
			size = offset
		}
		offset -= size

		chunk := make([]byte, size)
		if _, err := f.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		buf = append(chunk, buf...)
	}

	text := strings.TrimSuffix(string(buf), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for idx, line := range lines {
		lines[idx] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
