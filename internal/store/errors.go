package store

import "errors"

var (
	// ErrTimeout is returned when the crontab installer does not finish in time
	ErrTimeout = errors.New("crontab command timed out")

	// ErrCommandFailed is returned when listing the table fails
	ErrCommandFailed = errors.New("crontab command failed")

	// ErrRejected is returned when the installer refuses the new table
	ErrRejected = errors.New("crontab rejected the table")

	// ErrUnknownDriver is returned for an unsupported store driver name
	ErrUnknownDriver = errors.New("unknown store driver")
)
