package manager

import "errors"

var (
	// ErrNotLoaded is returned when the table is used before Load
	ErrNotLoaded = errors.New("table not loaded")

	// ErrHistoryDisabled is returned by Restore without a history store
	ErrHistoryDisabled = errors.New("history is disabled")
)
