package storage

import "errors"

// ErrSnapshotNotFound is returned when no snapshot has the requested ID
var ErrSnapshotNotFound = errors.New("snapshot not found")
