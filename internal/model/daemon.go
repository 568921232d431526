package model

import "time"

// DaemonProcess is one running cron daemon process
type DaemonProcess struct {
	PID       int32     `json:"pid"`
	Name      string    `json:"name"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// DaemonStatus reports whether a cron daemon is running on the host
type DaemonStatus struct {
	Running   bool            `json:"running"`
	Processes []DaemonProcess `json:"processes,omitempty"`
	CheckedAt time.Time       `json:"checked_at"`
}
