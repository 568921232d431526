package service

import "errors"

var (
	// ErrConnect is returned when NATS stays unreachable after all attempts
	ErrConnect = errors.New("failed to connect to NATS")

	// ErrInvalidEvent is returned for an event without a kind
	ErrInvalidEvent = errors.New("invalid event")
)
