package service

import "time"

// ExponentialBackoff grows the delay between connection attempts
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoff is used when no backoff is configured
var DefaultBackoff = ExponentialBackoff{
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2,
}

// NextRetry returns the delay before retry number attempt, counting from 0
func (b ExponentialBackoff) NextRetry(attempt int) time.Duration {
	delay := float64(b.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= b.Multiplier
		if delay > float64(b.MaxDelay) {
			break
		}
	}

	if delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}
