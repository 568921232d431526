package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}

	assert.Equal(t, 100*time.Millisecond, b.NextRetry(0))
	assert.Equal(t, 200*time.Millisecond, b.NextRetry(1))
	assert.Equal(t, 800*time.Millisecond, b.NextRetry(3))
	assert.Equal(t, time.Second, b.NextRetry(4))
	assert.Equal(t, time.Second, b.NextRetry(1000))
}
