package crontab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	build := func(expr string) *Record {
		rec, err := NewBuilder().Schedule(expr).Command("job").Build()
		require.NoError(t, err)
		return rec
	}

	t.Run("Clean", func(t *testing.T) {
		findings := Lint([]*Record{build("*/5 * * * *"), build("0 9 * jan-jun mon-fri"), build("30 2 1,15 * *")})
		assert.Empty(t, findings)
	})

	t.Run("Reversed Range", func(t *testing.T) {
		findings := Lint([]*Record{build("* * * * *"), build("30-10 * * * *")})
		require.Len(t, findings, 1)
		assert.Equal(t, 1, findings[0].Index)
		assert.Equal(t, "30-10 * * * *", findings[0].Expression)
	})

	t.Run("Zero Step", func(t *testing.T) {
		findings := Lint([]*Record{build("*/0 * * * *")})
		require.NotEmpty(t, findings)
		assert.Equal(t, 0, findings[0].Index)
	})

	t.Run("Step Wider Than Field", func(t *testing.T) {
		findings := Lint([]*Record{build("* */24 * * *")})
		require.Len(t, findings, 1)
		assert.Equal(t, "hour", findings[0].Field)
		assert.Contains(t, findings[0].String(), "hour")
	})
}
