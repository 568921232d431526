package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cronmgr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("File Values", func(t *testing.T) {
		path := writeConfig(t, `
log:
  level: debug
  development: true
store:
  driver: file
  path: /etc/cron.d/app
  timeout: 3s
parser:
  lenient_leading_digits: true
history:
  enabled: false
daemon:
  names: [crond]
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
		assert.Equal(t, DriverFile, cfg.Store.Driver)
		assert.Equal(t, "/etc/cron.d/app", cfg.Store.Path)
		assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
		assert.True(t, cfg.Parser.LenientLeadingDigits)
		assert.False(t, cfg.History.Enabled)
		assert.Equal(t, []string{"crond"}, cfg.Daemon.Names)
	})

	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "{}\n"))
		require.NoError(t, err)

		assert.Equal(t, DriverCommand, cfg.Store.Driver)
		assert.Equal(t, "crontab", cfg.Store.Binary)
		assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
		assert.Equal(t, 30*24*time.Hour, cfg.History.Retention)
		assert.False(t, cfg.Events.Enabled)
		assert.Equal(t, "cronmgr", cfg.Events.SubjectPrefix)
		assert.Contains(t, cfg.Daemon.Names, "crond")
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("CRONMGR_STORE_DRIVER", "docker")
		t.Setenv("CRONMGR_STORE_CONTAINER", "web")
		t.Setenv("CRONMGR_EVENTS_ENABLED", "true")

		cfg, err := Load(writeConfig(t, "store:\n  driver: command\n"))
		require.NoError(t, err)
		assert.Equal(t, DriverDocker, cfg.Store.Driver)
		assert.Equal(t, "web", cfg.Store.Container)
		assert.True(t, cfg.Events.Enabled)
	})

	t.Run("Invalid Driver Settings", func(t *testing.T) {
		_, err := Load(writeConfig(t, "store:\n  driver: ftp\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)

		_, err = Load(writeConfig(t, "store:\n  driver: file\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("Missing Explicit File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
