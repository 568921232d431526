package store

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fakeCrontab = `#!/bin/sh
DIR="$(dirname "$0")"
TABLE="$DIR/table"
if [ "$1" = "-u" ]; then
	printf '%s' "$2" > "$DIR/user"
	shift 2
fi
case "$1" in
-l)
	if [ -f "$TABLE" ]; then
		cat "$TABLE"
	else
		echo "no crontab for tester" >&2
		exit 1
	fi
	;;
*)
	if grep -q "reject" "$1"; then
		echo "\"$1\":1: bad minute" >&2
		echo "errors in crontab file, can't install." >&2
		exit 1
	fi
	cp "$1" "$TABLE"
	echo "installed"
	;;
esac
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "crontab")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func TestCommandStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Table Reads Empty", func(t *testing.T) {
		s := NewCommandStore(CommandConfig{Binary: writeScript(t, fakeCrontab)}, zaptest.NewLogger(t))
		raw, err := s.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", raw)
	})

	t.Run("Write Then Read", func(t *testing.T) {
		bin := writeScript(t, fakeCrontab)
		s := NewCommandStore(CommandConfig{Binary: bin, User: "tester"}, zaptest.NewLogger(t))

		table := "0 1 * * * backup > /tmp/out\n"
		result, err := s.Write(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, "installed", result.Output)

		raw, err := s.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, table, raw)

		user, err := os.ReadFile(filepath.Join(filepath.Dir(bin), "user"))
		require.NoError(t, err)
		assert.Equal(t, "tester", string(user))
		assert.Equal(t, "command:tester", s.String())
	})

	t.Run("Rejected Table", func(t *testing.T) {
		s := NewCommandStore(CommandConfig{Binary: writeScript(t, fakeCrontab)}, zaptest.NewLogger(t))
		result, err := s.Write(ctx, "reject me\n")
		assert.ErrorIs(t, err, ErrRejected)
		require.NotNil(t, result)
		assert.Contains(t, result.Output, "bad minute")
	})

	t.Run("Read Failure", func(t *testing.T) {
		bin := writeScript(t, "#!/bin/sh\necho 'permission denied' >&2\nexit 1\n")
		s := NewCommandStore(CommandConfig{Binary: bin}, zaptest.NewLogger(t))
		_, err := s.Read(ctx)
		assert.ErrorIs(t, err, ErrCommandFailed)
		assert.Contains(t, err.Error(), "permission denied")
	})

	t.Run("Timeout", func(t *testing.T) {
		bin := writeScript(t, "#!/bin/sh\nexec sleep 5\n")
		s := NewCommandStore(CommandConfig{Binary: bin, Timeout: 100 * time.Millisecond}, zaptest.NewLogger(t))

		start := time.Now()
		_, err := s.Read(ctx)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Less(t, time.Since(start), 4*time.Second)
	})

	t.Run("Temp File Removed", func(t *testing.T) {
		tmpDir := t.TempDir()
		s := NewCommandStore(CommandConfig{Binary: writeScript(t, fakeCrontab), TempDir: tmpDir}, zaptest.NewLogger(t))
		_, err := s.Write(ctx, "* * * * * true\n")
		require.NoError(t, err)

		entries, err := os.ReadDir(tmpDir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasSuffix(e.Name(), ".crontab"), e.Name())
		}
	})
}
