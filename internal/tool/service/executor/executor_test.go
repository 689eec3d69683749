package executor

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(maxOutput int64) *Runner {
	cfg := config.DefaultConfig().Tools
	cfg.MaxCommandOutputSize = maxOutput
	cfg.GracefulShutdownMs = 100
	return NewRunner(cfg)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell")
	}
}

func TestRun(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(1024)

	t.Run("Simple Command", func(t *testing.T) {
		res, err := r.Run(context.Background(), ShellArgv("echo hello"), "", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "hello", strings.TrimSpace(res.Stdout))
		assert.Equal(t, 0, res.ExitCode)
	})

	t.Run("Empty Command", func(t *testing.T) {
		_, err := r.Run(context.Background(), nil, "", time.Second)
		assert.ErrorIs(t, err, os.ErrInvalid)
	})

	t.Run("Non Zero Exit", func(t *testing.T) {
		res, err := r.Run(context.Background(), ShellArgv("exit 3"), "", time.Second)
		assert.Error(t, err)
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("Stderr", func(t *testing.T) {
		res, err := r.Run(context.Background(), ShellArgv("echo oops >&2"), "", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "oops", strings.TrimSpace(res.Stderr))
	})

	t.Run("Working Directory", func(t *testing.T) {
		dir := t.TempDir()
		res, err := r.Run(context.Background(), ShellArgv("pwd"), dir, time.Second)
		require.NoError(t, err)
		assert.Contains(t, strings.TrimSpace(res.Stdout), strings.TrimPrefix(dir, "/private"))
	})

	t.Run("Missing Binary", func(t *testing.T) {
		_, err := r.Run(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, "", time.Second)
		var startErr *StartError
		assert.True(t, errors.As(err, &startErr))
	})
}

func TestRun_OutputLimit(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(10)

	res, err := r.Run(context.Background(), ShellArgv("echo 123456789012345"), "", time.Second)

	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Stdout), 10)
}

func TestRun_Timeout(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(1024)

	start := time.Now()
	res, err := r.Run(context.Background(), ShellArgv("echo starting; sleep 10"), "", 300*time.Millisecond)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "starting", strings.TrimSpace(res.Stdout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_ContextCancel(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(1024)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, ShellArgv("sleep 10"), "", 0)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCollector(t *testing.T) {
	t.Run("Under Limit", func(t *testing.T) {
		c := newCollector(10)
		n, err := c.Write([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, "abc", c.String())
		assert.False(t, c.Truncated())
	})

	t.Run("Over Limit", func(t *testing.T) {
		c := newCollector(5)
		n, _ := c.Write([]byte("abcdef"))
		assert.Equal(t, 6, n)
		assert.Equal(t, "abcde", c.String())
		assert.True(t, c.Truncated())
	})

	t.Run("Binary", func(t *testing.T) {
		c := newCollector(10)
		_, _ = c.Write([]byte{'a', 0, 'b'})
		assert.Equal(t, binaryPlaceholder, c.String())
	})
}
