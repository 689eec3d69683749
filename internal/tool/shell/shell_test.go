package shell

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/tool/service/executor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	runFunc func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error)
	argv    []string
	dir     string
	timeout time.Duration
}

func (m *mockRunner) Run(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
	m.argv, m.dir, m.timeout = argv, dir, timeout
	return m.runFunc(ctx, argv, dir, timeout)
}

type mockResolver struct{}

func (mockResolver) Abs(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join("/home/pal", p), nil
}

func newTool(r *mockRunner) *Tool {
	return New(r, mockResolver{}, config.DefaultConfig().Tools, zerolog.Nop())
}

func TestRun_Success(t *testing.T) {
	r := &mockRunner{runFunc: func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
		return &executor.Result{Stdout: "hi\n"}, nil
	}}

	res, err := newTool(r).Run(context.Background(), Request{Command: "echo hi", WorkingDir: "docs"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hi\n", res.Payload["stdout"])
	assert.Equal(t, 0, res.Payload["returncode"])
	assert.Equal(t, executor.ShellArgv("echo hi"), r.argv)
	assert.Equal(t, filepath.Join("/home/pal", "docs"), r.dir)
	assert.Equal(t, 10*time.Second, r.timeout)
}

func TestRun_CustomTimeout(t *testing.T) {
	r := &mockRunner{runFunc: func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
		return &executor.Result{}, nil
	}}

	_, err := newTool(r).Run(context.Background(), Request{Command: "ls", Timeout: 2})

	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, r.timeout)
	assert.Empty(t, r.dir)
}

func TestRun_NonZeroExitIsReported(t *testing.T) {
	r := &mockRunner{runFunc: func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
		return &executor.Result{ExitCode: 2, Stderr: "no such file"}, &exec.ExitError{}
	}}

	res, err := newTool(r).Run(context.Background(), Request{Command: "ls missing"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Payload["returncode"])
}

func TestRun_Timeout(t *testing.T) {
	r := &mockRunner{runFunc: func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
		return &executor.Result{ExitCode: -1}, executor.ErrTimeout
	}}

	res, err := newTool(r).Run(context.Background(), Request{Command: "sleep 99"})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestRun_StartFailure(t *testing.T) {
	r := &mockRunner{runFunc: func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
		return nil, &executor.StartError{Cmd: "sh", Cause: errors.New("not found")}
	}}

	res, err := newTool(r).Run(context.Background(), Request{Command: "x"})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
}

func TestCapability_Validation(t *testing.T) {
	r := &mockRunner{runFunc: func(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}}
	c := newTool(r).Capability()

	res, err := c.Invoke(context.Background(), map[string]any{"command": "   "})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "command is required")

	res, err = c.Invoke(context.Background(), map[string]any{"command": "ls", "timeout": -1})
	require.NoError(t, err)
	assert.False(t, res.Success)

	assert.Equal(t, capability.ExecuteCommand, c.Declaration().Name)
}
