// Package executor runs local processes with a timeout, graceful shutdown and
// bounded output capture.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/Cyclone1070/deskpal/internal/config"
)

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = errors.New("command timeout")

// StartError is returned when the process could not be started.
type StartError struct {
	Cmd   string
	Cause error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Cmd, e.Cause)
}

func (e *StartError) Unwrap() error { return e.Cause }

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// Runner executes commands on the host.
type Runner struct {
	maxOutput int
	grace     time.Duration
}

// NewRunner creates a Runner bounded by the tools configuration.
func NewRunner(cfg config.ToolsConfig) *Runner {
	return &Runner{
		maxOutput: int(cfg.MaxCommandOutputSize),
		grace:     time.Duration(cfg.GracefulShutdownMs) * time.Millisecond,
	}
}

// ShellArgv wraps a command line for the platform shell.
func ShellArgv(command string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", command}
	}
	return []string{"sh", "-c", command}
}

// Run starts argv in dir and waits for it, interrupting it after timeout and
// killing it if it has not exited within the grace period. A non-zero exit is
// reported through Result.ExitCode together with the *exec.ExitError.
func (r *Runner) Run(ctx context.Context, argv []string, dir string, timeout time.Duration) (*Result, error) {
	if len(argv) == 0 {
		return nil, os.ErrInvalid
	}

	stdout := newCollector(r.maxOutput)
	stderr := newCollector(r.maxOutput)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Grandchildren may inherit the pipes; stop waiting for them after the grace period.
	cmd.WaitDelay = r.grace
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &StartError{Cmd: argv[0], Cause: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	var execErr error
	select {
	case execErr = <-done:
	case <-ctx.Done():
		killProcess(cmd)
		<-done
		execErr = ctx.Err()
	case <-timer:
		interruptProcess(cmd)
		select {
		case <-done:
		case <-time.After(r.grace):
			killProcess(cmd)
			<-done
		}
		execErr = ErrTimeout
	}

	res := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}
	if execErr != nil {
		res.ExitCode = exitCode(execErr)
	}
	return res, execErr
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
