// Package shell provides the execute_command capability.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/tool/service/executor"
	"github.com/rs/zerolog"
)

// commandRunner executes an argv with a timeout.
type commandRunner interface {
	Run(ctx context.Context, argv []string, dir string, timeout time.Duration) (*executor.Result, error)
}

// pathResolver resolves the working directory.
type pathResolver interface {
	Abs(path string) (string, error)
}

// Request is the execute_command parameter set.
type Request struct {
	Command    string `json:"command"`
	Timeout    int    `json:"timeout"` // seconds
	WorkingDir string `json:"working_dir"`
}

// Validate implements capability.Validator.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return errors.New("command is required")
	}
	if r.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %d", r.Timeout)
	}
	return nil
}

// Tool runs command lines through the platform shell.
type Tool struct {
	runner   commandRunner
	paths    pathResolver
	defaults config.ToolsConfig
	logger   zerolog.Logger
}

// New creates the shell tool.
func New(runner commandRunner, paths pathResolver, cfg config.ToolsConfig, logger zerolog.Logger) *Tool {
	if runner == nil {
		panic("runner is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	return &Tool{runner: runner, paths: paths, defaults: cfg, logger: logger}
}

// Run executes req.Command. A non-zero exit still counts as success; the exit
// code is part of the payload for the model to interpret.
func (t *Tool) Run(ctx context.Context, req Request) (capability.Result, error) {
	timeout := time.Duration(t.defaults.DefaultCommandTimeout) * time.Second
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Second
	}

	dir := ""
	if req.WorkingDir != "" {
		abs, err := t.paths.Abs(req.WorkingDir)
		if err != nil {
			return capability.Fail("working_dir: %v", err), nil
		}
		dir = abs
	}

	t.logger.Info().Str("command", req.Command).Dur("timeout", timeout).Msg("executing command")

	res, err := t.runner.Run(ctx, executor.ShellArgv(req.Command), dir, timeout)
	switch {
	case errors.Is(err, executor.ErrTimeout):
		return capability.Fail("command timed out after %s", timeout), nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return capability.Fail("command cancelled: %v", err), nil
	case err != nil && res == nil:
		return capability.Fail("%v", err), nil
	}

	return capability.OK(map[string]any{
		"returncode": res.ExitCode,
		"stdout":     res.Stdout,
		"stderr":     res.Stderr,
		"truncated":  res.Truncated,
	}), nil
}

// Capability returns the registry entry backed by t.
func (t *Tool) Capability() capability.Capability {
	return capability.NewAdapter(capability.ExecuteCommand, "Run a shell command on this computer", &capability.Schema{
		Type: capability.TypeObject,
		Properties: map[string]*capability.Schema{
			"command":     {Type: capability.TypeString},
			"timeout":     {Type: capability.TypeInteger, Description: "seconds"},
			"working_dir": {Type: capability.TypeString},
		},
		Required: []string{"command"},
	}, t.Run)
}
