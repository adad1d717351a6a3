//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides an execution environment that unsafely runs commands
// in a temp directory on the local machine.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentloop/agentloop-go/execenv"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/tool"
)

const defaultCommandTimeout = 60 * time.Second

// Environment executes commands with bash in a dedicated work directory.
type Environment struct {
	workDir string
	timeout time.Duration
	// keepWorkDir disables removal on Close for user-supplied directories.
	keepWorkDir bool
}

// Option configures the local environment.
type Option func(*Environment)

// WithWorkDir sets the working directory. User-supplied directories are not
// removed on Close.
func WithWorkDir(dir string) Option {
	return func(e *Environment) {
		e.workDir = dir
		e.keepWorkDir = true
	}
}

// WithTimeout sets the per-command timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Environment) {
		e.timeout = timeout
	}
}

// NewEnvironment creates a local environment. Without WithWorkDir a temp
// directory is created and removed on Close.
func NewEnvironment(opts ...Option) (*Environment, error) {
	e := &Environment{timeout: defaultCommandTimeout}
	for _, opt := range opts {
		opt(e)
	}
	if e.workDir == "" {
		dir, err := os.MkdirTemp("", "agentloop_")
		if err != nil {
			return nil, fmt.Errorf("create work directory: %w", err)
		}
		e.workDir = dir
		return e, nil
	}
	abs, err := filepath.Abs(e.workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work directory: %w", err)
	}
	e.workDir = abs
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	return e, nil
}

// RunCommand implements execenv.Environment.
func (e *Environment) RunCommand(ctx context.Context, command string) (execenv.CommandOutput, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	cmd.Dir = e.workDir
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := execenv.CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		if runCtx.Err() != nil {
			return out, fmt.Errorf("command timed out after %s: %w", e.timeout, runCtx.Err())
		}
		return out, fmt.Errorf("run command: %w", err)
	}
	return out, nil
}

// SaveFile implements execenv.Environment.
func (e *Environment) SaveFile(ctx context.Context, path string, data []byte) error {
	full := e.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("save file %s: %w", path, err)
	}
	return nil
}

// ReadFile implements execenv.Environment.
func (e *Environment) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(e.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}

// WorkDir implements execenv.Environment.
func (e *Environment) WorkDir() string { return e.workDir }

// Close implements execenv.Environment.
func (e *Environment) Close() error {
	if e.keepWorkDir {
		return nil
	}
	return os.RemoveAll(e.workDir)
}

func (e *Environment) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workDir, path)
}

// Provider exposes a local Environment together with its run_command and
// save_file tools.
type Provider struct {
	opts []Option
	env  *Environment
}

var _ execenv.Provider = (*Provider)(nil)

// NewProvider creates a provider; the environment is created at Initialize.
func NewProvider(opts ...Option) *Provider {
	return &Provider{opts: opts}
}

// Name implements tool.Set.
func (p *Provider) Name() string { return "local_exec_env" }

// Initialize implements tool.Set.
func (p *Provider) Initialize(ctx context.Context) error {
	env, err := NewEnvironment(p.opts...)
	if err != nil {
		return err
	}
	p.env = env
	log.Debugf("local execution environment ready at %s", env.workDir)
	return nil
}

// Environment implements execenv.Provider.
func (p *Provider) Environment() execenv.Environment { return p.env }

// Close implements tool.Set.
func (p *Provider) Close() error {
	if p.env == nil {
		return nil
	}
	return p.env.Close()
}

// Tools implements tool.Set.
func (p *Provider) Tools(ctx context.Context) []tool.CallableTool {
	return execenv.EnvironmentTools(p.env)
}
