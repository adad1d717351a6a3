//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package execenv defines the execution-environment contract: a sandboxed
// place where an agent runs commands and stores files for the duration of a
// session.
package execenv

import (
	"context"

	"github.com/agentloop/agentloop-go/tool"
)

// CommandOutput is the outcome of one command execution.
type CommandOutput struct {
	// Stdout is the captured standard output.
	Stdout string `json:"stdout"`
	// Stderr is the captured standard error.
	Stderr string `json:"stderr"`
	// ExitCode is the command exit code.
	ExitCode int `json:"exit_code"`
}

// Environment is a handle to one execution sandbox. At most one Environment
// exists per agent; sub-agents get their own and exchange bytes across the
// boundary instead of sharing it.
type Environment interface {
	// RunCommand executes a shell command inside the environment.
	RunCommand(ctx context.Context, command string) (CommandOutput, error)

	// SaveFile writes data to path inside the environment. Relative paths
	// resolve against the environment work directory.
	SaveFile(ctx context.Context, path string, data []byte) error

	// ReadFile reads a file from inside the environment.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WorkDir returns the environment's working directory path, as seen
	// from inside the environment.
	WorkDir() string

	// Close tears the environment down.
	Close() error
}

// Provider is a tool provider that owns an execution environment. Providers
// declare the capability explicitly through this interface; the agent core
// never guesses from method shapes. An agent configuration with more than one
// Provider is rejected at construction time.
type Provider interface {
	tool.Set

	// Environment returns the environment handle. Valid only after
	// Initialize has succeeded.
	Environment() Environment
}
