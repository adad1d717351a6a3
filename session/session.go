//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package session holds the per-run state of an agent: the disposal stack,
// the execution environment handle, uploaded files, loaded skills and the
// recursion depth. The state travels explicitly through context.Context; no
// package-level ambient state exists, so recursion depth and ownership stay
// visible at every call site.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentloop/agentloop-go/execenv"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/skill"
)

type contextKey struct{}

// State is the per-run session state. Created once per run entry, shared by
// reference across the turn loop and any nested sub-agent calls, closed
// exactly once.
type State struct {
	mu sync.Mutex

	depth     int
	outputDir string

	env       execenv.Environment
	parentEnv execenv.Environment

	uploadedFiles []string
	skills        []*skill.Metadata

	// disposers run in reverse order on Close.
	disposers []disposer
	closed    bool
}

type disposer struct {
	name    string
	release func() error
}

// Option configures a new State.
type Option func(*State)

// WithDepth sets the recursion depth. Root runs have depth 0.
func WithDepth(depth int) Option {
	return func(s *State) {
		s.depth = depth
	}
}

// WithOutputDir sets the directory finish output files are copied into.
func WithOutputDir(dir string) Option {
	return func(s *State) {
		s.outputDir = dir
	}
}

// WithParentEnvironment records the parent run's execution environment so a
// sub-agent can transfer bytes across the boundary.
func WithParentEnvironment(env execenv.Environment) Option {
	return func(s *State) {
		s.parentEnv = env
	}
}

// New creates a session state.
func New(opts ...Option) *State {
	s := &State{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Depth returns the recursion depth of this session. 0 means root.
func (s *State) Depth() int { return s.depth }

// OutputDir returns the configured output directory, possibly empty.
func (s *State) OutputDir() string { return s.outputDir }

// Environment returns the session execution environment, or nil.
func (s *State) Environment() execenv.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// SetEnvironment records the session's sole execution environment.
func (s *State) SetEnvironment(env execenv.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
}

// ParentEnvironment returns the parent run's environment, or nil for roots.
func (s *State) ParentEnvironment() execenv.Environment { return s.parentEnv }

// AddUploadedFile records the destination path of an uploaded input file.
func (s *State) AddUploadedFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadedFiles = append(s.uploadedFiles, path)
}

// UploadedFiles returns the recorded upload destinations in upload order.
func (s *State) UploadedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.uploadedFiles))
	copy(out, s.uploadedFiles)
	return out
}

// AddSkill records a loaded skill.
func (s *State) AddSkill(meta *skill.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills = append(s.skills, meta)
}

// Skills returns the loaded skills in load order.
func (s *State) Skills() []*skill.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*skill.Metadata, len(s.skills))
	copy(out, s.skills)
	return out
}

// Defer pushes a named release function onto the disposal stack. Close runs
// the stack in reverse order of acquisition.
func (s *State) Defer(name string, release func() error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Warnf("session: Defer(%q) after Close, releasing immediately", name)
		if err := release(); err != nil {
			log.Errorf("session: release %q: %v", name, err)
		}
		return
	}
	s.disposers = append(s.disposers, disposer{name: name, release: release})
	s.mu.Unlock()
}

// Close releases every acquired resource in reverse order. A failing release
// does not stop the remaining ones; failures are joined into one error.
// Close is idempotent.
func (s *State) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	disposers := s.disposers
	s.disposers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(disposers) - 1; i >= 0; i-- {
		d := disposers[i]
		if err := d.release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", d.name, err))
		}
	}
	return errors.Join(errs...)
}

// NewContext returns a context carrying the session state.
func NewContext(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session state carried by ctx, or nil.
func FromContext(ctx context.Context) *State {
	s, _ := ctx.Value(contextKey{}).(*State)
	return s
}
