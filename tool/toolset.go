//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package tool

import "context"

// Set is a tool provider with lifecycle. A Set exclusively owns the tools it
// produces; the registry only holds references to them.
type Set interface {
	// Name returns the name of the Set for identification and error
	// reporting.
	Name() string

	// Initialize prepares the provider. It is called once per session,
	// before Tools.
	Initialize(ctx context.Context) error

	// Tools returns the tools available in the set. It is called exactly
	// once per session, after Initialize.
	Tools(ctx context.Context) []CallableTool

	// Close releases any resources held by the Set.
	Close() error
}

// StaticSet adapts a fixed list of tools into a Set with no lifecycle.
type StaticSet struct {
	name  string
	tools []CallableTool
}

// NewStaticSet creates a Set wrapping the given tools.
func NewStaticSet(name string, tools ...CallableTool) *StaticSet {
	return &StaticSet{name: name, tools: tools}
}

// Name implements Set.
func (s *StaticSet) Name() string { return s.name }

// Initialize implements Set.
func (s *StaticSet) Initialize(ctx context.Context) error { return nil }

// Tools implements Set.
func (s *StaticSet) Tools(ctx context.Context) []CallableTool {
	return append([]CallableTool(nil), s.tools...)
}

// Close implements Set.
func (s *StaticSet) Close() error { return nil }
