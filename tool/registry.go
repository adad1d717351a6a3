//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"sync"

	"github.com/agentloop/agentloop-go/log"
)

// Registry is a name-keyed collection of callable tools, populated once per
// session. The registry holds non-owning references: the provider that
// produced a tool remains responsible for its lifecycle. Registration is
// last-write-wins on name collision.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]CallableTool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]CallableTool)}
}

// Register adds a tool under its declared name. A later registration for the
// same name replaces the earlier one.
func (r *Registry) Register(t CallableTool) {
	name := t.Declaration().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		log.Warnf("tool %q registered twice, last registration wins", name)
	} else {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (CallableTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns the registered tools in first-registration order.
func (r *Registry) Tools() []CallableTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CallableTool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
