//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package agent implements the agent execution core: the turn loop driving
// generate/execute cycles against a model, tool dispatch, context
// summarization and session lifecycle under cancellation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/agentloop/agentloop-go/event"
	"github.com/agentloop/agentloop-go/execenv"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/tool"
)

// ErrAborted is returned by Run when cancellation is observed at a turn
// boundary or before a suspension point.
var ErrAborted = errors.New("agent run aborted")

var nameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	// DefaultFinishToolName is the reserved name of the completion tool.
	DefaultFinishToolName = "finish"

	defaultMaxTurns            = 20
	defaultSummarizationCutoff = 0.7
)

// FinishSpec configures the finish tool: the reserved tool whose successful,
// schema-valid invocation ends a run. The core validates the arguments but
// never interprets them; applications define their own parameter shape.
// A "paths" array of strings, if present in the validated arguments, names
// files copied out of the execution environment at disposal.
type FinishSpec struct {
	Name        string
	Description string
	Schema      *tool.Schema
}

func defaultFinishSpec() FinishSpec {
	return FinishSpec{
		Name:        DefaultFinishToolName,
		Description: "Signal that the task is complete.",
		Schema: &tool.Schema{
			Type: "object",
			Properties: map[string]*tool.Schema{
				"reason": {Type: "string", Description: "Why the task is complete."},
				"paths": {
					Type:        "array",
					Description: "Output files to deliver, relative to the work directory.",
					Items:       &tool.Schema{Type: "string"},
				},
			},
			Required:             []string{"reason"},
			AdditionalProperties: false,
		},
	}
}

// Agent drives one model against a tool registry until the finish tool is
// called or the turn budget runs out. An Agent is immutable after New and may
// be run multiple times; each Run gets its own session.
type Agent struct {
	name        string
	generator   model.Generator
	instruction string

	sets        []tool.Set
	envProvider execenv.Provider

	finish   FinishSpec
	maxTurns int
	cutoff   float64

	bus        *event.Bus
	outputDir  string
	inputFiles []string
	skillsDir  string
}

// Option configures an Agent.
type Option func(*Agent)

// WithInstruction sets the base system prompt.
func WithInstruction(instruction string) Option {
	return func(a *Agent) {
		a.instruction = instruction
	}
}

// WithTools adds static tools requiring no lifecycle.
func WithTools(tools ...tool.CallableTool) Option {
	return func(a *Agent) {
		a.sets = append(a.sets, tool.NewStaticSet("static_tools", tools...))
	}
}

// WithToolSets adds tool providers, initialized per session in the order
// given. At most one may be an execenv.Provider.
func WithToolSets(sets ...tool.Set) Option {
	return func(a *Agent) {
		a.sets = append(a.sets, sets...)
	}
}

// WithFinishSpec replaces the default finish tool specification.
func WithFinishSpec(spec FinishSpec) Option {
	return func(a *Agent) {
		a.finish = spec
	}
}

// WithMaxTurns sets the turn budget.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		a.maxTurns = n
	}
}

// WithSummarizationCutoff sets the fraction of the model context budget at
// which summarization triggers. Must be in (0, 1].
func WithSummarizationCutoff(cutoff float64) Option {
	return func(a *Agent) {
		a.cutoff = cutoff
	}
}

// WithBus sets the event bus run events are published to.
func WithBus(bus *event.Bus) Option {
	return func(a *Agent) {
		a.bus = bus
	}
}

// WithOutputDir sets the directory finish output files are copied into at
// session disposal.
func WithOutputDir(dir string) Option {
	return func(a *Agent) {
		a.outputDir = dir
	}
}

// WithInputFiles adds glob patterns of files uploaded into the execution
// environment at session setup. Requires an execenv.Provider among the sets.
func WithInputFiles(patterns ...string) Option {
	return func(a *Agent) {
		a.inputFiles = append(a.inputFiles, patterns...)
	}
}

// WithSkillsDir sets the directory skills are loaded from at session setup.
func WithSkillsDir(dir string) Option {
	return func(a *Agent) {
		a.skillsDir = dir
	}
}

// New creates an Agent. Configuration errors (invalid name, more than one
// execution-environment provider, invalid finish schema) are returned here,
// before any turn runs.
func New(name string, generator model.Generator, opts ...Option) (*Agent, error) {
	if !nameRE.MatchString(name) {
		return nil, fmt.Errorf("invalid agent name %q: must match %s", name, nameRE)
	}
	if generator == nil {
		return nil, fmt.Errorf("agent %s: generator is required", name)
	}

	a := &Agent{
		name:      name,
		generator: generator,
		finish:    defaultFinishSpec(),
		maxTurns:  defaultMaxTurns,
		cutoff:    defaultSummarizationCutoff,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.maxTurns <= 0 {
		return nil, fmt.Errorf("agent %s: maxTurns must be positive", name)
	}
	if a.cutoff <= 0 || a.cutoff > 1 {
		return nil, fmt.Errorf("agent %s: summarization cutoff %v out of (0, 1]", name, a.cutoff)
	}
	if a.finish.Name == "" {
		a.finish.Name = DefaultFinishToolName
	}
	if _, err := a.finish.Schema.Compile(a.finish.Name); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	for _, set := range a.sets {
		provider, ok := set.(execenv.Provider)
		if !ok {
			continue
		}
		if a.envProvider != nil {
			return nil, fmt.Errorf("agent %s: more than one execution-environment provider (%s, %s)",
				name, a.envProvider.Name(), provider.Name())
		}
		a.envProvider = provider
	}
	return a, nil
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Model returns the configured generator.
func (a *Agent) Model() model.Generator { return a.generator }

func (a *Agent) publish(ctx context.Context, e *event.Event) {
	a.bus.Publish(ctx, e)
}

// finishTool is the terminal tool registered last at session setup. The
// handler only acknowledges; termination is decided by the turn loop after
// validating the call against the configured schema.
type finishTool struct {
	spec FinishSpec
}

func (f *finishTool) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        f.spec.Name,
		Description: f.spec.Description,
		InputSchema: f.spec.Schema,
	}
}

func (f *finishTool) Call(ctx context.Context, jsonArgs []byte) (*tool.Result, error) {
	return &tool.Result{Content: "Finish acknowledged."}, nil
}
