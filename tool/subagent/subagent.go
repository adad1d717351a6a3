//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package subagent wraps a whole agent as a single callable tool, so one
// agent can delegate a task to another. The wrapped agent runs a full session
// of its own; only a compact completion summary enters the calling
// conversation, with the child's history and metadata carried in the tool
// result metadata.
package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/agentloop/agentloop-go/agent"
	"github.com/agentloop/agentloop-go/execenv"
	ischema "github.com/agentloop/agentloop-go/internal/schema"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/session"
	"github.com/agentloop/agentloop-go/tool"
)

type callArgs struct {
	Task       string   `json:"task" description:"Task for the sub-agent to carry out"`
	InputFiles []string `json:"input_files,omitempty" description:"Files in your work directory to copy into the sub-agent's environment"`
}

// RunRecord is the metadata payload attached to each sub-agent invocation.
// It does not implement metadata.Addable, so the aggregator retains one
// record per invocation in call order.
type RunRecord struct {
	FinishParams map[string]any    `json:"finish_params,omitempty"`
	History      [][]model.Message `json:"history"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
}

// Tool exposes an agent as a tool named after the agent.
type Tool struct {
	agent       *agent.Agent
	description string
	schema      *tool.Schema
}

// Option configures the sub-agent tool.
type Option func(*Tool)

// WithDescription overrides the generated tool description.
func WithDescription(description string) Option {
	return func(t *Tool) {
		t.description = description
	}
}

// New wraps a into a callable tool.
func New(a *agent.Agent, opts ...Option) *Tool {
	t := &Tool{
		agent:       a,
		description: fmt.Sprintf("Delegate a task to the %s agent and wait for its result.", a.Name()),
		schema:      ischema.Generate(reflect.TypeOf(callArgs{})),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.agent.Name(),
		Description: t.description,
		InputSchema: t.schema,
	}
}

// Call implements tool.CallableTool. The child runs at the parent's depth
// plus one; input files cross the environment boundary as bytes, and the
// child's finish outputs are transferred back before its session closes.
func (t *Tool) Call(ctx context.Context, jsonArgs []byte) (*tool.Result, error) {
	var args callArgs
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &args); err != nil {
			return nil, fmt.Errorf("unmarshal arguments for %s: %w", t.agent.Name(), err)
		}
	}

	parentDepth := 0
	var parentEnv execenv.Environment
	if parent := session.FromContext(ctx); parent != nil {
		parentDepth = parent.Depth()
		parentEnv = parent.Environment()
	}

	files, err := collectInputFiles(ctx, parentEnv, args.InputFiles)
	if err != nil {
		return nil, err
	}

	result, err := t.agent.Run(ctx, args.Task,
		agent.WithDepth(parentDepth+1),
		agent.WithParentEnvironment(parentEnv),
		agent.WithTransferredFiles(files...),
	)
	if err != nil {
		return nil, fmt.Errorf("sub-agent %s: %w", t.agent.Name(), err)
	}

	return &tool.Result{
		Content: summarize(t.agent.Name(), result),
		Metadata: RunRecord{
			FinishParams: result.FinishParams,
			History:      result.History,
			Metadata:     result.Metadata,
		},
	}, nil
}

func collectInputFiles(ctx context.Context, parentEnv execenv.Environment, paths []string) ([]agent.FileTransfer, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if parentEnv == nil {
		return nil, fmt.Errorf("input_files given but the calling agent has no execution environment")
	}
	files := make([]agent.FileTransfer, 0, len(paths))
	for _, p := range paths {
		data, err := parentEnv.ReadFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("read input file %s: %w", p, err)
		}
		files = append(files, agent.FileTransfer{Path: p, Data: data})
	}
	return files, nil
}

// summarize renders the compact completion text surfaced to the calling
// model. The full history stays out of the conversation.
func summarize(name string, result *agent.RunResult) string {
	if result.FinishParams == nil {
		return fmt.Sprintf("Sub-agent %s stopped without calling finish.", name)
	}
	if reason, ok := result.FinishParams["reason"].(string); ok && reason != "" {
		return fmt.Sprintf("Sub-agent %s finished: %s", name, reason)
	}
	return fmt.Sprintf("Sub-agent %s finished.", name)
}
