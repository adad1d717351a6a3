//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/agentloop/agentloop-go/event"
	"github.com/agentloop/agentloop-go/execenv"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/metadata"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/session"
	"github.com/agentloop/agentloop-go/telemetry/trace"
	"github.com/agentloop/agentloop-go/tool"
)

// tokenUsageKey is the metadata key the turn loop records generation usage
// under.
const tokenUsageKey = "token_usage"

// RunResult is the outcome of one agent run.
type RunResult struct {
	// FinishParams holds the validated finish tool arguments. Nil when the
	// turn budget ran out before a finish call; that is not an error.
	FinishParams map[string]any `json:"finish_params,omitempty"`

	// History is the full conversation, grouped by summarization epoch. The
	// last group is the active conversation at run end.
	History [][]model.Message `json:"history"`

	// Metadata is the aggregated per-tool metadata plus token usage.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunOption configures a single run.
type RunOption func(*runConfig)

// FileTransfer is one file injected into the run's execution environment at
// session setup, after input-file upload. The sub-agent bridge uses this to
// move bytes from the parent environment into the child's.
type FileTransfer struct {
	Path string
	Data []byte
}

type runConfig struct {
	depth     int
	parentEnv execenv.Environment
	files     []FileTransfer
}

// WithDepth sets the recursion depth of the run's session. Root runs are 0;
// the sub-agent bridge passes parent depth + 1.
func WithDepth(depth int) RunOption {
	return func(c *runConfig) {
		c.depth = depth
	}
}

// WithParentEnvironment records the calling run's execution environment so
// finish outputs can be transferred back across the boundary.
func WithParentEnvironment(env execenv.Environment) RunOption {
	return func(c *runConfig) {
		c.parentEnv = env
	}
}

// WithTransferredFiles injects files into the run's execution environment at
// session setup.
func WithTransferredFiles(files ...FileTransfer) RunOption {
	return func(c *runConfig) {
		c.files = append(c.files, files...)
	}
}

// run is the per-run mutable state of the turn loop.
type run struct {
	agent *Agent
	cfg   runConfig
	id    string
	state *session.State

	registry   *tool.Registry
	validators map[string]*tool.Validator
	agg        *metadata.Aggregator

	// active is the working conversation; sealed holds completed
	// summarization epochs.
	active []model.Message
	sealed [][]model.Message

	finishParams map[string]any
	// summarizedTurn guards against overflow-retrying more than once per
	// turn.
	summarizedTurn int
}

// Run executes the agent until the finish tool is called, the turn budget is
// exhausted (success without FinishParams) or an unrecoverable error occurs.
// Tool-level failures never fail the run. Cancellation surfaces as ErrAborted.
func (a *Agent) Run(ctx context.Context, input string, opts ...RunOption) (*RunResult, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	state := session.New(
		session.WithDepth(cfg.depth),
		session.WithOutputDir(a.outputDir),
		session.WithParentEnvironment(cfg.parentEnv),
	)
	ctx = session.NewContext(ctx, state)

	r := &run{
		agent:      a,
		cfg:        cfg,
		id:         uuid.New().String(),
		state:      state,
		registry:   tool.NewRegistry(),
		validators: make(map[string]*tool.Validator),
		agg:        metadata.NewAggregator(),
	}

	a.publish(ctx, event.New(event.RunStart, r.id, a.name, event.WithPayload(input)))

	if err := a.setupSession(ctx, r); err != nil {
		err = errors.Join(err, state.Close())
		a.publish(ctx, event.New(event.RunError, r.id, a.name, event.WithPayload(err.Error())))
		return nil, err
	}
	r.active = append(r.active, model.NewUserMessage(input))

	result, runErr := r.loop(ctx)
	closeErr := state.Close()

	if runErr != nil {
		runErr = errors.Join(runErr, closeErr)
		a.publish(ctx, event.New(event.RunError, r.id, a.name, event.WithPayload(runErr.Error())))
		return nil, runErr
	}
	if closeErr != nil {
		a.publish(ctx, event.New(event.RunError, r.id, a.name, event.WithPayload(closeErr.Error())))
		return result, closeErr
	}
	a.publish(ctx, event.New(event.RunComplete, r.id, a.name, event.WithPayload(result)))
	return result, nil
}

func (r *run) loop(ctx context.Context) (*RunResult, error) {
	a := r.agent
	for turn := 1; turn <= a.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAborted, err)
		}
		a.publish(ctx, event.New(event.TurnStart, r.id, a.name, event.WithTurn(turn)))

		resp, err := r.generate(ctx, turn)
		if err != nil {
			return nil, err
		}
		if resp.Usage != nil {
			r.agg.Record(tokenUsageKey, metadata.TokenTally{
				InputTokens:     resp.Usage.InputTokens,
				OutputTokens:    resp.Usage.OutputTokens,
				ReasoningTokens: resp.Usage.ReasoningTokens,
			})
		}

		assistant := resp.Message
		r.active = append(r.active, assistant)
		a.publish(ctx, event.New(event.MessageAssistant, r.id, a.name,
			event.WithTurn(turn), event.WithPayload(assistant)))

		// Every tool call receives exactly one tool message, in call order,
		// even when finish appears mid-turn.
		finished := false
		for _, call := range assistant.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrAborted, err)
			}
			msg, params := r.dispatch(ctx, turn, call)
			r.active = append(r.active, msg)
			if call.Name == a.finish.Name && msg.ArgsValid && !finished {
				r.finishParams = params
				finished = true
			}
		}

		a.publish(ctx, event.New(event.TurnComplete, r.id, a.name, event.WithTurn(turn)))
		if finished {
			return r.result(), nil
		}

		if resp.Usage != nil && r.overBudget(*resp.Usage) {
			if err := r.summarize(ctx, turn); err != nil {
				return nil, err
			}
		}
	}

	// Turn budget exhausted without a finish call: success, FinishParams
	// stays unset.
	log.Debugf("run %s: %d turns exhausted without finish", r.id, a.maxTurns)
	return r.result(), nil
}

func (r *run) overBudget(usage model.Usage) bool {
	budget := r.agent.generator.Info().MaxContextTokens
	if budget <= 0 {
		return false
	}
	return float64(usage.Total())/float64(budget) >= r.agent.cutoff
}

// generate performs the primary model call of a turn. A context overflow
// triggers one summarize-and-retry; overflowing again fails the run.
func (r *run) generate(ctx context.Context, turn int) (*model.Response, error) {
	resp, err := r.generateOnce(ctx, turn)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, model.ErrContextExceeded) || r.summarizedTurn == turn {
		return nil, err
	}
	log.Warnf("run %s turn %d: context exceeded, summarizing and retrying", r.id, turn)
	if serr := r.summarize(ctx, turn); serr != nil {
		return nil, errors.Join(err, serr)
	}
	return r.generateOnce(ctx, turn)
}

func (r *run) generateOnce(ctx context.Context, turn int) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAborted, err)
	}
	info := r.agent.generator.Info()
	ctx, span := trace.Tracer.Start(ctx, trace.SpanNamePrefixGenerate+" "+info.Name)
	defer span.End()

	resp, err := r.agent.generator.Generate(ctx, &model.Request{
		Messages: model.CloneMessages(r.active),
		Tools:    r.declarations(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("run %s turn %d: generate: %w", r.id, turn, err)
	}
	return resp, nil
}

// declarations renders the registry for the model, in registration order.
func (r *run) declarations() []model.ToolDeclaration {
	tools := r.registry.Tools()
	out := make([]model.ToolDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := t.Declaration()
		md := model.ToolDeclaration{Name: decl.Name, Description: decl.Description}
		if decl.InputSchema != nil {
			raw, err := json.Marshal(decl.InputSchema)
			if err != nil {
				log.Errorf("marshal schema for tool %s: %v", decl.Name, err)
			} else {
				md.InputSchema = raw
			}
		}
		out = append(out, md)
	}
	return out
}

func (r *run) result() *RunResult {
	history := make([][]model.Message, 0, len(r.sealed)+1)
	history = append(history, r.sealed...)
	history = append(history, model.CloneMessages(r.active))
	return &RunResult{
		FinishParams: r.finishParams,
		History:      history,
		Metadata:     r.agg.Snapshot(),
	}
}

// exportOutputs delivers the files named by finishParams.paths out of the
// execution environment: into the configured output directory, and into the
// parent environment when this run is a sub-agent. It runs on the session
// disposal stack, before the environment closes.
func (r *run) exportOutputs() error {
	outputDir := r.state.OutputDir()
	parentEnv := r.state.ParentEnvironment()
	env := r.state.Environment()
	if env == nil || r.finishParams == nil || (outputDir == "" && parentEnv == nil) {
		return nil
	}
	raw, ok := r.finishParams["paths"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	ctx := context.Background()
	var errs []error
	for _, p := range raw {
		path, ok := p.(string)
		if !ok {
			errs = append(errs, fmt.Errorf("finish paths entry %v is not a string", p))
			continue
		}
		data, err := env.ReadFile(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if outputDir != "" {
			dest := filepath.Join(outputDir, filepath.Base(path))
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				errs = append(errs, fmt.Errorf("write output %s: %w", dest, err))
				continue
			}
			log.Debugf("run %s: exported %s to %s", r.id, path, dest)
		}
		if parentEnv != nil {
			if err := parentEnv.SaveFile(ctx, filepath.Base(path), data); err != nil {
				errs = append(errs, fmt.Errorf("transfer output %s to parent environment: %w", path, err))
			}
		}
	}
	return errors.Join(errs...)
}
