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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloop/agentloop-go/execenv/local"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/tool"
	"github.com/agentloop/agentloop-go/tool/function"
)

// stubModel replays scripted responses and records every request it sees.
type stubModel struct {
	info  model.Info
	steps []step
	calls []*model.Request
}

type step struct {
	resp *model.Response
	err  error
}

func newStubModel(steps ...step) *stubModel {
	return &stubModel{
		info:  model.Info{Name: "stub", MaxContextTokens: 1000},
		steps: steps,
	}
}

func (s *stubModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	s.calls = append(s.calls, req)
	if len(s.steps) == 0 {
		return &model.Response{Message: model.NewAssistantMessage("nothing scripted")}, nil
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.resp, st.err
}

func (s *stubModel) Info() model.Info { return s.info }

func respond(msg model.Message, usage *model.Usage) step {
	return step{resp: &model.Response{Message: msg, Usage: usage}}
}

func fail(err error) step {
	return step{err: err}
}

func assistantCalling(calls ...model.ToolCall) model.Message {
	return model.Message{Role: model.RoleAssistant, ToolCalls: calls}
}

func finishCall(args string) model.ToolCall {
	return model.ToolCall{ID: "call_finish", Name: DefaultFinishToolName, Arguments: []byte(args)}
}

type echoArgs struct {
	Text string `json:"text"`
}

func echoTool(name string) tool.CallableTool {
	return function.New(func(_ context.Context, in echoArgs) (*tool.Result, error) {
		return &tool.Result{Content: "echo: " + in.Text}, nil
	}, function.WithName(name), function.WithDescription("echoes text"))
}

func TestNewRejectsInvalidName(t *testing.T) {
	_, err := New("bad name!", newStubModel())
	assert.ErrorContains(t, err, "invalid agent name")
}

func TestNewRejectsTwoEnvironmentProviders(t *testing.T) {
	_, err := New("worker", newStubModel(),
		WithToolSets(local.NewProvider(), local.NewProvider()))
	assert.ErrorContains(t, err, "more than one execution-environment provider")
}

func TestNewRejectsBadCutoff(t *testing.T) {
	_, err := New("worker", newStubModel(), WithSummarizationCutoff(1.5))
	assert.ErrorContains(t, err, "cutoff")
}

func TestFinishWithinOneTurn(t *testing.T) {
	m := newStubModel(
		respond(assistantCalling(finishCall(`{"reason":"done"}`)), nil),
	)
	a, err := New("worker", m, WithMaxTurns(1))
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "do the thing")
	require.NoError(t, err)
	require.NotNil(t, result.FinishParams)
	assert.Equal(t, "done", result.FinishParams["reason"])
	require.Len(t, result.History, 1)

	// system, user, assistant, finish tool message.
	group := result.History[0]
	require.Len(t, group, 4)
	assert.Equal(t, model.RoleSystem, group[0].Role)
	assert.Equal(t, model.RoleUser, group[1].Role)
	assert.Equal(t, model.RoleAssistant, group[2].Role)
	assert.Equal(t, model.RoleTool, group[3].Role)
	assert.True(t, group[3].ArgsValid)
}

func TestMaxTurnsExhaustionIsNotAnError(t *testing.T) {
	m := newStubModel(
		respond(model.NewAssistantMessage("thinking"), nil),
		respond(model.NewAssistantMessage("still thinking"), nil),
	)
	a, err := New("worker", m, WithMaxTurns(2))
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Nil(t, result.FinishParams)
	assert.Len(t, m.calls, 2)
}

func TestTwoToolCallsProduceOrderedToolMessages(t *testing.T) {
	m := newStubModel(
		respond(assistantCalling(
			model.ToolCall{ID: "c1", Name: "toolA", Arguments: []byte(`{"text":"a"}`)},
			model.ToolCall{ID: "c2", Name: "toolB", Arguments: []byte(`{"text":"b"}`)},
		), nil),
		respond(assistantCalling(finishCall(`{"reason":"ok"}`)), nil),
	)
	a, err := New("worker", m,
		WithTools(echoTool("toolA"), echoTool("toolB")))
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)

	// The second model call must already carry both tool messages in order.
	require.Len(t, m.calls, 2)
	msgs := m.calls[1].Messages
	require.GreaterOrEqual(t, len(msgs), 5)
	assert.Equal(t, "toolA", msgs[3].ToolName)
	assert.Equal(t, "echo: a", msgs[3].Content)
	assert.Equal(t, "toolB", msgs[4].ToolName)
	assert.Equal(t, "echo: b", msgs[4].Content)
	assert.NotNil(t, result.FinishParams)
}

func TestUnknownToolDoesNotTerminateRun(t *testing.T) {
	m := newStubModel(
		respond(assistantCalling(
			model.ToolCall{ID: "c1", Name: "no_such_tool", Arguments: []byte(`{}`)},
		), nil),
		respond(assistantCalling(finishCall(`{"reason":"ok"}`)), nil),
	)
	a, err := New("worker", m)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	require.NotNil(t, result.FinishParams)

	msgs := m.calls[1].Messages
	toolMsg := msgs[len(msgs)-1]
	assert.Equal(t, model.RoleTool, toolMsg.Role)
	assert.False(t, toolMsg.ArgsValid)
	assert.Contains(t, toolMsg.Content, "unknown tool")
}

func TestInvalidArgumentsSurfaceGenericBody(t *testing.T) {
	m := newStubModel(
		respond(assistantCalling(
			model.ToolCall{ID: "c1", Name: "toolA", Arguments: []byte(`{"text":42}`)},
		), nil),
		respond(assistantCalling(finishCall(`{"reason":"ok"}`)), nil),
	)
	a, err := New("worker", m, WithTools(echoTool("toolA")))
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "go")
	require.NoError(t, err)

	msgs := m.calls[1].Messages
	toolMsg := msgs[len(msgs)-1]
	assert.False(t, toolMsg.ArgsValid)
	assert.Equal(t, "arguments are not valid", toolMsg.Content)
}

func TestHandlerErrorBecomesToolContent(t *testing.T) {
	boom := function.New(func(_ context.Context, _ echoArgs) (*tool.Result, error) {
		return nil, errors.New("disk on fire")
	}, function.WithName("boom"))

	m := newStubModel(
		respond(assistantCalling(
			model.ToolCall{ID: "c1", Name: "boom", Arguments: []byte(`{"text":"x"}`)},
		), nil),
		respond(assistantCalling(finishCall(`{"reason":"ok"}`)), nil),
	)
	a, err := New("worker", m, WithTools(boom))
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "go")
	require.NoError(t, err)

	msgs := m.calls[1].Messages
	toolMsg := msgs[len(msgs)-1]
	assert.True(t, toolMsg.ArgsValid)
	assert.Contains(t, toolMsg.Content, "disk on fire")
}

func TestInvalidFinishArgumentsKeepRunning(t *testing.T) {
	m := newStubModel(
		// reason is required by the default finish schema.
		respond(assistantCalling(finishCall(`{"paths":["a.txt"]}`)), nil),
		respond(assistantCalling(finishCall(`{"reason":"second try"}`)), nil),
	)
	a, err := New("worker", m)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	require.NotNil(t, result.FinishParams)
	assert.Equal(t, "second try", result.FinishParams["reason"])
	assert.Len(t, m.calls, 2)
}

func TestFinishAlongsideOtherCallsExecutesAll(t *testing.T) {
	m := newStubModel(
		respond(assistantCalling(
			finishCall(`{"reason":"early"}`),
			model.ToolCall{ID: "c2", Name: "toolA", Arguments: []byte(`{"text":"after finish"}`)},
		), nil),
	)
	a, err := New("worker", m, WithTools(echoTool("toolA")))
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	require.NotNil(t, result.FinishParams)

	// Both calls got their tool message before termination.
	group := result.History[len(result.History)-1]
	var toolMsgs []model.Message
	for _, msg := range group {
		if msg.Role == model.RoleTool {
			toolMsgs = append(toolMsgs, msg)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Equal(t, DefaultFinishToolName, toolMsgs[0].ToolName)
	assert.Equal(t, "toolA", toolMsgs[1].ToolName)
	assert.Equal(t, "echo: after finish", toolMsgs[1].Content)
}

func TestCancellationAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := New("worker", newStubModel())
	require.NoError(t, err)

	_, err = a.Run(ctx, "go")
	assert.ErrorIs(t, err, ErrAborted)
}

func TestTokenUsageIsAggregated(t *testing.T) {
	m := newStubModel(
		respond(model.NewAssistantMessage("a"), &model.Usage{InputTokens: 10, OutputTokens: 5}),
		respond(assistantCalling(finishCall(`{"reason":"ok"}`)), &model.Usage{InputTokens: 20, OutputTokens: 7}),
	)
	a, err := New("worker", m)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)

	raw, err := json.Marshal(result.Metadata[tokenUsageKey])
	require.NoError(t, err)
	assert.JSONEq(t, `{"input_tokens":30,"output_tokens":12}`, string(raw))
}

func TestRunWithLocalEnvironmentExportsFinishPaths(t *testing.T) {
	outputDir := t.TempDir()
	m := newStubModel(
		respond(assistantCalling(
			model.ToolCall{ID: "c1", Name: "save_file", Arguments: []byte(`{"path":"out.txt","content":"result data"}`)},
			finishCall(`{"reason":"done","paths":["out.txt"]}`),
		), nil),
	)
	a, err := New("worker", m,
		WithToolSets(local.NewProvider()),
		WithOutputDir(outputDir))
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "produce out.txt")
	require.NoError(t, err)
	require.NotNil(t, result.FinishParams)

	data, err := os.ReadFile(filepath.Join(outputDir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "result data", string(data))
}
