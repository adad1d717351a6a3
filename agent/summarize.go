//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentloop/agentloop-go/event"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/telemetry/trace"
)

const summarizationSystemPrompt = `You condense agent conversations. Summarize the conversation below, keeping:
- what the task is and how far it has progressed
- decisions made and their outcomes
- file paths, commands and tool results that later steps depend on
- anything that went wrong and how it was handled

Write a compact summary. Do not add commentary or next-step suggestions.`

const bridgeTemplate = `[Conversation summarized to free context. Progress so far:]

%s

[Continue the task from this point.]`

// summarize collapses the conversation tail into one bridge message. The task
// context, everything before the first assistant message, is preserved
// verbatim; the replaced tail is sealed into the history as one epoch. The
// summarization call itself is never summarized: if it overflows, the run
// fails.
func (r *run) summarize(ctx context.Context, turn int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	a := r.agent

	split := -1
	for i, m := range r.active {
		if m.Role == model.RoleAssistant {
			split = i
			break
		}
	}
	if split < 0 {
		return fmt.Errorf("run %s turn %d: nothing to summarize", r.id, turn)
	}

	a.publish(ctx, event.New(event.SummarizationStart, r.id, a.name, event.WithTurn(turn)))
	ctx, span := trace.Tracer.Start(ctx, trace.SpanNameSummarize)
	defer span.End()

	tail := r.active[split:]
	resp, err := a.generator.Generate(ctx, &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage(summarizationSystemPrompt),
			model.NewUserMessage(renderConversation(tail)),
		},
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("run %s turn %d: summarization: %w", r.id, turn, err)
	}
	summary := resp.Message.Text()

	r.sealed = append(r.sealed, model.CloneMessages(r.active))
	active := make([]model.Message, 0, split+1)
	active = append(active, model.CloneMessages(r.active[:split])...)
	active = append(active, model.NewUserMessage(fmt.Sprintf(bridgeTemplate, summary)))
	r.active = active
	r.summarizedTurn = turn

	log.Debugf("run %s turn %d: summarized %d messages into bridge", r.id, turn, len(tail))
	a.publish(ctx, event.New(event.SummarizationComplete, r.id, a.name,
		event.WithTurn(turn), event.WithPayload(summary)))
	return nil
}

// renderConversation flattens messages into the text block handed to the
// summarization call. Exhaustive over roles so a new role is a compile-time
// visible decision here.
func renderConversation(messages []model.Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			fmt.Fprintf(&b, "[system]: %s\n", m.Text())
		case model.RoleUser:
			fmt.Fprintf(&b, "[user]: %s\n", m.Text())
		case model.RoleAssistant:
			if text := m.Text(); text != "" {
				fmt.Fprintf(&b, "[assistant]: %s\n", text)
			}
			for _, call := range m.ToolCalls {
				fmt.Fprintf(&b, "[assistant tool call]: %s(%s)\n", call.Name, string(call.Arguments))
			}
		case model.RoleTool:
			fmt.Fprintf(&b, "[tool %s]: %s\n", m.ToolName, m.Text())
		default:
			fmt.Fprintf(&b, "[%s]: %s\n", m.Role, m.Text())
		}
	}
	return b.String()
}
