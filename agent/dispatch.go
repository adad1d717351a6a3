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

	"github.com/google/uuid"

	"github.com/agentloop/agentloop-go/event"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/telemetry/trace"
)

// invalidArgumentsBody is the fixed text surfaced to the model on validation
// failure. The underlying validator error stays in the logs; its text is not
// fed back into the conversation.
const invalidArgumentsBody = "arguments are not valid"

// dispatch executes one tool call and converts every failure mode into a tool
// message; it never returns an error. The second return value is the decoded
// argument map, non-nil only when validation passed.
func (r *run) dispatch(ctx context.Context, turn int, call model.ToolCall) (model.Message, map[string]any) {
	a := r.agent
	callID := call.ID
	if callID == "" {
		callID = uuid.New().String()
	}
	a.publish(ctx, event.New(event.ToolStart, r.id, a.name,
		event.WithTurn(turn), event.WithPayload(call)))

	t, ok := r.registry.Lookup(call.Name)
	if !ok {
		msg := model.NewToolMessage(callID, call.Name,
			fmt.Sprintf("unknown tool %q", call.Name), false)
		a.publish(ctx, event.New(event.ToolError, r.id, a.name,
			event.WithTurn(turn), event.WithPayload(msg)))
		return msg, nil
	}

	validator := r.validators[call.Name]
	params, err := validator.Validate(call.Arguments)
	if err != nil {
		log.Debugf("run %s turn %d: tool %s arguments rejected: %v", r.id, turn, call.Name, err)
		msg := model.NewToolMessage(callID, call.Name, invalidArgumentsBody, false)
		a.publish(ctx, event.New(event.ToolError, r.id, a.name,
			event.WithTurn(turn), event.WithPayload(msg)))
		return msg, nil
	}

	callCtx, span := trace.Tracer.Start(ctx, trace.SpanNamePrefixExecuteTool+" "+call.Name)
	res, err := t.Call(callCtx, call.Arguments)
	if err != nil {
		span.RecordError(err)
		span.End()
		// Arguments were valid; execution failed. The run continues.
		msg := model.NewToolMessage(callID, call.Name,
			fmt.Sprintf("tool %s failed: %v", call.Name, err), true)
		a.publish(ctx, event.New(event.ToolError, r.id, a.name,
			event.WithTurn(turn), event.WithPayload(msg)))
		return msg, params
	}
	span.End()

	if res.Metadata != nil {
		r.agg.Record(call.Name, res.Metadata)
	}
	msg := model.NewToolMessage(callID, call.Name, res.Content, true)
	a.publish(ctx, event.New(event.ToolComplete, r.id, a.name,
		event.WithTurn(turn), event.WithPayload(msg)))
	return msg, params
}
