//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package event provides the synchronous event system for run observability.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the agent core.
const (
	RunStart    = "run:start"
	RunComplete = "run:complete"
	RunError    = "run:error"

	TurnStart    = "turn:start"
	TurnComplete = "turn:complete"

	MessageAssistant = "message:assistant"

	ToolStart    = "tool:start"
	ToolComplete = "tool:complete"
	ToolError    = "tool:error"

	SummarizationStart    = "summarization:start"
	SummarizationComplete = "summarization:complete"
)

// Event is one observable state transition in an agent run.
type Event struct {
	// ID is the unique identifier of the event.
	ID string `json:"id"`
	// Name is the event name, one of the constants above.
	Name string `json:"name"`
	// RunID identifies the run that emitted the event.
	RunID string `json:"run_id"`
	// AgentName is the name of the emitting agent.
	AgentName string `json:"agent_name"`
	// Turn is the 1-based turn number, 0 for run-scoped events.
	Turn int `json:"turn,omitempty"`
	// Timestamp is the emission time.
	Timestamp time.Time `json:"timestamp"`
	// Payload carries event-specific data (message, tool call, error text).
	// It is not interpreted by the bus.
	Payload any `json:"payload,omitempty"`
}

// Option configures an Event.
type Option func(*Event)

// WithTurn sets the turn number for the event.
func WithTurn(turn int) Option {
	return func(e *Event) {
		e.Turn = turn
	}
}

// WithPayload sets the payload for the event.
func WithPayload(payload any) Option {
	return func(e *Event) {
		e.Payload = payload
	}
}

// New creates a new Event with generated ID and timestamp.
func New(name, runID, agentName string, opts ...Option) *Event {
	e := &Event{
		ID:        uuid.New().String(),
		Name:      name,
		RunID:     runID,
		AgentName: agentName,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
