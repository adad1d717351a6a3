//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package model provides the generation contract and conversation data model.
package model

import (
	"context"
	"errors"
)

// ErrContextExceeded is returned by a Generator when the request does not fit
// the model's context window. Adapters must map their provider's overflow
// condition to this sentinel (wrapped is fine) so the agent loop can tell it
// apart from a transport failure.
var ErrContextExceeded = errors.New("model context window exceeded")

// ToolDeclaration describes one tool offered to the model.
type ToolDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// InputSchema is the JSON schema of the tool parameters, nil when the
	// tool takes no arguments.
	InputSchema []byte `json:"input_schema,omitempty"`
}

// Request is a single generation request.
type Request struct {
	// Messages is the conversation so far, system message first.
	Messages []Message `json:"messages"`
	// Tools are the tool declarations offered for this generation, in
	// registration order.
	Tools []ToolDeclaration `json:"tools,omitempty"`
}

// Response is the assistant turn produced by one generation.
type Response struct {
	// Message is the assistant message, possibly carrying tool calls.
	Message Message `json:"message"`
	// Usage is the token usage of this generation, nil when the provider
	// does not report it.
	Usage *Usage `json:"usage,omitempty"`
}

// Generator is the model-client contract. Implementations wrap a concrete
// provider API; the core never sees wire formats.
type Generator interface {
	// Generate performs one request/response exchange. It returns
	// ErrContextExceeded (possibly wrapped) when the request overflows the
	// context window, and other errors for unrecoverable failures.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a model.
type Info struct {
	// Name is the model identifier.
	Name string
	// MaxContextTokens is the model's context budget.
	MaxContextTokens int
}
