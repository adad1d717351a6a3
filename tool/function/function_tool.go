//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package function provides a generic way to wrap a Go function as a tool.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	ischema "github.com/agentloop/agentloop-go/internal/schema"
	"github.com/agentloop/agentloop-go/tool"
)

// Tool implements tool.CallableTool for a typed function. The input type's
// reflected JSON schema becomes the tool's parameter schema; the output is
// rendered into the result content.
type Tool[I any] struct {
	name        string
	description string
	inputSchema *tool.Schema
	fn          func(context.Context, I) (*tool.Result, error)
}

// Option is a function that configures a Tool.
type Option func(*options)

type options struct {
	name        string
	description string
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// New creates a tool wrapping fn. The schema is reflected from I; use
// struct{} for tools without arguments (the declaration then carries a nil
// schema).
func New[I any](fn func(context.Context, I) (*tool.Result, error), opts ...Option) *Tool[I] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var empty I
	t := reflect.TypeOf(empty)
	var s *tool.Schema
	if t != nil && !(t.Kind() == reflect.Struct && t.NumField() == 0) {
		s = ischema.Generate(t)
	}

	return &Tool[I]{
		name:        o.name,
		description: o.description,
		inputSchema: s,
		fn:          fn,
	}
}

// Call executes the function tool with the provided JSON arguments.
func (t *Tool[I]) Call(ctx context.Context, jsonArgs []byte) (*tool.Result, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &input); err != nil {
			return nil, fmt.Errorf("unmarshal arguments for %s: %w", t.name, err)
		}
	}
	return t.fn(ctx, input)
}

// Declaration returns the tool's declaration information.
func (t *Tool[I]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.inputSchema,
	}
}
