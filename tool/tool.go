// Package tool provides tool interfaces, the registry and tool providers for
// the agent core.
package tool

import (
	"context"
)

// Tool is the common interface of everything executable by an agent.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool defines the interface for tools that support calling
// operations.
type CallableTool interface {
	// Call calls the tool with the provided context and validated JSON
	// arguments. Returns the result of execution or an error if the
	// operation fails.
	Call(ctx context.Context, jsonArgs []byte) (*Result, error)

	Tool
}

// Declaration describes the metadata of a tool, such as its name, description
// and expected arguments.
type Declaration struct {
	// Name is the process-unique identifier of the tool.
	Name string `json:"name"`

	// Description explains the tool's purpose and functionality.
	Description string `json:"description"`

	// InputSchema defines the expected input for the tool in JSON schema
	// format. Nil when the tool takes no arguments.
	InputSchema *Schema `json:"inputSchema,omitempty"`
}

// Result is the outcome of one tool invocation.
type Result struct {
	// Content is the text surfaced to the model as the tool result.
	Content string `json:"content"`

	// Metadata is an optional value collected into the run's per-tool
	// aggregator. Values implementing metadata.Addable are folded across
	// the run; anything else is retained as an ordered list.
	Metadata any `json:"metadata,omitempty"`
}
