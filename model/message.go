//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package model

import "fmt"

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// PartType discriminates content block payloads.
type PartType string

// Part type constants.
const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image"
	PartTypeVideo PartType = "video"
	PartTypeAudio PartType = "audio"
)

// Part is one block of structured message content. Non-text blocks carry a
// self-describing payload reference (URL, data URI, provider file id) that the
// core never interprets.
type Part struct {
	Type PartType `json:"type"`
	// Text is the block text, set only for PartTypeText.
	Text string `json:"text,omitempty"`
	// Ref is the payload reference for image/video/audio blocks.
	Ref string `json:"ref,omitempty"`
	// MIMEType optionally describes the referenced payload.
	MIMEType string `json:"mime_type,omitempty"`
}

// Message represents a single message in a conversation.
//
// Content holds plain text; Parts holds structured block content. At most one
// of the two is set. ToolCalls is set only on assistant messages; ToolID,
// ToolName and ArgsValid only on tool messages.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	Parts     []Part     `json:"parts,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolID is the id of the tool call this message responds to.
	ToolID string `json:"tool_id,omitempty"`
	// ToolName is the name of the tool that produced this message.
	ToolName string `json:"tool_name,omitempty"`
	// ArgsValid reports whether the tool call arguments passed schema
	// validation before the handler ran. Meaningful only for RoleTool.
	ArgsValid bool `json:"args_valid,omitempty"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a new tool result message.
func NewToolMessage(toolID, toolName, content string, argsValid bool) Message {
	return Message{
		Role:      RoleTool,
		Content:   content,
		ToolID:    toolID,
		ToolName:  toolName,
		ArgsValid: argsValid,
	}
}

// Text returns the textual content of the message: Content when plain, the
// concatenation of text parts when structured.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			out += p.Text
		}
	}
	return out
}

// Validate checks structural message invariants.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser:
		if len(m.ToolCalls) > 0 {
			return fmt.Errorf("%s message cannot carry tool calls", m.Role)
		}
	case RoleAssistant:
		// Assistant messages may carry content, tool calls or both.
	case RoleTool:
		if m.ToolID == "" {
			return fmt.Errorf("tool message requires a tool call id")
		}
	default:
		return fmt.Errorf("unknown message role %q", m.Role)
	}
	return nil
}

// CloneMessages returns a deep copy of the message slice.
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m
		if len(m.Parts) > 0 {
			out[i].Parts = append([]Part(nil), m.Parts...)
		}
		if len(m.ToolCalls) > 0 {
			out[i].ToolCalls = make([]ToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				out[i].ToolCalls[j] = tc
				out[i].ToolCalls[j].Arguments = append([]byte(nil), tc.Arguments...)
			}
		}
	}
	return out
}

// ToolCall represents a call to a tool requested by the model.
type ToolCall struct {
	// ID is the call id returned by the model, used to pair the result.
	ID string `json:"id,omitempty"`
	// Name is the tool name.
	Name string `json:"name"`
	// Arguments is the raw encoded parameter blob, opaque to the core.
	Arguments []byte `json:"arguments,omitempty"`
}

// Usage represents token usage reported for one generation.
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
}

// Total returns the total token count of the generation.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.ReasoningTokens
}
