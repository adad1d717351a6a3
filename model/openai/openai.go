//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides a model.Generator over OpenAI-compatible chat
// completion APIs.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/model"
)

// contextLengthExceededCode is the API error code for requests that overflow
// the model context window.
const contextLengthExceededCode = "context_length_exceeded"

// Model is a non-streaming Generator backed by a chat completions endpoint.
type Model struct {
	name             string
	maxContextTokens int
	client           openai.Client
}

type options struct {
	apiKey           string
	baseURL          string
	maxContextTokens int
	extraOpts        []openaiopt.RequestOption
}

// Option configures the Model.
type Option func(*options)

// WithAPIKey sets the API key. Without it the client falls back to the
// OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithMaxContextTokens declares the model's context budget, used by the agent
// loop to decide when to summarize.
func WithMaxContextTokens(n int) Option {
	return func(o *options) {
		o.maxContextTokens = n
	}
}

// WithClientOptions passes request options through to the underlying client.
func WithClientOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.extraOpts = append(o.extraOpts, opts...)
	}
}

// New creates a Model for the named chat model.
func New(name string, opts ...Option) *Model {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.extraOpts...)

	return &Model{
		name:             name,
		maxContextTokens: o.maxContextTokens,
		client:           openai.NewClient(clientOpts...),
	}
}

// Info implements model.Generator.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:             m.name,
		MaxContextTokens: m.maxContextTokens,
	}
}

// Generate implements model.Generator. Context-window overflows are mapped to
// model.ErrContextExceeded so the agent loop can react with summarization.
func (m *Model) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(req.Messages),
		Tools:    convertTools(req.Tools),
	}

	completion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		if isContextExceeded(err) {
			return nil, fmt.Errorf("%w: %v", model.ErrContextExceeded, err)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	choice := completion.Choices[0]
	msg := model.Message{
		Role:    model.RoleAssistant,
		Content: choice.Message.Content,
	}
	for j, call := range choice.Message.ToolCalls {
		id := call.ID
		if id == "" {
			// Some providers omit the call id.
			id = fmt.Sprintf("auto_call_%d", j)
		}
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: []byte(call.Function.Arguments),
		})
	}

	resp := &model.Response{Message: msg}
	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		resp.Usage = &model.Usage{
			InputTokens:     int(completion.Usage.PromptTokens),
			OutputTokens:    int(completion.Usage.CompletionTokens),
			ReasoningTokens: int(completion.Usage.CompletionTokensDetails.ReasoningTokens),
		}
	}
	return resp, nil
}

func isContextExceeded(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == contextLengthExceededCode {
			return true
		}
		return strings.Contains(apiErr.Message, "maximum context length")
	}
	return false
}

// convertMessages maps our conversation onto the wire format, exhaustively
// over roles.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Text()),
					},
				},
			})
		case model.RoleUser:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: convertUserContent(msg),
				},
			})
		case model.RoleAssistant:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Text()),
					},
					ToolCalls: convertToolCalls(msg.ToolCalls),
				},
			})
		case model.RoleTool:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolID,
				},
			})
		default:
			log.Warnf("dropping message with unknown role %q", msg.Role)
		}
	}
	return result
}

func convertUserContent(msg model.Message) openai.ChatCompletionUserMessageParamContentUnion {
	if len(msg.Parts) == 0 {
		return openai.ChatCompletionUserMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	var parts []openai.ChatCompletionContentPartUnionParam
	for _, part := range msg.Parts {
		switch part.Type {
		case model.PartTypeText:
			parts = append(parts, openai.ChatCompletionContentPartUnionParam{
				OfText: &openai.ChatCompletionContentPartTextParam{Text: part.Text},
			})
		case model.PartTypeImage:
			parts = append(parts, openai.ChatCompletionContentPartUnionParam{
				OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
						URL: part.Ref,
					},
				},
			})
		case model.PartTypeVideo, model.PartTypeAudio:
			log.Warnf("dropping unsupported %s content part", part.Type)
		default:
			log.Warnf("dropping content part of unknown type %q", part.Type)
		}
	}
	return openai.ChatCompletionUserMessageParamContentUnion{
		OfArrayOfContentParts: parts,
	}
}

func convertToolCalls(calls []model.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, call := range calls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: string(call.Arguments),
			},
		})
	}
	return result
}

func convertTools(tools []model.ToolDeclaration) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, decl := range tools {
		var parameters shared.FunctionParameters
		if len(decl.InputSchema) > 0 {
			if err := json.Unmarshal(decl.InputSchema, &parameters); err != nil {
				log.Errorf("failed to unmarshal tool schema for %s: %v", decl.Name, err)
				continue
			}
		}
		result = append(result, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  parameters,
			},
		})
	}
	return result
}
