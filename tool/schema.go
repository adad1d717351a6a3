//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema represents the structure of JSON Schema used for defining arguments.
// It follows the JSON Schema standard, supporting various types, properties
// and validation rules.
type Schema struct {
	// Type specifies the data type (e.g., "object", "array", "string").
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items defines the schema of array items, for array types.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether properties not defined in
	// Properties are allowed.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Enum restricts a value to a fixed set.
	Enum []any `json:"enum,omitempty"`
}

// Compile compiles the schema into a validator. A nil schema compiles to a
// validator accepting only an empty object.
func (s *Schema) Compile(name string) (*Validator, error) {
	doc := "{\"type\":\"object\",\"additionalProperties\":false}"
	if s != nil {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", name, err)
		}
		doc = string(raw)
	}
	compiled, err := jsonschema.CompileString(name+".json", doc)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}
	return &Validator{schema: compiled}, nil
}

// Validator validates encoded tool arguments against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Validate decodes jsonArgs and validates the result. An empty argument blob
// is treated as an empty object, not an error.
func (v *Validator) Validate(jsonArgs []byte) (map[string]any, error) {
	if len(jsonArgs) == 0 {
		jsonArgs = []byte("{}")
	}
	var payload any
	if err := json.Unmarshal(jsonArgs, &payload); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := v.schema.Validate(payload); err != nil {
		return nil, err
	}
	params, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}
	return params, nil
}
