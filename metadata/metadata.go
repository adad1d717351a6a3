//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package metadata provides addable metadata values and per-tool aggregation.
package metadata

// Addable is implemented by metadata values supporting associative merge.
// Add returns the merged value and true, or the zero value and false when the
// other value is of an incompatible type.
type Addable interface {
	Add(other any) (any, bool)
}

// ToolUseCount counts tool invocations.
type ToolUseCount int

// Add merges two ToolUseCount values.
func (c ToolUseCount) Add(other any) (any, bool) {
	o, ok := other.(ToolUseCount)
	if !ok {
		return nil, false
	}
	return c + o, true
}

// ByteCount counts bytes produced or transferred by a tool.
type ByteCount int64

// Add merges two ByteCount values.
func (c ByteCount) Add(other any) (any, bool) {
	o, ok := other.(ByteCount)
	if !ok {
		return nil, false
	}
	return c + o, true
}

// TokenTally accumulates token usage across generations.
type TokenTally struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
}

// Add merges two TokenTally values.
func (t TokenTally) Add(other any) (any, bool) {
	o, ok := other.(TokenTally)
	if !ok {
		return nil, false
	}
	return TokenTally{
		InputTokens:     t.InputTokens + o.InputTokens,
		OutputTokens:    t.OutputTokens + o.OutputTokens,
		ReasoningTokens: t.ReasoningTokens + o.ReasoningTokens,
	}, true
}

// Aggregator collects per-key metadata values across a run.
//
// Addable values recorded under the same key are folded in call order via
// repeated Add. Values that are not Addable, or whose Add rejects the pairing,
// are retained as an ordered list instead. The aggregator is not safe for
// concurrent use; the run loop records strictly sequentially.
type Aggregator struct {
	entries map[string][]any
	order   []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[string][]any)}
}

// Record appends a metadata value for the given key. Nil values are ignored.
func (a *Aggregator) Record(key string, value any) {
	if value == nil {
		return
	}
	if _, seen := a.entries[key]; !seen {
		a.order = append(a.order, key)
	}
	a.entries[key] = append(a.entries[key], value)
}

// Keys returns the recorded keys in first-recorded order.
func (a *Aggregator) Keys() []string {
	return append([]string(nil), a.order...)
}

// Snapshot folds the recorded values and returns the aggregated map. A key
// with no recorded values yields no entry. A key whose values all folded
// yields the folded value; otherwise the ordered list of values is returned.
func (a *Aggregator) Snapshot() map[string]any {
	out := make(map[string]any, len(a.entries))
	for key, values := range a.entries {
		if len(values) == 0 {
			continue
		}
		out[key] = fold(values)
	}
	return out
}

func fold(values []any) any {
	if _, ok := values[0].(Addable); !ok {
		return append([]any(nil), values...)
	}
	acc := values[0]
	for _, v := range values[1:] {
		addable, ok := acc.(Addable)
		if !ok {
			return append([]any(nil), values...)
		}
		merged, ok := addable.Add(v)
		if !ok {
			return append([]any(nil), values...)
		}
		acc = merged
	}
	return acc
}
