//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorFoldsCounts(t *testing.T) {
	agg := NewAggregator()
	agg.Record("search", ToolUseCount(1))
	agg.Record("search", ToolUseCount(2))
	agg.Record("search", ToolUseCount(3))

	snap := agg.Snapshot()
	assert.Equal(t, ToolUseCount(6), snap["search"])
}

func TestAggregatorFoldIsAssociative(t *testing.T) {
	left := NewAggregator()
	left.Record("t", ToolUseCount(1))
	left.Record("t", ToolUseCount(2))
	partial, ok := left.Snapshot()["t"].(ToolUseCount)
	require.True(t, ok)

	right := NewAggregator()
	right.Record("t", partial)
	right.Record("t", ToolUseCount(3))
	assert.Equal(t, ToolUseCount(6), right.Snapshot()["t"])
}

func TestAggregatorTokenTally(t *testing.T) {
	agg := NewAggregator()
	agg.Record("token_usage", TokenTally{InputTokens: 800, OutputTokens: 200})
	agg.Record("token_usage", TokenTally{InputTokens: 100, OutputTokens: 50, ReasoningTokens: 10})

	assert.Equal(t, TokenTally{
		InputTokens:     900,
		OutputTokens:    250,
		ReasoningTokens: 10,
	}, agg.Snapshot()["token_usage"])
}

func TestAggregatorKeepsNonAddablesOrdered(t *testing.T) {
	agg := NewAggregator()
	agg.Record("child", "first")
	agg.Record("child", "second")

	snap := agg.Snapshot()
	assert.Equal(t, []any{"first", "second"}, snap["child"])
}

func TestAggregatorSingleNonAddableIsStillAList(t *testing.T) {
	agg := NewAggregator()
	agg.Record("child", "only")
	assert.Equal(t, []any{"only"}, agg.Snapshot()["child"])
}

func TestAggregatorMixedTypesFallBackToList(t *testing.T) {
	agg := NewAggregator()
	agg.Record("t", ToolUseCount(1))
	agg.Record("t", ByteCount(42))

	assert.Equal(t, []any{ToolUseCount(1), ByteCount(42)}, agg.Snapshot()["t"])
}

func TestAggregatorEmptyKeyYieldsNoEntry(t *testing.T) {
	agg := NewAggregator()
	agg.Record("t", nil)

	snap := agg.Snapshot()
	_, ok := snap["t"]
	assert.False(t, ok)
	assert.Empty(t, agg.Keys())
}
