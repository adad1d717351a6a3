//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversByName(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(ToolStart, func(_ context.Context, e *Event) error {
		got = append(got, e.Name)
		return nil
	})

	bus.Publish(context.Background(), New(ToolStart, "run-1", "a"))
	bus.Publish(context.Background(), New(ToolComplete, "run-1", "a"))

	assert.Equal(t, []string{ToolStart}, got)
}

func TestBusSubscribeAllSeesEverythingInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.SubscribeAll(func(_ context.Context, e *Event) error {
		got = append(got, e.Name)
		return nil
	})

	for _, name := range []string{RunStart, TurnStart, MessageAssistant, ToolStart, ToolComplete, TurnComplete} {
		bus.Publish(context.Background(), New(name, "run-1", "a"))
	}

	require.Len(t, got, 6)
	// The assistant message must precede the first tool:start.
	assert.Equal(t, MessageAssistant, got[2])
	assert.Equal(t, ToolStart, got[3])
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	cancel := bus.Subscribe(RunStart, func(_ context.Context, _ *Event) error {
		calls++
		return nil
	})

	bus.Publish(context.Background(), New(RunStart, "run-1", "a"))
	cancel()
	bus.Publish(context.Background(), New(RunStart, "run-1", "a"))

	assert.Equal(t, 1, calls)
}

func TestBusIsolatesSubscriberFailures(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(RunStart, func(_ context.Context, _ *Event) error {
		return errors.New("subscriber exploded")
	})
	bus.Subscribe(RunStart, func(_ context.Context, _ *Event) error {
		panic("worse")
	})
	reached := false
	bus.Subscribe(RunStart, func(_ context.Context, _ *Event) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), New(RunStart, "run-1", "a"))
	assert.True(t, reached)
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), New(RunStart, "run-1", "a"))
	})
}
