//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"context"
	"sync"

	"github.com/agentloop/agentloop-go/log"
)

// Handler consumes one event. Handlers run inline on the publishing
// goroutine; a slow handler delays the run.
type Handler func(ctx context.Context, e *Event) error

// Bus is a synchronous in-process publish/subscribe mechanism keyed by event
// name. Publication never alters run control flow: handler errors are logged
// and handler panics are recovered.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	// all receives every event regardless of name.
	all []subscription
}

type subscription struct {
	id int
	h  Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for the given event name and returns an
// unsubscribe function.
func (b *Bus) Subscribe(name string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, h: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[name] = remove(b.subs[name], id)
	}
}

// SubscribeAll registers a handler for every event and returns an
// unsubscribe function.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, h: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

// Publish delivers the event to all matching subscribers in subscription
// order, synchronously. A nil bus or nil event is a no-op.
func (b *Bus) Publish(ctx context.Context, e *Event) {
	if b == nil || e == nil {
		return
	}
	b.mu.RLock()
	targets := make([]subscription, 0, len(b.subs[e.Name])+len(b.all))
	targets = append(targets, b.subs[e.Name]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, sub := range targets {
		deliver(ctx, sub.h, e)
	}
}

func deliver(ctx context.Context, h Handler, e *Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("event subscriber panicked on %s: %v", e.Name, r)
		}
	}()
	if err := h(ctx, e); err != nil {
		log.Warnf("event subscriber failed on %s: %v", e.Name, err)
	}
}

func remove(subs []subscription, id int) []subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
