//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name    string
	content string
}

func (f *fakeTool) Declaration() *Declaration {
	return &Declaration{Name: f.name, Description: "fake"}
}

func (f *fakeTool) Call(ctx context.Context, jsonArgs []byte) (*Result, error) {
	return &Result{Content: f.content}, nil
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "alpha"})

	got, ok := r.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Declaration().Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "dup", content: "first"})
	r.Register(&fakeTool{name: "dup", content: "second"})

	got, ok := r.Lookup("dup")
	require.True(t, ok)
	res, err := got.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Content)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryToolsPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "b"})
	r.Register(&fakeTool{name: "a"})
	r.Register(&fakeTool{name: "c"})

	var names []string
	for _, tl := range r.Tools() {
		names = append(names, tl.Declaration().Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestSchemaValidate(t *testing.T) {
	s := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"reason": {Type: "string"},
			"count":  {Type: "integer"},
		},
		Required: []string{"reason"},
	}
	v, err := s.Compile("finish")
	require.NoError(t, err)

	params, err := v.Validate([]byte(`{"reason":"done","count":2}`))
	require.NoError(t, err)
	assert.Equal(t, "done", params["reason"])

	_, err = v.Validate([]byte(`{"count":2}`))
	assert.Error(t, err, "missing required property")

	_, err = v.Validate([]byte(`{"reason":42}`))
	assert.Error(t, err, "wrong type")

	_, err = v.Validate([]byte(`not json`))
	assert.Error(t, err)
}

func TestSchemaValidateEmptyArgsMeansEmptyObject(t *testing.T) {
	v, err := (*Schema)(nil).Compile("noargs")
	require.NoError(t, err)

	params, err := v.Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, params)

	params, err = v.Validate([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, params)
}
