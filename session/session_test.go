//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseRunsDisposersInReverseOrder(t *testing.T) {
	s := New()
	var order []string
	s.Defer("A", func() error { order = append(order, "A"); return nil })
	s.Defer("B", func() error { order = append(order, "B"); return nil })
	s.Defer("C", func() error { order = append(order, "C"); return nil })

	require.NoError(t, s.Close())
	assert.Equal(t, []string{"C", "B", "A"}, order)
}

func TestCloseContinuesPastFailures(t *testing.T) {
	s := New()
	var order []string
	failB := errors.New("b broke")
	s.Defer("A", func() error { order = append(order, "A"); return nil })
	s.Defer("B", func() error { order = append(order, "B"); return failB })
	s.Defer("C", func() error { order = append(order, "C"); return nil })

	err := s.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, failB)
	assert.Equal(t, []string{"C", "B", "A"}, order)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New()
	calls := 0
	s.Defer("A", func() error { calls++; return nil })

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, calls)
}

func TestDeferAfterCloseReleasesImmediately(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	released := false
	s.Defer("late", func() error { released = true; return nil })
	assert.True(t, released)
}

func TestContextRoundTrip(t *testing.T) {
	s := New(WithDepth(2), WithOutputDir("/tmp/out"))
	ctx := NewContext(context.Background(), s)

	got := FromContext(ctx)
	require.Same(t, s, got)
	assert.Equal(t, 2, got.Depth())
	assert.Equal(t, "/tmp/out", got.OutputDir())

	assert.Nil(t, FromContext(context.Background()))
}

func TestUploadedFilesAndSkillsAreCopied(t *testing.T) {
	s := New()
	s.AddUploadedFile("a.txt")
	s.AddUploadedFile("b.txt")

	files := s.UploadedFiles()
	files[0] = "mutated"
	assert.Equal(t, []string{"a.txt", "b.txt"}, s.UploadedFiles())
}
