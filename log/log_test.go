//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo)

	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		SetLevel(tt.level)
		assert.Equal(t, tt.want, zapLevel.Level(), "level %q", tt.level)
	}
}

type capturingLogger struct {
	Logger
	messages []string
}

func (c *capturingLogger) Debugf(format string, args ...any) { c.messages = append(c.messages, format) }
func (c *capturingLogger) Infof(format string, args ...any)  { c.messages = append(c.messages, format) }

func TestDefaultReplaceable(t *testing.T) {
	orig := Default
	defer func() { Default = orig }()

	cap := &capturingLogger{}
	Default = cap

	Debugf("first %s", "msg")
	Infof("second %s", "msg")
	assert.Equal(t, []string{"first %s", "second %s"}, cap.messages)
}
