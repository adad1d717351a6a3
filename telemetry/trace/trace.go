//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package trace exposes the tracer used by the agent core. The default is the
// global otel tracer provider; host applications that install an SDK provider
// get spans for free, everyone else gets no-ops.
package trace

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/agentloop/agentloop-go"

// Tracer is the tracer instance used by the agent core. Replaceable for tests
// or custom providers.
var Tracer trace.Tracer = otel.Tracer(instrumentationName)

// Span name prefixes used by the agent core.
const (
	SpanNamePrefixGenerate    = "generate"
	SpanNamePrefixExecuteTool = "execute_tool"
	SpanNameSummarize         = "summarize_context"
)

// SetTracerProvider replaces the tracer with one from the given provider.
func SetTracerProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(instrumentationName)
}
