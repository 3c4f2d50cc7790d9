// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package golette

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/golette/golette"

// TracingRecorder is a Recorder that opens one OpenTelemetry span per
// dispatched scope. The span carries the scope type, method, and path, and
// is ended with the dispatch outcome.
//
// It uses the globally registered TracerProvider; exporter setup belongs
// to the host application.
type TracingRecorder struct {
	tracer trace.Tracer
}

// NewTracingRecorder returns a TracingRecorder bound to the global
// TracerProvider.
func NewTracingRecorder() *TracingRecorder {
	return &TracingRecorder{tracer: otel.Tracer(tracerName)}
}

// OnScopeStart opens the span and returns the span-carrying context.
func (t *TracingRecorder) OnScopeStart(ctx context.Context, scope Scope) context.Context {
	name := scope.Type.String()
	if scope.Type == ScopeHTTP {
		name = scope.Method + " " + scope.Path
	}
	ctx, _ = t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("golette.scope", scope.Type.String()),
			attribute.String("http.request.method", scope.Method),
			attribute.String("url.path", scope.Path),
		),
	)
	return ctx
}

// OnScopeEnd records the outcome and ends the span.
func (t *TracingRecorder) OnScopeEnd(ctx context.Context, _ Scope, status int, _ time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}
