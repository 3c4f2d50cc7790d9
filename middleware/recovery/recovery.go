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

// Package recovery provides a middleware that converts panics in inner
// layers and handlers into 500 responses.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/golette/golette"
)

// Option defines functional options for recovery middleware configuration.
type Option func(*config)

type config struct {
	// stackTrace enables capturing a stack trace on panic
	stackTrace bool

	// stackSize caps the captured stack trace in bytes
	stackSize int

	// logger receives panic reports
	logger *slog.Logger

	// handler builds the response sent after a recovered panic
	handler func(ctx context.Context, req *golette.Request, v any) *golette.Response
}

func defaultConfig() *config {
	return &config{
		stackTrace: true,
		stackSize:  4 << 10, // 4KB
		logger:     slog.Default(),
		handler:    defaultHandler,
	}
}

func defaultHandler(_ context.Context, _ *golette.Request, _ any) *golette.Response {
	return golette.Text(http.StatusInternalServerError, "Internal Server Error")
}

// WithStackTrace enables or disables stack trace capture. Default on.
func WithStackTrace(enabled bool) Option {
	return func(c *config) { c.stackTrace = enabled }
}

// WithStackSize caps the captured stack trace size in bytes.
func WithStackSize(size int) Option {
	return func(c *config) { c.stackSize = size }
}

// WithLogger sets the logger for panic reports.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithHandler replaces the response built after a recovered panic.
func WithHandler(h func(ctx context.Context, req *golette.Request, v any) *golette.Response) Option {
	return func(c *config) { c.handler = h }
}

// New returns a middleware that recovers from panics in inner layers.
// It logs the panic, annotates the active span, and returns a 500 response
// in place of the crash.
//
// Register it first (or with the lowest priority) so it sits outermost and
// catches panics from every other layer:
//
//	app := golette.MustNew()
//	app.Use(recovery.New().WithPriority(-100))
func New(opts ...Option) golette.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return golette.Wrap("recovery", func(next golette.HandlerFunc) golette.HandlerFunc {
		return func(ctx context.Context, req *golette.Request) (resp *golette.Response, err error) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}

				var stack []byte
				if cfg.stackTrace {
					stack = make([]byte, cfg.stackSize)
					stack = stack[:runtime.Stack(stack, false)]
				}

				// Panics are the one place exception.escaped is set.
				if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
					span.SetStatus(codes.Error, "panic recovered")
					span.SetAttributes(
						attribute.Bool("exception.escaped", true),
						attribute.String("exception.type", fmt.Sprintf("%T", v)),
						attribute.String("exception.message", fmt.Sprintf("%v", v)),
					)
				}

				cfg.logger.ErrorContext(ctx, "panic recovered",
					slog.String("method", req.Method()),
					slog.String("path", req.Path()),
					slog.Any("panic", v),
					slog.String("stack", string(stack)),
				)

				resp = cfg.handler(ctx, req, v)
				err = nil
			}()
			return next(ctx, req)
		}
	})
}
