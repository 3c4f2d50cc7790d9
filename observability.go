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
	"io"
	"log/slog"
	"time"
)

// Recorder receives scope-level dispatch telemetry. Implementations must be
// safe for concurrent use; every dispatched scope calls OnScopeStart and,
// on a started scope, exactly one OnScopeEnd.
//
// The prometheus subpackage provides a metrics-backed Recorder and
// TracingRecorder in this package provides an OpenTelemetry one; the
// default is a no-op.
type Recorder interface {
	// OnScopeStart is called before dispatch. The returned context flows
	// through middleware and handler, so a Recorder can thread spans or
	// per-request values.
	OnScopeStart(ctx context.Context, scope Scope) context.Context

	// OnScopeEnd is called after the scope completes. status is the HTTP
	// status sent (0 for non-HTTP scopes), err the terminal error if the
	// dispatch failed after all recovery layers.
	OnScopeEnd(ctx context.Context, scope Scope, status int, duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) OnScopeStart(ctx context.Context, _ Scope) context.Context { return ctx }
func (noopRecorder) OnScopeEnd(context.Context, Scope, int, time.Duration, error) {
}

// NoopRecorder returns a Recorder that records nothing.
func NoopRecorder() Recorder { return noopRecorder{} }

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns a logger that discards everything. It is the default
// when an Application is built without WithLogger.
func NoopLogger() *slog.Logger { return noopLogger }
