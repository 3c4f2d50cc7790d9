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
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LifespanState is the phase of the application lifecycle.
type LifespanState int32

const (
	// LifespanNotStarted means no lifespan scope has been dispatched.
	// Request dispatch is uncoupled from the lifecycle in this state, so
	// embedders that never drive a lifespan scope still work.
	LifespanNotStarted LifespanState = iota
	// LifespanStarting means startup hooks are running.
	LifespanStarting
	// LifespanStarted means startup completed and requests are served.
	LifespanStarted
	// LifespanShuttingDown means shutdown hooks are running.
	LifespanShuttingDown
	// LifespanStopped means shutdown completed.
	LifespanStopped
	// LifespanFailed is terminal: a startup hook failed.
	LifespanFailed
)

func (s LifespanState) String() string {
	switch s {
	case LifespanNotStarted:
		return "not-started"
	case LifespanStarting:
		return "starting"
	case LifespanStarted:
		return "started"
	case LifespanShuttingDown:
		return "shutting-down"
	case LifespanStopped:
		return "stopped"
	case LifespanFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LifespanHook is a startup or shutdown callback.
type LifespanHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   LifespanHook
}

// lifespan owns the lifecycle state machine and the hook lists. Hooks are
// appended during registration; state transitions happen on the single
// goroutine driving the lifespan scope, with the state itself atomic so
// concurrent request dispatches can consult the gate.
type lifespan struct {
	state    atomic.Int32
	startup  []namedHook
	shutdown []namedHook
}

func (l *lifespan) current() LifespanState {
	return LifespanState(l.state.Load())
}

// gated reports whether request dispatch must be refused with a synthetic
// 503 in the current state. Not-started is open: an embedder that never
// drives a lifespan scope gets uncoupled dispatch.
func (l *lifespan) gated() bool {
	switch l.current() {
	case LifespanStarting, LifespanFailed, LifespanShuttingDown, LifespanStopped:
		return true
	default:
		return false
	}
}

// run drives one lifespan scope: waits for the startup event, runs startup
// hooks in registration order (first failure aborts and is reported as
// LifespanStartupFailed), then waits for the shutdown event and runs
// shutdown hooks in reverse registration order, best-effort.
func (l *lifespan) run(ctx context.Context, receive ReceiveFunc, send SendFunc, logger *slog.Logger) error {
	ev, err := receive(ctx)
	if err != nil {
		return fmt.Errorf("lifespan receive: %w", err)
	}
	if ev.Type != EventLifespanStartup {
		return fmt.Errorf("lifespan: event %s: %w", ev.Type, ErrUnexpectedEvent)
	}

	l.state.Store(int32(LifespanStarting))
	for _, h := range l.startup {
		if err := h.fn(ctx); err != nil {
			l.state.Store(int32(LifespanFailed))
			hookErr := &LifespanHookError{Event: "startup", Hook: h.name, Err: err}
			logger.ErrorContext(ctx, "startup hook failed",
				slog.String("hook", h.name),
				slog.String("error", err.Error()),
			)
			if serr := send(ctx, Event{Type: EventLifespanStartupFailed, Text: hookErr.Error()}); serr != nil {
				return fmt.Errorf("lifespan send: %w", serr)
			}
			return hookErr
		}
	}
	l.state.Store(int32(LifespanStarted))
	if err := send(ctx, Event{Type: EventLifespanStartupComplete}); err != nil {
		return fmt.Errorf("lifespan send: %w", err)
	}

	ev, err = receive(ctx)
	if err != nil {
		return fmt.Errorf("lifespan receive: %w", err)
	}
	if ev.Type != EventLifespanShutdown {
		return fmt.Errorf("lifespan: event %s: %w", ev.Type, ErrUnexpectedEvent)
	}

	l.state.Store(int32(LifespanShuttingDown))
	var firstErr *LifespanHookError
	for i := len(l.shutdown) - 1; i >= 0; i-- {
		h := l.shutdown[i]
		if err := h.fn(ctx); err != nil {
			logger.ErrorContext(ctx, "shutdown hook failed",
				slog.String("hook", h.name),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = &LifespanHookError{Event: "shutdown", Hook: h.name, Err: err}
			}
		}
	}
	l.state.Store(int32(LifespanStopped))

	if firstErr != nil {
		if serr := send(ctx, Event{Type: EventLifespanShutdownFailed, Text: firstErr.Error()}); serr != nil {
			return fmt.Errorf("lifespan send: %w", serr)
		}
		return firstErr
	}
	if err := send(ctx, Event{Type: EventLifespanShutdownComplete}); err != nil {
		return fmt.Errorf("lifespan send: %w", err)
	}
	return nil
}
