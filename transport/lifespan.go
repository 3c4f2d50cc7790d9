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

package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/golette/golette"
)

// Lifespan drives an application's lifespan scope from the transport side:
// Startup runs the startup hooks before the listener opens, Shutdown runs
// the shutdown hooks after it drains.
type Lifespan struct {
	app     *golette.Application
	events  chan golette.Event
	outcome chan golette.Event
	done    chan error
	failed  bool
	started bool
}

// NewLifespan dispatches the lifespan scope on its own goroutine and
// returns the driver. The scope stays pending until Startup is called.
func NewLifespan(app *golette.Application) *Lifespan {
	l := &Lifespan{
		app:     app,
		events:  make(chan golette.Event),
		outcome: make(chan golette.Event, 1),
		done:    make(chan error, 1),
	}

	receive := func(ctx context.Context) (golette.Event, error) {
		select {
		case ev := <-l.events:
			return ev, nil
		case <-ctx.Done():
			return golette.Event{}, ctx.Err()
		}
	}
	send := func(ctx context.Context, ev golette.Event) error {
		select {
		case l.outcome <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		scope := golette.Scope{Type: golette.ScopeLifespan}
		l.done <- app.Handle(context.Background(), scope, receive, send)
	}()
	return l
}

// Startup runs the startup hooks and blocks until they complete or fail.
func (l *Lifespan) Startup(ctx context.Context) error {
	select {
	case l.events <- golette.Event{Type: golette.EventLifespanStartup}:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.started = true

	select {
	case ev := <-l.outcome:
		if ev.Type == golette.EventLifespanStartupFailed {
			l.failed = true
			return fmt.Errorf("startup: %s", ev.Text)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown runs the shutdown hooks and blocks until they finish. Calling
// it after a failed or never-run startup is a no-op.
func (l *Lifespan) Shutdown(ctx context.Context) error {
	if !l.started || l.failed {
		return nil
	}
	select {
	case l.events <- golette.Event{Type: golette.EventLifespanShutdown}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case ev := <-l.outcome:
		if ev.Type == golette.EventLifespanShutdownFailed {
			return errors.New(ev.Text)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
