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
	"net/http"
	"reflect"
	"sync"
)

// ErrorHandler converts an error flowing out of dispatch into a response.
// Returning nil falls through to the default handling.
type ErrorHandler func(ctx context.Context, req *Request, err error) *Response

// Application owns the route table, middleware chain, lifecycle hooks,
// exception handlers, and shared state, and dispatches inbound scopes.
//
// Lifecycle has two phases. During setup, registration methods (AddRoute,
// Use, OnStartup, ...) may be called from one goroutine. The first call to
// Handle freezes everything: the matcher becomes immutable, the middleware
// chain is ordered, and every route's handler is composed once. After the
// freeze all dispatch paths are lock-free and safe for unbounded
// concurrency; late registration fails with ErrFrozen.
//
// Example:
//
//	app := golette.MustNew(golette.WithLogger(slog.Default()))
//	app.Use(recovery.New())
//	app.OnStartup("db", openDatabase)
//	app.GET("/healthz", health)
//	app.WebSocket("/ws/echo", echo)
type Application struct {
	matcher  *Matcher
	mws      []Middleware
	chain    *Chain
	handlers map[RouteID]HandlerFunc
	composed map[RouteID]HandlerFunc
	wsRoutes map[RouteID]WebSocketHandler

	errHandlers map[reflect.Type]ErrorHandler
	fallback    ErrorHandler

	life  lifespan
	state *State

	logger   *slog.Logger
	recorder Recorder
	notFound HandlerFunc

	freezeOnce sync.Once
}

// New builds an Application with the given options.
func New(opts ...Option) (*Application, error) {
	app := &Application{
		matcher:     NewMatcher(),
		handlers:    make(map[RouteID]HandlerFunc),
		wsRoutes:    make(map[RouteID]WebSocketHandler),
		errHandlers: make(map[reflect.Type]ErrorHandler),
		state:       NewState(),
		logger:      noopLogger,
		recorder:    NoopRecorder(),
	}
	for _, opt := range opts {
		opt(app)
	}
	if err := app.validate(); err != nil {
		return nil, err
	}
	if app.notFound == nil {
		app.notFound = defaultNotFound
	}
	return app, nil
}

// MustNew is New that panics on error, for setup paths where a bad option
// is a programming mistake.
func MustNew(opts ...Option) *Application {
	app, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("golette: %v", err))
	}
	return app
}

// AddRoute registers handler for method and pattern.
func (a *Application) AddRoute(method, pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	if handler == nil {
		return nil, fmt.Errorf("%s %s: %w", method, pattern, ErrNilHandler)
	}
	r, err := a.matcher.Register(method, pattern, opts...)
	if err != nil {
		return nil, err
	}
	a.handlers[r.id] = handler
	return r, nil
}

// GET registers handler for GET requests on pattern.
func (a *Application) GET(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodGet, pattern, handler, opts...)
}

// POST registers handler for POST requests on pattern.
func (a *Application) POST(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodPost, pattern, handler, opts...)
}

// PUT registers handler for PUT requests on pattern.
func (a *Application) PUT(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodPut, pattern, handler, opts...)
}

// PATCH registers handler for PATCH requests on pattern.
func (a *Application) PATCH(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodPatch, pattern, handler, opts...)
}

// DELETE registers handler for DELETE requests on pattern.
func (a *Application) DELETE(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodDelete, pattern, handler, opts...)
}

// HEAD registers handler for HEAD requests on pattern.
func (a *Application) HEAD(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodHead, pattern, handler, opts...)
}

// OPTIONS registers handler for OPTIONS requests on pattern.
func (a *Application) OPTIONS(pattern string, handler HandlerFunc, opts ...RouteOption) (*Route, error) {
	return a.AddRoute(http.MethodOptions, pattern, handler, opts...)
}

// WebSocket registers handler for WebSocket connections on pattern.
// WebSocket routes share the path grammar with HTTP routes but live in
// their own tree.
func (a *Application) WebSocket(pattern string, handler WebSocketHandler, opts ...RouteOption) (*Route, error) {
	if handler == nil {
		return nil, fmt.Errorf("websocket %s: %w", pattern, ErrNilHandler)
	}
	r, err := a.matcher.Register(MethodWebSocket, pattern, opts...)
	if err != nil {
		return nil, err
	}
	a.wsRoutes[r.id] = handler
	return r, nil
}

// Use appends middleware to the chain. Ordering across priorities is
// resolved at freeze time; equal priorities keep the order given here.
func (a *Application) Use(mws ...Middleware) {
	a.mws = append(a.mws, mws...)
}

// AddErrorHandler registers handler for errors whose dynamic type matches
// sample's. Lookup walks the error's Unwrap chain outermost-first, so the
// most specific wrapper wins. A handler registered for *HTTPError replaces
// the built-in one.
func (a *Application) AddErrorHandler(sample error, handler ErrorHandler) {
	a.errHandlers[reflect.TypeOf(sample)] = handler
}

// SetFallbackErrorHandler replaces the last-resort handler that runs when
// no registered handler claims the error. The default logs and returns a
// plain 500.
func (a *Application) SetFallbackErrorHandler(handler ErrorHandler) {
	a.fallback = handler
}

// OnStartup registers a named startup hook. Hooks run in registration
// order when the lifespan scope starts; the first failure aborts startup.
func (a *Application) OnStartup(name string, hook LifespanHook) {
	a.life.startup = append(a.life.startup, namedHook{name: name, fn: hook})
}

// OnShutdown registers a named shutdown hook. Hooks run in reverse
// registration order, best-effort: a failure is logged and the remaining
// hooks still run.
func (a *Application) OnShutdown(name string, hook LifespanHook) {
	a.life.shutdown = append(a.life.shutdown, namedHook{name: name, fn: hook})
}

// State returns the application-wide state store.
func (a *Application) State() *State { return a.state }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// LifespanState returns the current lifecycle phase.
func (a *Application) LifespanState() LifespanState { return a.life.current() }

// Routes returns the registered routes in registration order. Safe to call
// concurrently with dispatch once the application is frozen.
func (a *Application) Routes() []*Route { return a.matcher.Routes() }

// URLFor reverses a named route into a concrete path.
func (a *Application) URLFor(name string, params map[string]string) (string, error) {
	return a.matcher.URLFor(name, params)
}

// freeze ends the registration phase: orders the chain and composes every
// HTTP route's handler once so dispatch is a map lookup plus a call.
func (a *Application) freeze() {
	a.freezeOnce.Do(func() {
		a.matcher.Freeze()
		a.chain = NewChain(a.mws...)
		a.composed = make(map[RouteID]HandlerFunc, len(a.handlers))
		for id, h := range a.handlers {
			a.composed[id] = a.chain.Then(h)
		}
	})
}

// defaultNotFound is the synthetic handler behind unmatched paths when no
// WithNotFoundHandler option is given.
func defaultNotFound(_ context.Context, _ *Request) (*Response, error) {
	return Text(http.StatusNotFound, "Not Found"), nil
}
