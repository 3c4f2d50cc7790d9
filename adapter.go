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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"
)

// CloseTryAgainLater is the close code sent to WebSocket clients refused
// by the lifecycle gate.
const CloseTryAgainLater = 1013

// Handle dispatches one scope. It is the single entry point for
// transports: one call per HTTP request, per WebSocket connection, and per
// process lifespan.
//
// The first call freezes the application; registration afterward fails
// with ErrFrozen. Handle is safe for unbounded concurrent calls.
//
// The returned error reports transport-level failure (a send or receive
// that broke, a protocol violation, a failed lifespan hook). Application
// errors never escape: they are converted to responses by the error
// handlers and reported through the logger and Recorder.
func (a *Application) Handle(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
	a.freeze()

	switch scope.Type {
	case ScopeHTTP:
		return a.serveHTTP(ctx, scope, receive, send)
	case ScopeWebSocket:
		return a.serveWebSocket(ctx, scope, receive, send)
	case ScopeLifespan:
		return a.life.run(ctx, receive, send, a.logger)
	default:
		return fmt.Errorf("scope %d: %w", scope.Type, ErrUnsupportedScope)
	}
}

func (a *Application) serveHTTP(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
	start := time.Now()
	ctx = a.recorder.OnScopeStart(ctx, scope)

	req := &Request{scope: scope, state: a.state, receive: receive}

	if a.life.gated() {
		resp := Text(http.StatusServiceUnavailable, "Service Unavailable")
		return a.finishSynthetic(ctx, scope, start, req, resp, send)
	}

	match, err := a.matcher.Resolve(scope.Method, scope.Path)
	if err != nil {
		var mna *MethodNotAllowedError
		switch {
		case errors.As(err, &mna):
			resp := Text(http.StatusMethodNotAllowed, "Method Not Allowed")
			resp.Header.Set("Allow", strings.Join(mna.Allowed, ", "))
			return a.finishSynthetic(ctx, scope, start, req, resp, send)
		case errors.Is(err, ErrNoMatch):
			resp, nfErr := a.notFound(ctx, req)
			if nfErr != nil || resp == nil {
				resp = Text(http.StatusInternalServerError, "Internal Server Error")
			}
			return a.finishSynthetic(ctx, scope, start, req, resp, send)
		default:
			a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), err)
			return fmt.Errorf("resolve %s %s: %w", scope.Method, scope.Path, err)
		}
	}

	req.route = match.Route
	req.Params = match.Params

	resp, handlerErr := a.composed[match.Route.id](ctx, req)

	var terminal error
	if handlerErr != nil {
		resp, terminal = a.respondToError(ctx, req, handlerErr)
	} else if resp == nil {
		terminal = fmt.Errorf("%s %s: %w", scope.Method, scope.Path, ErrNilHandler)
		a.logger.ErrorContext(ctx, "handler returned nil response",
			slog.String("method", scope.Method),
			slog.String("path", scope.Path),
		)
		resp = Text(http.StatusInternalServerError, "Internal Server Error")
	}

	// A client that went away mid-body cannot receive the response, but
	// work already scheduled still runs.
	if req.disconnected {
		a.runBackground(ctx, resp.Tasks())
		a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), terminal)
		return nil
	}

	if err := sendResponse(ctx, send, resp); err != nil {
		a.recorder.OnScopeEnd(ctx, scope, resp.Status, time.Since(start), err)
		return err
	}

	a.runBackground(ctx, resp.Tasks())
	a.recorder.OnScopeEnd(ctx, scope, resp.Status, time.Since(start), terminal)
	return nil
}

// finishSynthetic sends a response no handler produced. Wrapping middleware
// do not run for it, but observing middleware do, so request logs and
// metrics still count the miss.
func (a *Application) finishSynthetic(ctx context.Context, scope Scope, start time.Time, req *Request, resp *Response, send SendFunc) error {
	a.chain.Observe(ctx, req, resp)
	if err := sendResponse(ctx, send, resp); err != nil {
		a.recorder.OnScopeEnd(ctx, scope, resp.Status, time.Since(start), err)
		return err
	}
	a.runBackground(ctx, resp.Tasks())
	a.recorder.OnScopeEnd(ctx, scope, resp.Status, time.Since(start), nil)
	return nil
}

// respondToError turns an error that escaped every middleware into a
// response. Resolution order: a registered handler for any type in the
// error's unwrap chain, outermost first; the built-in *HTTPError handler;
// the fallback. Only an error no handler claimed is reported as terminal.
func (a *Application) respondToError(ctx context.Context, req *Request, err error) (*Response, error) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if h, ok := a.errHandlers[reflect.TypeOf(e)]; ok {
			if resp := h(ctx, req, err); resp != nil {
				return resp, nil
			}
			break
		}
	}

	var he *HTTPError
	if errors.As(err, &he) {
		resp := Text(he.Status, he.Detail)
		for k, vs := range he.Headers {
			resp.Header[k] = vs
		}
		return resp, nil
	}

	if a.fallback != nil {
		if resp := a.fallback(ctx, req, err); resp != nil {
			return resp, nil
		}
	}

	a.logger.ErrorContext(ctx, "unhandled dispatch error",
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
		slog.String("error", err.Error()),
	)
	return Text(http.StatusInternalServerError, "Internal Server Error"), err
}

// sendResponse streams a materialized response: one start event, one final
// body event.
func sendResponse(ctx context.Context, send SendFunc, resp *Response) error {
	resp.setContentLength()
	if err := send(ctx, Event{Type: EventResponseStart, Status: resp.Status, Headers: resp.Header}); err != nil {
		return fmt.Errorf("send response start: %w", err)
	}
	if err := send(ctx, Event{Type: EventResponseBody, Body: resp.Body, More: false}); err != nil {
		return fmt.Errorf("send response body: %w", err)
	}
	return nil
}

// runBackground executes a response's deferred tasks on a context detached
// from the request's cancellation: the response is already on the wire, so
// the client hanging up must not abort the work.
func (a *Application) runBackground(ctx context.Context, tasks *Collector) {
	if tasks == nil || tasks.Len() == 0 {
		return
	}
	tasks.Run(context.WithoutCancel(ctx), a.logger)
}

func (a *Application) serveWebSocket(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
	start := time.Now()
	ctx = a.recorder.OnScopeStart(ctx, scope)

	ev, err := receive(ctx)
	if err != nil {
		a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), err)
		return fmt.Errorf("websocket receive: %w", err)
	}
	if ev.Type != EventWebSocketConnect {
		err := fmt.Errorf("websocket: event %s: %w", ev.Type, ErrUnexpectedEvent)
		a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), err)
		return err
	}

	if a.life.gated() {
		if err := send(ctx, Event{Type: EventWebSocketClose, Code: CloseTryAgainLater}); err != nil {
			return fmt.Errorf("websocket close: %w", err)
		}
		a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), nil)
		return nil
	}

	match, err := a.matcher.Resolve(MethodWebSocket, scope.Path)
	if err != nil {
		// Never accepted: a connection with no route closes straight from
		// connecting.
		if serr := send(ctx, Event{Type: EventWebSocketClose, Code: CloseNoRoute}); serr != nil {
			return fmt.Errorf("websocket close: %w", serr)
		}
		a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), err)
		return nil
	}

	ws := &WebSocket{
		Params:  match.Params,
		scope:   scope,
		state:   a.state,
		appConn: connConnecting,
		receive: receive,
		send:    send,
	}

	handlerErr := a.wsRoutes[match.Route.id](ctx, ws)

	// The connection always ends Closed, whatever the handler did.
	code := CloseNormal
	if handlerErr != nil {
		code = CloseInternalError
		a.logger.ErrorContext(ctx, "websocket handler failed",
			slog.String("path", scope.Path),
			slog.String("error", handlerErr.Error()),
		)
	}
	switch ws.appConn {
	case connConnecting:
		if err := send(ctx, Event{Type: EventWebSocketClose, Code: code}); err != nil {
			return fmt.Errorf("websocket close: %w", err)
		}
		ws.appConn = connClosed
	case connOpen:
		if err := ws.Close(ctx, code); err != nil {
			return err
		}
	}

	a.recorder.OnScopeEnd(ctx, scope, 0, time.Since(start), handlerErr)
	return nil
}
