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

// Package transport bridges net/http onto the golette scope/event surface:
// each inbound request becomes one dispatched scope, with the request body,
// response writer, and WebSocket connection adapted into receive/send
// functions.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/golette/golette"
)

// Handler adapts an Application into an http.Handler. WebSocket upgrade
// requests are detected by their handshake headers and dispatched as
// WebSocket scopes; everything else is an HTTP scope.
type Handler struct {
	app      *golette.Application
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// Option defines functional options for the Handler.
type Option func(*Handler)

// WithLogger sets the logger for transport-level failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithCheckOrigin replaces the WebSocket origin check. The default accepts
// same-origin handshakes only, per gorilla/websocket.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = check }
}

// WithBufferSizes sets the WebSocket read and write buffer sizes.
func WithBufferSizes(read, write int) Option {
	return func(h *Handler) {
		h.upgrader.ReadBufferSize = read
		h.upgrader.WriteBufferSize = write
	}
}

// New returns a Handler serving app.
func New(app *golette.Application, opts ...Option) *Handler {
	h := &Handler{app: app, logger: golette.NoopLogger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP dispatches one request as a scope.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.serveWebSocket(w, r)
		return
	}

	scope := golette.Scope{
		Type:     golette.ScopeHTTP,
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Headers:  r.Header,
		Client:   r.RemoteAddr,
		Server:   r.Host,
	}

	if err := h.app.Handle(r.Context(), scope, bodyReceive(r), responseSend(w)); err != nil {
		h.logger.ErrorContext(r.Context(), "dispatch failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// bodyReceive streams the request body as body events. After the final
// chunk, further receives block until the request context ends and then
// report a disconnect, which is the only thing left to say.
func bodyReceive(r *http.Request) golette.ReceiveFunc {
	var done bool
	buf := make([]byte, 32<<10)
	return func(ctx context.Context) (golette.Event, error) {
		if done {
			<-ctx.Done()
			return golette.Event{Type: golette.EventDisconnect}, nil
		}
		n, err := r.Body.Read(buf)
		chunk := append([]byte(nil), buf[:n]...)
		switch {
		case err == nil:
			return golette.Event{Type: golette.EventRequestBody, Body: chunk, More: true}, nil
		case errors.Is(err, io.EOF):
			done = true
			return golette.Event{Type: golette.EventRequestBody, Body: chunk, More: false}, nil
		default:
			done = true
			return golette.Event{Type: golette.EventDisconnect}, nil
		}
	}
}

// responseSend writes response events onto the ResponseWriter.
func responseSend(w http.ResponseWriter) golette.SendFunc {
	return func(_ context.Context, ev golette.Event) error {
		switch ev.Type {
		case golette.EventResponseStart:
			header := w.Header()
			for k, vs := range ev.Headers {
				header[k] = vs
			}
			w.WriteHeader(ev.Status)
			return nil
		case golette.EventResponseBody:
			if len(ev.Body) > 0 {
				if _, err := w.Write(ev.Body); err != nil {
					return fmt.Errorf("write body: %w", err)
				}
			}
			if !ev.More {
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			}
			return nil
		default:
			return fmt.Errorf("send %s on http scope: %w", ev.Type, golette.ErrUnexpectedEvent)
		}
	}
}
