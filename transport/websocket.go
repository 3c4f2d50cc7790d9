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
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golette/golette"
)

const closeWriteTimeout = 5 * time.Second

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	scope := golette.Scope{
		Type:         golette.ScopeWebSocket,
		Path:         r.URL.Path,
		RawQuery:     r.URL.RawQuery,
		Headers:      r.Header,
		Subprotocols: websocket.Subprotocols(r),
		Client:       r.RemoteAddr,
		Server:       r.Host,
	}

	b := &wsBridge{upgrader: h.upgrader, w: w, r: r}
	defer b.cleanup()

	if err := h.app.Handle(r.Context(), scope, b.receive, b.send); err != nil {
		h.logger.ErrorContext(r.Context(), "websocket dispatch failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// wsBridge adapts one gorilla connection to the scope event surface. The
// actual HTTP upgrade is deferred until the application accepts: a
// rejection before accept stays a plain HTTP response, mirroring how
// browsers experience a refused handshake.
type wsBridge struct {
	upgrader  websocket.Upgrader
	w         http.ResponseWriter
	r         *http.Request
	conn      *websocket.Conn
	connected bool // connect event delivered
}

func (b *wsBridge) receive(ctx context.Context) (golette.Event, error) {
	if !b.connected {
		b.connected = true
		return golette.Event{Type: golette.EventWebSocketConnect}, nil
	}
	if b.conn == nil {
		return golette.Event{}, fmt.Errorf("websocket receive before accept: %w", golette.ErrUnexpectedEvent)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = b.conn.SetReadDeadline(deadline)
	}
	kind, data, err := b.conn.ReadMessage()
	if err != nil {
		code := websocket.CloseAbnormalClosure
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			code = ce.Code
		}
		return golette.Event{Type: golette.EventWebSocketDisconnect, Code: code}, nil
	}
	if kind == websocket.TextMessage {
		return golette.Event{Type: golette.EventWebSocketReceive, Text: string(data)}, nil
	}
	return golette.Event{Type: golette.EventWebSocketReceive, Body: data}, nil
}

func (b *wsBridge) send(ctx context.Context, ev golette.Event) error {
	switch ev.Type {
	case golette.EventWebSocketAccept:
		var header http.Header
		if ev.Subprotocol != "" {
			header = http.Header{"Sec-Websocket-Protocol": {ev.Subprotocol}}
		}
		conn, err := b.upgrader.Upgrade(b.w, b.r, header)
		if err != nil {
			return fmt.Errorf("websocket upgrade: %w", err)
		}
		b.conn = conn
		return nil

	case golette.EventWebSocketSend:
		if b.conn == nil {
			return fmt.Errorf("websocket send before accept: %w", golette.ErrUnexpectedEvent)
		}
		kind := websocket.TextMessage
		data := []byte(ev.Text)
		if ev.Body != nil {
			kind = websocket.BinaryMessage
			data = ev.Body
		}
		if err := b.conn.WriteMessage(kind, data); err != nil {
			return fmt.Errorf("websocket write: %w", err)
		}
		return nil

	case golette.EventWebSocketClose:
		if b.conn == nil {
			// Refused before the upgrade: answer the handshake with a
			// plain HTTP status instead.
			b.w.WriteHeader(closeCodeToStatus(ev.Code))
			return nil
		}
		msg := websocket.FormatCloseMessage(ev.Code, "")
		_ = b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		err := b.conn.Close()
		b.conn = nil
		if err != nil {
			return fmt.Errorf("websocket close: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("send %s on websocket scope: %w", ev.Type, golette.ErrUnexpectedEvent)
	}
}

func (b *wsBridge) cleanup() {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

// closeCodeToStatus maps a pre-accept close code onto the HTTP status used
// to refuse the handshake.
func closeCodeToStatus(code int) int {
	switch code {
	case golette.CloseNoRoute:
		return http.StatusNotFound
	case golette.CloseTryAgainLater:
		return http.StatusServiceUnavailable
	default:
		return http.StatusForbidden
	}
}
