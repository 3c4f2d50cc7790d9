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
	"encoding/json"
	"fmt"
)

// Close codes used by the adapter itself.
const (
	// CloseNormal is sent when a handler returns nil with the connection
	// still open.
	CloseNormal = 1000
	// CloseInternalError is sent when a handler returns an error with the
	// connection still open.
	CloseInternalError = 1011
	// CloseNoRoute is sent when no WebSocket route matches the path.
	CloseNoRoute = 4404
)

// connState tracks one WebSocket connection through its lifecycle. The
// connection is driven by a single handler goroutine, so plain assignment
// suffices.
type connState uint8

const (
	connConnecting connState = iota
	connOpen
	connRejected
	connClosed
)

// WebSocketHandler handles one WebSocket connection. Its first action must
// be Accept or Reject; a non-nil return with the connection still open
// closes it with CloseInternalError.
type WebSocketHandler func(ctx context.Context, ws *WebSocket) error

// Message is one WebSocket data frame, text or binary.
type Message struct {
	Text   string
	Data   []byte
	IsText bool
}

// WebSocket is the handler-facing view of one WebSocket scope.
//
// The state machine is strict: Accept/Reject only while connecting,
// Receive/Send/Close only while open. Violations surface as
// ErrUnexpectedEvent-wrapped errors rather than protocol corruption.
type WebSocket struct {
	// Params holds the typed values captured from the path.
	Params Params

	scope   Scope
	state   *State
	appConn connState
	receive ReceiveFunc
	send    SendFunc
}

// Subprotocols returns the protocols offered in the handshake.
func (ws *WebSocket) Subprotocols() []string { return ws.scope.Subprotocols }

// Path returns the connection path as matched.
func (ws *WebSocket) Path() string { return ws.scope.Path }

// Header returns the handshake headers. Treat as read-only.
func (ws *WebSocket) Header() map[string][]string { return ws.scope.Headers }

// State returns the application-level state store.
func (ws *WebSocket) State() *State { return ws.state }

// Accept completes the handshake, optionally selecting one of the offered
// subprotocols ("" selects none). Valid only as the first action.
func (ws *WebSocket) Accept(ctx context.Context, subprotocol string) error {
	if ws.appConn != connConnecting {
		return fmt.Errorf("websocket accept in state %d: %w", ws.appConn, ErrUnexpectedEvent)
	}
	if err := ws.send(ctx, Event{Type: EventWebSocketAccept, Subprotocol: subprotocol}); err != nil {
		return fmt.Errorf("websocket accept: %w", err)
	}
	ws.appConn = connOpen
	return nil
}

// Reject refuses the connection with a close code before it ever opens.
// Valid only as the first action; the connection is closed afterward.
func (ws *WebSocket) Reject(ctx context.Context, code int) error {
	if ws.appConn != connConnecting {
		return fmt.Errorf("websocket reject in state %d: %w", ws.appConn, ErrUnexpectedEvent)
	}
	if err := ws.send(ctx, Event{Type: EventWebSocketClose, Code: code}); err != nil {
		return fmt.Errorf("websocket reject: %w", err)
	}
	ws.appConn = connRejected
	return nil
}

// Receive blocks for the next inbound message. A peer disconnect is
// returned as a *WebSocketDisconnectError carrying the close code, and the
// connection is closed from then on.
func (ws *WebSocket) Receive(ctx context.Context) (Message, error) {
	if !ws.open() {
		return Message{}, fmt.Errorf("websocket receive while not open: %w", ErrUnexpectedEvent)
	}
	ev, err := ws.receive(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("websocket receive: %w", err)
	}
	switch ev.Type {
	case EventWebSocketReceive:
		if ev.Body != nil {
			return Message{Data: ev.Body}, nil
		}
		return Message{Text: ev.Text, IsText: true}, nil
	case EventWebSocketDisconnect:
		ws.appConn = connClosed
		return Message{}, &WebSocketDisconnectError{Code: ev.Code}
	default:
		return Message{}, fmt.Errorf("websocket receive: event %s: %w", ev.Type, ErrUnexpectedEvent)
	}
}

// ReceiveText receives one message and requires it to be text.
func (ws *WebSocket) ReceiveText(ctx context.Context) (string, error) {
	msg, err := ws.Receive(ctx)
	if err != nil {
		return "", err
	}
	if !msg.IsText {
		return "", fmt.Errorf("websocket: binary frame where text expected: %w", ErrUnexpectedEvent)
	}
	return msg.Text, nil
}

// SendText sends a text message.
func (ws *WebSocket) SendText(ctx context.Context, text string) error {
	if !ws.open() {
		return fmt.Errorf("websocket send while not open: %w", ErrUnexpectedEvent)
	}
	if err := ws.send(ctx, Event{Type: EventWebSocketSend, Text: text}); err != nil {
		return fmt.Errorf("websocket send: %w", err)
	}
	return nil
}

// SendBytes sends a binary message.
func (ws *WebSocket) SendBytes(ctx context.Context, data []byte) error {
	if !ws.open() {
		return fmt.Errorf("websocket send while not open: %w", ErrUnexpectedEvent)
	}
	if err := ws.send(ctx, Event{Type: EventWebSocketSend, Body: data}); err != nil {
		return fmt.Errorf("websocket send: %w", err)
	}
	return nil
}

// SendJSON marshals v and sends it as a text message.
func (ws *WebSocket) SendJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("websocket send json: %w", err)
	}
	return ws.SendText(ctx, string(body))
}

// Close closes an open connection with the given code. Closing an already
// closed connection is a no-op, so handlers can defer a Close and also
// close explicitly.
func (ws *WebSocket) Close(ctx context.Context, code int) error {
	if !ws.open() {
		return nil
	}
	if err := ws.send(ctx, Event{Type: EventWebSocketClose, Code: code}); err != nil {
		return fmt.Errorf("websocket close: %w", err)
	}
	ws.appConn = connClosed
	return nil
}

// open reports whether the connection is currently open.
func (ws *WebSocket) open() bool { return ws.appConn == connOpen }

// WebSocketDisconnectError reports the peer closing the connection.
type WebSocketDisconnectError struct {
	Code int
}

func (e *WebSocketDisconnectError) Error() string {
	return fmt.Sprintf("websocket disconnected with code %d", e.Code)
}
