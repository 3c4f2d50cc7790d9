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
	"net/http"
)

// ScopeType classifies an inbound scope.
type ScopeType uint8

const (
	// ScopeHTTP is a single HTTP request/response cycle.
	ScopeHTTP ScopeType = iota
	// ScopeWebSocket is a WebSocket connection from handshake to close.
	ScopeWebSocket
	// ScopeLifespan is the process-lifetime scope carrying startup and
	// shutdown signals.
	ScopeLifespan
)

func (t ScopeType) String() string {
	switch t {
	case ScopeHTTP:
		return "http"
	case ScopeWebSocket:
		return "websocket"
	case ScopeLifespan:
		return "lifespan"
	default:
		return "unknown"
	}
}

// Scope describes one inbound connection or lifecycle phase. It is the
// transport-neutral envelope the adapter dispatches on: the transport
// subpackage builds one per net/http request, and tests build them
// directly.
type Scope struct {
	Type     ScopeType
	Method   string // HTTP method; empty for websocket and lifespan scopes
	Path     string
	RawQuery string
	Headers  http.Header

	// Subprotocols lists the protocols offered in the WebSocket handshake.
	Subprotocols []string

	// Client and Server are transport-reported addresses, "host:port" form.
	// Either may be empty when the transport cannot determine them.
	Client string
	Server string
}

// EventType discriminates protocol events flowing between the adapter and
// the transport.
type EventType uint8

const (
	// EventRequestBody carries a chunk of the HTTP request body from the
	// transport. More reports whether further chunks follow.
	EventRequestBody EventType = iota
	// EventDisconnect signals that the client went away mid-cycle.
	EventDisconnect

	// EventResponseStart carries status and headers toward the transport.
	// Sent exactly once per HTTP scope, before any EventResponseBody.
	EventResponseStart
	// EventResponseBody carries a chunk of the HTTP response body. The
	// final chunk has More set to false.
	EventResponseBody

	// EventWebSocketConnect is the first event on every WebSocket scope.
	EventWebSocketConnect
	// EventWebSocketAccept completes the handshake toward the transport,
	// optionally selecting a subprotocol.
	EventWebSocketAccept
	// EventWebSocketReceive carries one inbound message.
	EventWebSocketReceive
	// EventWebSocketSend carries one outbound message.
	EventWebSocketSend
	// EventWebSocketDisconnect reports the peer closing, with its code.
	EventWebSocketDisconnect
	// EventWebSocketClose closes the connection toward the transport.
	EventWebSocketClose

	// EventLifespanStartup asks the application to run startup hooks.
	EventLifespanStartup
	// EventLifespanStartupComplete reports startup success.
	EventLifespanStartupComplete
	// EventLifespanStartupFailed reports startup failure with a message.
	EventLifespanStartupFailed
	// EventLifespanShutdown asks the application to run shutdown hooks.
	EventLifespanShutdown
	// EventLifespanShutdownComplete reports shutdown completion.
	EventLifespanShutdownComplete
	// EventLifespanShutdownFailed reports shutdown failure with a message.
	EventLifespanShutdownFailed
)

func (t EventType) String() string {
	switch t {
	case EventRequestBody:
		return "http.request"
	case EventDisconnect:
		return "http.disconnect"
	case EventResponseStart:
		return "http.response.start"
	case EventResponseBody:
		return "http.response.body"
	case EventWebSocketConnect:
		return "websocket.connect"
	case EventWebSocketAccept:
		return "websocket.accept"
	case EventWebSocketReceive:
		return "websocket.receive"
	case EventWebSocketSend:
		return "websocket.send"
	case EventWebSocketDisconnect:
		return "websocket.disconnect"
	case EventWebSocketClose:
		return "websocket.close"
	case EventLifespanStartup:
		return "lifespan.startup"
	case EventLifespanStartupComplete:
		return "lifespan.startup.complete"
	case EventLifespanStartupFailed:
		return "lifespan.startup.failed"
	case EventLifespanShutdown:
		return "lifespan.shutdown"
	case EventLifespanShutdownComplete:
		return "lifespan.shutdown.complete"
	case EventLifespanShutdownFailed:
		return "lifespan.shutdown.failed"
	default:
		return "unknown"
	}
}

// Event is one protocol message exchanged over a scope. Fields beyond Type
// are populated per event kind; unused fields are zero.
type Event struct {
	Type EventType

	// Body holds request/response body chunks and binary WebSocket
	// messages. Text holds text WebSocket messages and failure messages on
	// lifespan events.
	Body []byte
	Text string

	// More marks a body chunk as non-final.
	More bool

	// Status and Headers accompany EventResponseStart.
	Status  int
	Headers http.Header

	// Subprotocol accompanies EventWebSocketAccept; Code accompanies
	// EventWebSocketDisconnect and EventWebSocketClose.
	Subprotocol string
	Code        int
}

// ReceiveFunc pulls the next inbound event for a scope. It blocks until an
// event is available, the peer disconnects, or ctx is done.
type ReceiveFunc func(ctx context.Context) (Event, error)

// SendFunc pushes one outbound event toward the transport.
type SendFunc func(ctx context.Context, ev Event) error
