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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is the handler-facing view of one HTTP scope.
//
// The struct is built by the adapter per dispatch and must not be retained
// after the handler returns. Body reads are pulled lazily from the
// transport and memoized, so middleware and the handler can each call Body
// and see the same bytes.
type Request struct {
	// Params holds the typed values captured from the path.
	Params Params

	scope   Scope
	route   *Route
	state   *State
	receive ReceiveFunc

	query        url.Values
	queryOnce    bool
	body         []byte
	bodyErr      error
	bodyLoaded   bool
	disconnected bool
}

// NewRequest builds a Request directly from a scope, for middleware tests
// and custom transports. Requests built by the dispatcher additionally
// carry the matched route, captured params, and the application state.
func NewRequest(scope Scope, receive ReceiveFunc) *Request {
	return &Request{scope: scope, receive: receive}
}

// Method returns the HTTP method of the request.
func (r *Request) Method() string { return r.scope.Method }

// Path returns the request path as matched, query excluded.
func (r *Request) Path() string { return r.scope.Path }

// Header returns the request headers. The map is shared with the scope;
// treat it as read-only.
func (r *Request) Header() http.Header { return r.scope.Headers }

// Client returns the transport-reported client address, "host:port" form,
// or "" when unknown.
func (r *Request) Client() string { return r.scope.Client }

// Route returns the matched route. It is nil inside observing middleware
// when the dispatch produced a synthetic response without matching.
func (r *Request) Route() *Route { return r.route }

// State returns the application-level state store shared by all requests.
func (r *Request) State() *State { return r.state }

// Query parses and returns the query string. Parsing happens once; repeat
// calls return the same values. Malformed pairs are dropped, matching
// net/url semantics.
func (r *Request) Query() url.Values {
	if !r.queryOnce {
		r.query, _ = url.ParseQuery(r.scope.RawQuery)
		r.queryOnce = true
	}
	return r.query
}

// Body reads the full request body from the transport. The first call
// drains body events until the final chunk; later calls return the
// memoized bytes. A disconnect mid-body is reported as an error.
func (r *Request) Body(ctx context.Context) ([]byte, error) {
	if r.bodyLoaded {
		return r.body, r.bodyErr
	}
	r.bodyLoaded = true

	var buf bytes.Buffer
	for {
		ev, err := r.receive(ctx)
		if err != nil {
			r.bodyErr = fmt.Errorf("read body: %w", err)
			return nil, r.bodyErr
		}
		switch ev.Type {
		case EventRequestBody:
			buf.Write(ev.Body)
			if !ev.More {
				r.body = buf.Bytes()
				return r.body, nil
			}
		case EventDisconnect:
			r.disconnected = true
			r.bodyErr = fmt.Errorf("read body: client disconnected")
			return nil, r.bodyErr
		default:
			r.bodyErr = fmt.Errorf("read body: event %s: %w", ev.Type, ErrUnexpectedEvent)
			return nil, r.bodyErr
		}
	}
}

// JSON reads the body and unmarshals it into v.
func (r *Request) JSON(ctx context.Context, v any) error {
	body, err := r.Body(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode json body: %w", err)
	}
	return nil
}
