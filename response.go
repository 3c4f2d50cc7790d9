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
	"net/http"
	"strconv"
)

// Response is a fully materialized HTTP response: status, headers, and
// body bytes. Handlers return one; middleware may replace or mutate it
// before the adapter streams it to the transport.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	tasks *Collector
}

// NewResponse returns an empty response with the given status and an
// initialized header map.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: make(http.Header)}
}

// JSON builds an application/json response from v. Marshal failure is
// returned to the caller rather than producing a half-written body.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json response: %w", err)
	}
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp.Body = body
	return resp, nil
}

// Text builds a text/plain response.
func Text(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// HTML builds a text/html response.
func HTML(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// NoContent builds a bodyless 204 response.
func NoContent() *Response {
	return NewResponse(http.StatusNoContent)
}

// Redirect builds a redirect to location with the given 3xx status.
func Redirect(status int, location string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Location", location)
	return resp
}

// AddTask schedules fn to run after this response has been handed to the
// transport. Tasks run in the order added, on a context detached from the
// request's cancellation. The name labels the task in logs.
func (r *Response) AddTask(name string, fn func(ctx context.Context) error) {
	if r.tasks == nil {
		r.tasks = NewCollector()
	}
	r.tasks.Add(name, fn)
}

// Tasks returns the background tasks attached to the response, or nil.
func (r *Response) Tasks() *Collector { return r.tasks }

// setContentLength fills in Content-Length unless the response already
// carries one or uses chunked encoding.
func (r *Response) setContentLength() {
	if r.Header.Get("Content-Length") != "" || r.Header.Get("Transfer-Encoding") != "" {
		return
	}
	r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
}
