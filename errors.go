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
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoMatch indicates that no registered route matches the request path.
	// The adapter recovers it into a synthetic 404 response.
	ErrNoMatch = errors.New("no route matches path")

	// ErrFrozen indicates a registration attempt after the first dispatch.
	// Routes, middleware, and handlers are immutable once serving begins.
	ErrFrozen = errors.New("registration after freeze")

	// ErrDuplicateRouteName indicates that a route name is already taken.
	ErrDuplicateRouteName = errors.New("route name already registered")

	// ErrUnknownRouteName indicates a URL reversal for an unregistered name.
	ErrUnknownRouteName = errors.New("no route with that name")

	// ErrMissingURLParameter indicates a URL reversal with an absent parameter.
	ErrMissingURLParameter = errors.New("missing url parameter")

	// ErrUnknownURLParameter indicates a URL reversal given a parameter the
	// route's pattern does not capture.
	ErrUnknownURLParameter = errors.New("unknown url parameter")

	// ErrUnsupportedScope indicates a scope type the adapter does not handle.
	ErrUnsupportedScope = errors.New("unsupported scope type")

	// ErrUnexpectedEvent indicates a protocol event that is illegal in the
	// scope's current state.
	ErrUnexpectedEvent = errors.New("unexpected protocol event")

	// ErrNilHandler indicates a route or middleware registered without a handler.
	ErrNilHandler = errors.New("nil handler")

	// ErrParamMissing is returned when a required path parameter is not found.
	ErrParamMissing = errors.New("parameter not found")

	// ErrParamInvalid is returned when a path parameter has the wrong kind.
	ErrParamInvalid = errors.New("invalid parameter value")
)

// PatternError reports a route pattern rejected at registration time.
// It surfaces synchronously to the registration caller and is fatal only to
// that call; previously registered routes are unaffected.
type PatternError struct {
	Pattern string // the offending pattern string
	Reason  string // human-readable rejection reason
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Pattern, e.Reason)
}

// ConflictError reports a registration that would be ambiguous with an
// already-registered route for an overlapping method set.
type ConflictError struct {
	Method   string // method on which the conflict was detected
	Pattern  string // the pattern being registered
	Existing string // the pattern already occupying the slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("route conflict: %s %q already registered as %q", e.Method, e.Pattern, e.Existing)
}

// MethodNotAllowedError reports a path that matches registered routes for
// other methods. The adapter recovers it into a synthetic 405 response with
// an Allow header built from Allowed.
type MethodNotAllowedError struct {
	Path    string
	Allowed []string // methods with a matching route, sorted
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method not allowed for %s (allowed: %s)", e.Path, strings.Join(e.Allowed, ", "))
}

// HTTPError is an error that carries an HTTP status. Handlers and middleware
// return it to produce a specific status response; the default exception
// handling turns it into a plain-text response with the given status.
type HTTPError struct {
	Status  int
	Detail  string
	Headers http.Header // optional extra headers, may be nil
}

// NewHTTPError returns an HTTPError with the given status and detail.
// An empty detail defaults to the standard status text.
func NewHTTPError(status int, detail string) *HTTPError {
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &HTTPError{Status: status, Detail: detail}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
}

// LifespanHookError reports a startup or shutdown hook failure.
type LifespanHookError struct {
	Event string // "startup" or "shutdown"
	Hook  string // hook name as registered
	Err   error
}

func (e *LifespanHookError) Error() string {
	return fmt.Sprintf("lifespan %s hook %q failed: %v", e.Event, e.Hook, e.Err)
}

func (e *LifespanHookError) Unwrap() error { return e.Err }
