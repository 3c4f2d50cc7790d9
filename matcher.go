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
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
)

// MethodWebSocket is the pseudo-method under which WebSocket routes are
// registered. It shares the path grammar with HTTP routes but lives in its
// own tree, so "/ws" can be both an HTTP GET route and a WebSocket route.
const MethodWebSocket = "WEBSOCKET"

// RouteID identifies a registered route. IDs are assigned in registration
// order starting at 1 and are stable for the lifetime of the Matcher.
type RouteID uint32

// Route is an immutable description of a registered route.
type Route struct {
	id       RouteID
	method   string
	name     string
	pattern  string
	segments []segment
}

// ID returns the route's registration identifier.
func (r *Route) ID() RouteID { return r.id }

// Method returns the HTTP method, or MethodWebSocket for WebSocket routes.
func (r *Route) Method() string { return r.method }

// Name returns the route's name, or "" for unnamed routes.
func (r *Route) Name() string { return r.name }

// Pattern returns the pattern string the route was registered with.
func (r *Route) Pattern() string { return r.pattern }

// RouteMatch is the result of a successful Resolve: the matched route plus
// the typed values captured from the path.
type RouteMatch struct {
	Route  *Route
	Params Params
}

// Matcher maps (method, path) pairs onto registered routes.
//
// Registration and resolution are two phases separated by Freeze: Register
// is not safe for concurrent use and fails after Freeze; Resolve is
// lock-free and safe for any number of concurrent callers once the Matcher
// is frozen.
//
// Example:
//
//	m := golette.NewMatcher()
//	m.Register(http.MethodGet, "/users/{id:int}", golette.Named("user-detail"))
//	m.Freeze()
//
//	match, err := m.Resolve(http.MethodGet, "/users/42")
//	if err == nil {
//		id, _ := match.Params.Int("id") // 42
//	}
type Matcher struct {
	trees  map[string]*node
	byName map[string]*Route
	routes []*Route
	nextID RouteID
	frozen atomic.Bool
}

// RouteOption configures a route at registration time.
type RouteOption func(*Route)

// Named assigns a name to the route for reverse lookup via URLFor.
// Names must be unique across the whole Matcher, all methods included.
func Named(name string) RouteOption {
	return func(r *Route) { r.name = name }
}

// NewMatcher returns an empty Matcher ready for registration.
func NewMatcher() *Matcher {
	return &Matcher{
		trees:  make(map[string]*node),
		byName: make(map[string]*Route),
	}
}

// Register adds a route for the given method and pattern.
//
// The pattern grammar is documented on the package: literal segments,
// "{name}" string captures, "{name:converter}" typed captures, and a final
// "{name:path}" greedy capture. Registration order is significant only
// between capture siblings of different converters; literals always win
// over captures regardless of order.
//
// Errors: a PatternError for malformed patterns, a ConflictError when an
// equivalent pattern is already registered for the method,
// ErrDuplicateRouteName when the name is taken, and ErrFrozen after Freeze.
func (m *Matcher) Register(method, pattern string, opts ...RouteOption) (*Route, error) {
	if m.frozen.Load() {
		return nil, ErrFrozen
	}
	segments, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	m.nextID++
	r := &Route{
		id:       m.nextID,
		method:   method,
		pattern:  pattern,
		segments: segments,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.name != "" {
		if _, taken := m.byName[r.name]; taken {
			m.nextID--
			return nil, fmt.Errorf("route %q: %w", r.name, ErrDuplicateRouteName)
		}
	}

	tree := m.trees[method]
	if tree == nil {
		tree = &node{}
		m.trees[method] = tree
	}
	if err := tree.insert(method, segments, r); err != nil {
		m.nextID--
		return nil, err
	}

	if r.name != "" {
		m.byName[r.name] = r
	}
	m.routes = append(m.routes, r)
	return r, nil
}

// Freeze ends the registration phase. After Freeze the Matcher is immutable
// and Resolve is safe for concurrent use. Freeze is idempotent.
func (m *Matcher) Freeze() {
	m.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (m *Matcher) Frozen() bool {
	return m.frozen.Load()
}

// Routes returns all registered routes in registration order.
// The returned slice is a copy; the routes themselves are shared.
func (m *Matcher) Routes() []*Route {
	out := make([]*Route, len(m.routes))
	copy(out, m.routes)
	return out
}

// Resolve finds the route for a method and path.
//
// On a miss it distinguishes two failures: ErrNoMatch when no tree matches
// the path at all, and a MethodNotAllowedError, carrying the sorted list of
// methods that do match, when the path exists under other methods. The
// WebSocket tree never contributes to an HTTP allowed-methods probe, and
// vice versa.
func (m *Matcher) Resolve(method, path string) (RouteMatch, error) {
	segs := splitPath(path)

	if tree := m.trees[method]; tree != nil {
		var captured []capturedParam
		if r := tree.match(segs, &captured); r != nil {
			params := make(Params, len(captured))
			for _, c := range captured {
				params[c.name] = c.value
			}
			return RouteMatch{Route: r, Params: params}, nil
		}
	}

	if method == MethodWebSocket {
		return RouteMatch{}, fmt.Errorf("websocket %s: %w", path, ErrNoMatch)
	}

	var allowed []string
	for other, tree := range m.trees {
		if other == method || other == MethodWebSocket {
			continue
		}
		var captured []capturedParam
		if tree.match(segs, &captured) != nil {
			allowed = append(allowed, other)
		}
	}
	if len(allowed) > 0 {
		sort.Strings(allowed)
		return RouteMatch{}, &MethodNotAllowedError{Path: path, Allowed: allowed}
	}
	return RouteMatch{}, fmt.Errorf("%s %s: %w", method, path, ErrNoMatch)
}

// URLFor builds a concrete path for a named route by substituting params
// into its pattern. Every capture in the pattern must be supplied;
// unused params are rejected so typos surface early. Literal segments and
// substituted values are percent-escaped, except for a path capture whose
// slashes are kept.
func (m *Matcher) URLFor(name string, params map[string]string) (string, error) {
	r, ok := m.byName[name]
	if !ok {
		return "", fmt.Errorf("route %q: %w", name, ErrUnknownRouteName)
	}

	used := 0
	var b strings.Builder
	for _, seg := range r.segments {
		b.WriteByte('/')
		if !seg.capture {
			b.WriteString(url.PathEscape(seg.literal))
			continue
		}
		v, ok := params[seg.name]
		if !ok {
			return "", fmt.Errorf("route %q: parameter %q: %w", name, seg.name, ErrMissingURLParameter)
		}
		used++
		if seg.conv == convPath {
			// Escape each element but keep the separators.
			parts := strings.Split(v, "/")
			for i, p := range parts {
				parts[i] = url.PathEscape(p)
			}
			b.WriteString(strings.Join(parts, "/"))
		} else {
			b.WriteString(url.PathEscape(v))
		}
	}
	if used != len(params) {
		for k := range params {
			if !r.hasParam(k) {
				return "", fmt.Errorf("route %q: parameter %q: %w", name, k, ErrUnknownURLParameter)
			}
		}
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

func (r *Route) hasParam(name string) bool {
	for _, seg := range r.segments {
		if seg.capture && seg.name == name {
			return true
		}
	}
	return false
}
