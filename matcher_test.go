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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRegister(t *testing.T, m *Matcher, method, pattern string, opts ...RouteOption) *Route {
	t.Helper()
	r, err := m.Register(method, pattern, opts...)
	require.NoError(t, err)
	return r
}

func TestMatcher_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("literal match", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		r := mustRegister(t, m, http.MethodGet, "/users/all")
		m.Freeze()

		match, err := m.Resolve(http.MethodGet, "/users/all")
		require.NoError(t, err)
		assert.Same(t, r, match.Route)
		assert.Empty(t, match.Params)
	})

	t.Run("root", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		r := mustRegister(t, m, http.MethodGet, "/")
		m.Freeze()

		match, err := m.Resolve(http.MethodGet, "/")
		require.NoError(t, err)
		assert.Same(t, r, match.Route)
	})

	t.Run("typed captures", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/users/{id:int}/files/{rest:path}")
		m.Freeze()

		match, err := m.Resolve(http.MethodGet, "/users/42/files/a/b/c.txt")
		require.NoError(t, err)
		id, err := match.Params.Int("id")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, "a/b/c.txt", match.Params.Text("rest"))
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/users")
		m.Freeze()

		_, err := m.Resolve(http.MethodGet, "/orders")
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("typed capture grammar is strict", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/items/{id:int}")
		mustRegister(t, m, http.MethodGet, "/price/{v:float}")
		m.Freeze()

		for _, path := range []string{"/items/+5", "/items/0x1f", "/price/1e3", "/price/0x1p2", "/price/+5"} {
			_, err := m.Resolve(http.MethodGet, path)
			assert.ErrorIs(t, err, ErrNoMatch, "path %s", path)
		}

		match, err := m.Resolve(http.MethodGet, "/items/-5")
		require.NoError(t, err)
		id, err := match.Params.Int("id")
		require.NoError(t, err)
		assert.Equal(t, int64(-5), id)
	})
}

func TestMatcher_Precedence(t *testing.T) {
	t.Parallel()

	t.Run("literal beats capture regardless of order", func(t *testing.T) {
		t.Parallel()
		for _, literalFirst := range []bool{true, false} {
			m := NewMatcher()
			var lit, capt *Route
			if literalFirst {
				lit = mustRegister(t, m, http.MethodGet, "/users/all")
				capt = mustRegister(t, m, http.MethodGet, "/users/{id:int}")
			} else {
				capt = mustRegister(t, m, http.MethodGet, "/users/{id:int}")
				lit = mustRegister(t, m, http.MethodGet, "/users/all")
			}
			m.Freeze()

			match, err := m.Resolve(http.MethodGet, "/users/all")
			require.NoError(t, err)
			assert.Same(t, lit, match.Route)

			match, err = m.Resolve(http.MethodGet, "/users/7")
			require.NoError(t, err)
			assert.Same(t, capt, match.Route)
		}
	})

	t.Run("converter failure falls through to next sibling", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		intRoute := mustRegister(t, m, http.MethodGet, "/items/{id:int}")
		strRoute := mustRegister(t, m, http.MethodGet, "/items/{name}")
		m.Freeze()

		match, err := m.Resolve(http.MethodGet, "/items/42")
		require.NoError(t, err)
		assert.Same(t, intRoute, match.Route)

		match, err = m.Resolve(http.MethodGet, "/items/widget")
		require.NoError(t, err)
		assert.Same(t, strRoute, match.Route)
		assert.Equal(t, "widget", match.Params.Text("name"))
	})

	t.Run("backtracks out of dead literal subtree", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/a/special/x")
		capRoute := mustRegister(t, m, http.MethodGet, "/a/{p}/y")
		m.Freeze()

		// "special" enters the literal subtree first, which has no /y;
		// the walk must unwind and take the capture.
		match, err := m.Resolve(http.MethodGet, "/a/special/y")
		require.NoError(t, err)
		assert.Same(t, capRoute, match.Route)
		assert.Equal(t, "special", match.Params.Text("p"))
	})

	t.Run("unwound captures leave no params behind", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/a/{n:int}/x")
		mustRegister(t, m, http.MethodGet, "/a/{rest:path}")
		m.Freeze()

		match, err := m.Resolve(http.MethodGet, "/a/42/y")
		require.NoError(t, err)
		assert.False(t, match.Params.Has("n"))
		assert.Equal(t, "42/y", match.Params.Text("rest"))
	})

	t.Run("path remainder is last resort", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		exact := mustRegister(t, m, http.MethodGet, "/files/readme")
		rest := mustRegister(t, m, http.MethodGet, "/files/{p:path}")
		m.Freeze()

		match, err := m.Resolve(http.MethodGet, "/files/readme")
		require.NoError(t, err)
		assert.Same(t, exact, match.Route)

		match, err = m.Resolve(http.MethodGet, "/files/a/b")
		require.NoError(t, err)
		assert.Same(t, rest, match.Route)
	})
}

func TestMatcher_Conflicts(t *testing.T) {
	t.Parallel()

	t.Run("duplicate literal pattern", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/users")
		_, err := m.Register(http.MethodGet, "/users")
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "/users", ce.Existing)
	})

	t.Run("same shape different capture name", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/users/{id:int}")
		_, err := m.Register(http.MethodGet, "/users/{n:int}")
		var ce *ConflictError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("same shape different converter is allowed", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/users/{id:int}")
		_, err := m.Register(http.MethodGet, "/users/{name}")
		assert.NoError(t, err)
	})

	t.Run("duplicate path remainder", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/files/{a:path}")
		_, err := m.Register(http.MethodGet, "/files/{b:path}")
		var ce *ConflictError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("same pattern different method is allowed", func(t *testing.T) {
		t.Parallel()
		m := NewMatcher()
		mustRegister(t, m, http.MethodGet, "/users")
		_, err := m.Register(http.MethodPost, "/users")
		assert.NoError(t, err)
	})
}

func TestMatcher_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	mustRegister(t, m, http.MethodGet, "/users/{id:int}")
	mustRegister(t, m, http.MethodDelete, "/users/{id:int}")
	mustRegister(t, m, MethodWebSocket, "/users/{id:int}")
	m.Freeze()

	_, err := m.Resolve(http.MethodPost, "/users/7")
	var mna *MethodNotAllowedError
	require.ErrorAs(t, err, &mna)
	// Sorted, and the websocket tree never leaks into the probe.
	assert.Equal(t, []string{http.MethodDelete, http.MethodGet}, mna.Allowed)

	// A websocket miss is a plain no-match, not a 405.
	_, err = m.Resolve(MethodWebSocket, "/other")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatcher_Freeze(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	mustRegister(t, m, http.MethodGet, "/users")
	m.Freeze()
	assert.True(t, m.Frozen())

	_, err := m.Register(http.MethodGet, "/late")
	assert.ErrorIs(t, err, ErrFrozen)
}

func TestMatcher_Routes(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	a := mustRegister(t, m, http.MethodGet, "/a")
	b := mustRegister(t, m, http.MethodPost, "/b")

	routes := m.Routes()
	require.Len(t, routes, 2)
	assert.Same(t, a, routes[0])
	assert.Same(t, b, routes[1])
	assert.Equal(t, RouteID(1), a.ID())
	assert.Equal(t, RouteID(2), b.ID())
}

func TestMatcher_URLFor(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	mustRegister(t, m, http.MethodGet, "/users/{id:int}/posts/{slug:slug}", Named("user-post"))
	mustRegister(t, m, http.MethodGet, "/files/{rest:path}", Named("file"))
	mustRegister(t, m, http.MethodGet, "/", Named("home"))
	m.Freeze()

	t.Run("substitutes params", func(t *testing.T) {
		t.Parallel()
		u, err := m.URLFor("user-post", map[string]string{"id": "42", "slug": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "/users/42/posts/hello", u)
	})

	t.Run("path param keeps slashes", func(t *testing.T) {
		t.Parallel()
		u, err := m.URLFor("file", map[string]string{"rest": "a/b c/d"})
		require.NoError(t, err)
		assert.Equal(t, "/files/a/b%20c/d", u)
	})

	t.Run("root", func(t *testing.T) {
		t.Parallel()
		u, err := m.URLFor("home", nil)
		require.NoError(t, err)
		assert.Equal(t, "/", u)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		_, err := m.URLFor("nope", nil)
		assert.ErrorIs(t, err, ErrUnknownRouteName)
	})

	t.Run("missing param", func(t *testing.T) {
		t.Parallel()
		_, err := m.URLFor("user-post", map[string]string{"id": "42"})
		assert.ErrorIs(t, err, ErrMissingURLParameter)
	})

	t.Run("extra param", func(t *testing.T) {
		t.Parallel()
		_, err := m.URLFor("user-post", map[string]string{"id": "42", "slug": "x", "bogus": "1"})
		assert.ErrorIs(t, err, ErrUnknownURLParameter)
	})
}

func TestMatcher_DuplicateName(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	mustRegister(t, m, http.MethodGet, "/a", Named("thing"))
	_, err := m.Register(http.MethodGet, "/b", Named("thing"))
	assert.ErrorIs(t, err, ErrDuplicateRouteName)
}
