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

package secheaders

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golette/golette"
)

func run(t *testing.T, mw golette.Middleware, handler golette.HandlerFunc) *golette.Response {
	t.Helper()
	h := golette.NewChain(mw).Then(handler)
	req := golette.NewRequest(golette.Scope{Type: golette.ScopeHTTP, Method: http.MethodGet, Path: "/", Headers: make(http.Header)}, nil)
	resp, err := h(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestSecHeaders_Defaults(t *testing.T) {
	t.Parallel()

	resp := run(t, New(), func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		return golette.Text(http.StatusOK, ""), nil
	})

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", resp.Header.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"), "HSTS is opt-in")
}

func TestSecHeaders_Options(t *testing.T) {
	t.Parallel()

	mw := New(
		WithHSTS("max-age=63072000"),
		WithContentSecurityPolicy("default-src 'self'"),
		WithFrameOptions("SAMEORIGIN"),
	)
	resp := run(t, mw, func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		return golette.Text(http.StatusOK, ""), nil
	})

	assert.Equal(t, "max-age=63072000", resp.Header.Get("Strict-Transport-Security"))
	assert.Equal(t, "default-src 'self'", resp.Header.Get("Content-Security-Policy"))
	assert.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
}

func TestSecHeaders_HandlerValueKept(t *testing.T) {
	t.Parallel()

	resp := run(t, New(), func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		r := golette.Text(http.StatusOK, "")
		r.Header.Set("X-Frame-Options", "ALLOW-FROM https://trusted.example")
		return r, nil
	})
	assert.Equal(t, "ALLOW-FROM https://trusted.example", resp.Header.Get("X-Frame-Options"))
}
