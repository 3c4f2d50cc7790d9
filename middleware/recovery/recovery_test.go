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

package recovery

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golette/golette"
)

func newRequest() *golette.Request {
	return golette.NewRequest(golette.Scope{
		Type:    golette.ScopeHTTP,
		Method:  http.MethodGet,
		Path:    "/panics",
		Headers: make(http.Header),
	}, nil)
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	h := golette.NewChain(mw).Then(func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		panic("handler exploded")
	})

	resp, err := h(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Contains(t, buf.String(), "handler exploded")
	assert.Contains(t, buf.String(), "/panics")
}

func TestRecovery_CustomHandler(t *testing.T) {
	t.Parallel()

	mw := New(
		WithLogger(golette.NoopLogger()),
		WithHandler(func(ctx context.Context, req *golette.Request, v any) *golette.Response {
			resp, _ := golette.JSON(http.StatusServiceUnavailable, map[string]string{"state": "degraded"})
			return resp
		}),
	)
	h := golette.NewChain(mw).Then(func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		panic("down")
	})

	resp, err := h(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.JSONEq(t, `{"state":"degraded"}`, string(resp.Body))
}

func TestRecovery_NoPanicPassesThrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	h := golette.NewChain(mw).Then(func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		return golette.Text(http.StatusOK, "fine"), nil
	})

	resp, err := h(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Equal(t, "fine", string(resp.Body))
	assert.Empty(t, buf.String())
}

func TestRecovery_StackTraceToggle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := New(
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithStackTrace(false),
	)
	h := golette.NewChain(mw).Then(func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		panic("quiet")
	})

	_, err := h(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "quiet")
	assert.NotContains(t, buf.String(), "goroutine")
}
