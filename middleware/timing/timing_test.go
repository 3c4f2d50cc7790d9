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

package timing

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golette/golette"
)

func TestTiming_StampsHeader(t *testing.T) {
	t.Parallel()

	h := golette.NewChain(New()).Then(func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		time.Sleep(10 * time.Millisecond)
		return golette.Text(http.StatusOK, ""), nil
	})

	req := golette.NewRequest(golette.Scope{Type: golette.ScopeHTTP, Method: http.MethodGet, Path: "/"}, nil)
	resp, err := h(context.Background(), req)
	require.NoError(t, err)

	raw := resp.Header.Get(Header)
	require.NotEmpty(t, raw)
	secs, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 0.010)
	assert.Less(t, secs, 5.0)
}

func TestTiming_PassesErrorsThrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	h := golette.NewChain(New()).Then(func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
		return nil, boom
	})

	req := golette.NewRequest(golette.Scope{Type: golette.ScopeHTTP, Method: http.MethodGet, Path: "/"}, nil)
	_, err := h(context.Background(), req)
	assert.ErrorIs(t, err, boom)
}
