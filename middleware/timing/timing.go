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

// Package timing provides a middleware that reports handler wall time in
// an X-Process-Time response header.
package timing

import (
	"context"
	"strconv"
	"time"

	"github.com/golette/golette"
)

// Header is the response header carrying the elapsed seconds.
const Header = "X-Process-Time"

// New returns the timing middleware. The value is seconds with
// microsecond precision, covering every layer inside this one.
func New() golette.Middleware {
	return golette.Wrap("timing", func(next golette.HandlerFunc) golette.HandlerFunc {
		return func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil || resp == nil {
				return resp, err
			}
			elapsed := time.Since(start).Seconds()
			resp.Header.Set(Header, strconv.FormatFloat(elapsed, 'f', 6, 64))
			return resp, nil
		}
	})
}
