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

// Package cors provides a middleware implementing Cross-Origin Resource
// Sharing: preflight requests are answered directly and simple responses
// are annotated with the allow headers.
package cors

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golette/golette"
)

// Option defines functional options for CORS middleware configuration.
type Option func(*config)

type config struct {
	allowOrigins     []string
	allowMethods     []string
	allowHeaders     []string
	exposeHeaders    []string
	allowCredentials bool
	maxAge           int // seconds; 0 omits the header
}

func defaultConfig() *config {
	return &config{
		allowOrigins: []string{},
		allowMethods: []string{http.MethodGet, http.MethodHead},
		allowHeaders: []string{},
	}
}

// WithAllowOrigins sets the origins allowed to call. "*" allows any.
func WithAllowOrigins(origins ...string) Option {
	return func(c *config) { c.allowOrigins = origins }
}

// WithAllowMethods sets the methods granted to cross-origin callers.
func WithAllowMethods(methods ...string) Option {
	return func(c *config) { c.allowMethods = methods }
}

// WithAllowHeaders sets the request headers granted to cross-origin callers.
func WithAllowHeaders(headers ...string) Option {
	return func(c *config) { c.allowHeaders = headers }
}

// WithExposeHeaders sets the response headers readable by cross-origin
// callers.
func WithExposeHeaders(headers ...string) Option {
	return func(c *config) { c.exposeHeaders = headers }
}

// WithAllowCredentials permits cookies and authorization headers. Not
// valid together with a wildcard origin; the wildcard is then echoed back
// as the concrete origin instead.
func WithAllowCredentials(allow bool) Option {
	return func(c *config) { c.allowCredentials = allow }
}

// WithMaxAge sets how long, in seconds, browsers may cache the preflight
// answer.
func WithMaxAge(seconds int) Option {
	return func(c *config) { c.maxAge = seconds }
}

// Permissive returns a wide-open CORS middleware: any origin, any method,
// any header. Meant for development setups.
func Permissive() golette.Middleware {
	return New(
		WithAllowOrigins("*"),
		WithAllowMethods(http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions),
		WithAllowHeaders("*"),
	)
}

// New returns the CORS middleware. Preflight OPTIONS requests carrying an
// Origin and Access-Control-Request-Method header are answered with 204
// without reaching inner layers; other requests pass through and get the
// allow headers stamped onto their response.
func New(opts ...Option) golette.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	allowAll := false
	allowed := make(map[string]struct{}, len(cfg.allowOrigins))
	for _, o := range cfg.allowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	methods := strings.Join(cfg.allowMethods, ", ")
	headers := strings.Join(cfg.allowHeaders, ", ")
	expose := strings.Join(cfg.exposeHeaders, ", ")

	originAllowed := func(origin string) bool {
		if origin == "" {
			return false
		}
		if allowAll {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}

	stamp := func(h http.Header, origin string) {
		if allowAll && !cfg.allowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		if cfg.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if expose != "" {
			h.Set("Access-Control-Expose-Headers", expose)
		}
	}

	return golette.Wrap("cors", func(next golette.HandlerFunc) golette.HandlerFunc {
		return func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
			origin := req.Header().Get("Origin")
			if !originAllowed(origin) {
				return next(ctx, req)
			}

			if req.Method() == http.MethodOptions && req.Header().Get("Access-Control-Request-Method") != "" {
				resp := golette.NewResponse(http.StatusNoContent)
				stamp(resp.Header, origin)
				resp.Header.Set("Access-Control-Allow-Methods", methods)
				if headers != "" {
					resp.Header.Set("Access-Control-Allow-Headers", headers)
				}
				if cfg.maxAge > 0 {
					resp.Header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.maxAge))
				}
				return resp, nil
			}

			resp, err := next(ctx, req)
			if err != nil || resp == nil {
				return resp, err
			}
			stamp(resp.Header, origin)
			return resp, nil
		}
	})
}
