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

// Package secheaders provides a middleware that stamps common security
// headers onto every response.
package secheaders

import (
	"context"

	"github.com/golette/golette"
)

// Option defines functional options for the security headers middleware.
type Option func(*config)

type config struct {
	contentTypeOptions      string
	frameOptions            string
	xssProtection           string
	strictTransportSecurity string
	contentSecurityPolicy   string
	referrerPolicy          string
}

func defaultConfig() *config {
	return &config{
		contentTypeOptions: "nosniff",
		frameOptions:       "DENY",
		xssProtection:      "1; mode=block",
		referrerPolicy:     "strict-origin-when-cross-origin",
	}
}

// WithFrameOptions sets X-Frame-Options. "" omits the header.
func WithFrameOptions(v string) Option {
	return func(c *config) { c.frameOptions = v }
}

// WithHSTS sets Strict-Transport-Security, e.g. "max-age=63072000".
func WithHSTS(v string) Option {
	return func(c *config) { c.strictTransportSecurity = v }
}

// WithContentSecurityPolicy sets Content-Security-Policy.
func WithContentSecurityPolicy(v string) Option {
	return func(c *config) { c.contentSecurityPolicy = v }
}

// WithReferrerPolicy sets Referrer-Policy. "" omits the header.
func WithReferrerPolicy(v string) Option {
	return func(c *config) { c.referrerPolicy = v }
}

// New returns the security headers middleware. Headers already set by the
// handler are left alone.
func New(opts ...Option) golette.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	pairs := [][2]string{
		{"X-Content-Type-Options", cfg.contentTypeOptions},
		{"X-Frame-Options", cfg.frameOptions},
		{"X-XSS-Protection", cfg.xssProtection},
		{"Strict-Transport-Security", cfg.strictTransportSecurity},
		{"Content-Security-Policy", cfg.contentSecurityPolicy},
		{"Referrer-Policy", cfg.referrerPolicy},
	}

	return golette.Wrap("secheaders", func(next golette.HandlerFunc) golette.HandlerFunc {
		return func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
			resp, err := next(ctx, req)
			if err != nil || resp == nil {
				return resp, err
			}
			for _, p := range pairs {
				if p[1] != "" && resp.Header.Get(p[0]) == "" {
					resp.Header.Set(p[0], p[1])
				}
			}
			return resp, nil
		}
	})
}
