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

package transport

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/golette/golette"
)

// Server runs an Application behind an http.Server with production-safe
// timeouts, ties the listener's lifetime to the application's lifespan
// hooks, and optionally speaks h2c.
//
// Example:
//
//	srv := transport.NewServer(app, ":8080")
//	go func() {
//	    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
//	        log.Fatal(err)
//	    }
//	}()
//
//	<-quit
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	srv.Shutdown(ctx)
type Server struct {
	app  *golette.Application
	srv  *http.Server
	life *Lifespan
	h2c  bool

	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration

	handlerOpts []Option
}

// ServerOption defines functional options for the Server.
type ServerOption func(*Server)

// WithH2C enables cleartext HTTP/2. Use only in development or behind a
// trusted load balancer; public-facing servers should terminate TLS.
func WithH2C(enabled bool) ServerOption {
	return func(s *Server) { s.h2c = enabled }
}

// WithServerTimeouts overrides the timeout defaults (5s read header, 15s
// read, 30s write, 60s idle). Zero keeps a timeout unset, which is unsafe
// on public listeners.
func WithServerTimeouts(readHeader, read, write, idle time.Duration) ServerOption {
	return func(s *Server) {
		s.readHeaderTimeout = readHeader
		s.readTimeout = read
		s.writeTimeout = write
		s.idleTimeout = idle
	}
}

// WithHandlerOptions forwards options to the inner Handler.
func WithHandlerOptions(opts ...Option) ServerOption {
	return func(s *Server) { s.handlerOpts = append(s.handlerOpts, opts...) }
}

// NewServer builds a Server for app listening on addr.
func NewServer(app *golette.Application, addr string, opts ...ServerOption) *Server {
	s := &Server{
		app:               app,
		readHeaderTimeout: 5 * time.Second,
		readTimeout:       15 * time.Second,
		writeTimeout:      30 * time.Second,
		idleTimeout:       60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	h := http.Handler(New(app, s.handlerOpts...))
	if s.h2c {
		h = h2c.NewHandler(h, &http2.Server{})
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: s.readHeaderTimeout,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       s.idleTimeout,
	}
	return s
}

// ListenAndServe runs the startup hooks and then blocks serving until the
// server exits. A failed startup hook aborts before the listener opens.
func (s *Server) ListenAndServe() error {
	s.life = NewLifespan(s.app)
	if err := s.life.Startup(context.Background()); err != nil {
		return err
	}
	return s.srv.ListenAndServe()
}

// ListenAndServeTLS is ListenAndServe over TLS. HTTP/2 negotiates via ALPN.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	s.life = NewLifespan(s.app)
	if err := s.life.Startup(context.Background()); err != nil {
		return err
	}
	return s.srv.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown gracefully drains the listener and then runs the shutdown
// hooks. The context bounds both phases.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if s.life != nil {
		if herr := s.life.Shutdown(ctx); err == nil {
			err = herr
		}
	}
	return err
}
