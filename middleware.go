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
	"context"
	"sort"
)

// HandlerFunc is the terminal unit of dispatch: it consumes a request and
// produces a response or an error. Middleware compose around it.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// middlewareKind discriminates the three composition behaviors.
type middlewareKind uint8

const (
	kindWrap middlewareKind = iota
	kindObserve
	kindRecover
)

// Middleware is one layer of the dispatch onion. Build one with Wrap,
// Observe, or Recover; the zero value is invalid.
//
// The three variants differ in what they may do:
//
//   - Wrap middleware receive the next handler and may do anything:
//     short-circuit, mutate, retry, replace the response.
//   - Observe middleware run a hook before and after dispatch but cannot
//     alter the outcome. They are the only layers that also see synthetic
//     responses produced when no handler runs at all.
//   - Recover middleware intercept errors flowing outward and may convert
//     them into responses.
type Middleware struct {
	name     string
	priority int
	kind     middlewareKind

	wrap    func(next HandlerFunc) HandlerFunc
	before  func(ctx context.Context, req *Request)
	after   func(ctx context.Context, req *Request, resp *Response)
	recover func(ctx context.Context, req *Request, err error) (*Response, error)
}

// Wrap builds a full wrapping middleware from a handler decorator.
func Wrap(name string, fn func(next HandlerFunc) HandlerFunc) Middleware {
	return Middleware{name: name, kind: kindWrap, wrap: fn}
}

// Observe builds an observing middleware. Either hook may be nil. The after
// hook receives the response that flowed outward past this layer; it runs
// even when an inner layer produced the response instead of the handler,
// and is skipped when an error flows outward instead.
func Observe(name string, before func(ctx context.Context, req *Request), after func(ctx context.Context, req *Request, resp *Response)) Middleware {
	return Middleware{name: name, kind: kindObserve, before: before, after: after}
}

// Recover builds an error-intercepting middleware. fn sees every error
// flowing outward past this layer and may return a response in its place,
// translate it, or pass it through unchanged.
func Recover(name string, fn func(ctx context.Context, req *Request, err error) (*Response, error)) Middleware {
	return Middleware{name: name, kind: kindRecover, recover: fn}
}

// WithPriority returns a copy of the middleware with the given priority.
// Lower priorities sit further out in the onion; the default is 0, and
// equal priorities keep registration order.
func (m Middleware) WithPriority(p int) Middleware {
	m.priority = p
	return m
}

// Name returns the middleware's registered name.
func (m Middleware) Name() string { return m.name }

// layer applies the middleware around next.
func (m Middleware) layer(next HandlerFunc) HandlerFunc {
	switch m.kind {
	case kindWrap:
		return m.wrap(next)
	case kindObserve:
		return func(ctx context.Context, req *Request) (*Response, error) {
			if m.before != nil {
				m.before(ctx, req)
			}
			resp, err := next(ctx, req)
			if err == nil && m.after != nil {
				m.after(ctx, req, resp)
			}
			return resp, err
		}
	case kindRecover:
		return func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return m.recover(ctx, req, err)
			}
			return resp, nil
		}
	default:
		return next
	}
}

// Chain is an ordered, immutable set of middleware. Build it once, then
// compose handlers with Then; composition is pure, so one Chain can wrap
// every route's handler.
type Chain struct {
	layers []Middleware
}

// NewChain orders the given middleware by priority, ties broken by the
// order given, and returns the chain. The first layer after ordering is
// the outermost.
func NewChain(mws ...Middleware) *Chain {
	layers := make([]Middleware, len(mws))
	copy(layers, mws)
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].priority < layers[j].priority
	})
	return &Chain{layers: layers}
}

// Len returns the number of layers in the chain.
func (c *Chain) Len() int { return len(c.layers) }

// Then composes the chain around terminal, outermost layer first.
func (c *Chain) Then(terminal HandlerFunc) HandlerFunc {
	h := terminal
	for i := len(c.layers) - 1; i >= 0; i-- {
		h = c.layers[i].layer(h)
	}
	return h
}

// Observe runs only the observing layers around an already-built response.
// The adapter uses it for synthetic responses (no-match, method-not-allowed,
// lifespan-gated) so that logging and metrics layers still see them even
// though no handler ran. Before hooks run outermost-in, after hooks run
// back out.
func (c *Chain) Observe(ctx context.Context, req *Request, resp *Response) {
	for _, m := range c.layers {
		if m.kind == kindObserve && m.before != nil {
			m.before(ctx, req)
		}
	}
	for i := len(c.layers) - 1; i >= 0; i-- {
		m := c.layers[i]
		if m.kind == kindObserve && m.after != nil {
			m.after(ctx, req, resp)
		}
	}
}
