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

// Package prometheus provides a golette.Recorder backed by Prometheus
// collectors.
package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/golette/golette"
)

// Recorder implements golette.Recorder with three collectors: a request
// counter, a duration histogram, and an in-flight gauge. Labels are scope
// type, method, and status class; the raw path is deliberately not a
// label, to keep cardinality bounded.
type Recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// Option defines functional options for the Recorder.
type Option func(*config)

type config struct {
	namespace string
	buckets   []float64
}

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithBuckets replaces the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *config) { c.buckets = buckets }
}

// NewRecorder builds a Recorder and registers its collectors with reg.
// Pass prometheus.DefaultRegisterer to use the default registry.
func NewRecorder(reg prometheus.Registerer, opts ...Option) (*Recorder, error) {
	cfg := &config{buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "golette_scopes_total",
			Help:      "Dispatched scopes by type, method, and status.",
		}, []string{"scope", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "golette_scope_duration_seconds",
			Help:      "Scope dispatch duration in seconds.",
			Buckets:   cfg.buckets,
		}, []string{"scope", "method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Name:      "golette_scopes_in_flight",
			Help:      "Scopes currently being dispatched.",
		}),
	}

	for _, c := range []prometheus.Collector{r.requests, r.duration, r.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRecorder is NewRecorder that panics on registration failure.
func MustNewRecorder(reg prometheus.Registerer, opts ...Option) *Recorder {
	r, err := NewRecorder(reg, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// OnScopeStart counts the scope in flight.
func (r *Recorder) OnScopeStart(ctx context.Context, _ golette.Scope) context.Context {
	r.inflight.Inc()
	return ctx
}

// OnScopeEnd records the outcome and duration.
func (r *Recorder) OnScopeEnd(_ context.Context, scope golette.Scope, status int, duration time.Duration, err error) {
	r.inflight.Dec()

	label := "ok"
	switch {
	case err != nil:
		label = "error"
	case status > 0:
		label = strconv.Itoa(status/100) + "xx"
	}
	r.requests.WithLabelValues(scope.Type.String(), scope.Method, label).Inc()
	r.duration.WithLabelValues(scope.Type.String(), scope.Method).Observe(duration.Seconds())
}
