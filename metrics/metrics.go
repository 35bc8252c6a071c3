// Copyright 2025 The restsvc Authors
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

package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes metric names when no namespace is configured.
const DefaultNamespace = "restsvc"

var validNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrInvalidNamespace is returned for a namespace that is not a valid
// Prometheus metric name prefix.
var ErrInvalidNamespace = errors.New("invalid metrics namespace")

// Option configures a [Recorder].
type Option func(*Recorder)

// WithNamespace sets the metric name prefix.
func WithNamespace(ns string) Option {
	return func(r *Recorder) { r.namespace = ns }
}

// WithRegistry registers the metrics with reg instead of a private
// registry. Handler then serves reg.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) { r.registry = reg }
}

// WithBuckets sets the duration histogram buckets, in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(r *Recorder) { r.buckets = buckets }
}

// Recorder records request metrics. A nil *Recorder records nothing.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// New creates a recorder and registers its collectors.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		namespace: DefaultNamespace,
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !validNamespace.MatchString(r.namespace) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, r.namespace)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	labels := []string{"service", "method", "route", "status"}
	r.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "requests_total",
		Help:      "Total number of handled requests.",
	}, labels)
	r.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "request_duration_seconds",
		Help:      "Request handling duration in seconds.",
		Buckets:   r.buckets,
	}, labels)
	r.inFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being handled.",
	}, []string{"service"})

	for _, c := range []prometheus.Collector{r.requests, r.duration, r.inFlight} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic("metrics initialization failed: " + err.Error())
	}

	return r
}

// Begin marks the start of a request for service and returns the function
// that records its outcome.
func (r *Recorder) Begin(service string) func(method, route string, status int) {
	if r == nil {
		return func(string, string, int) {}
	}

	start := time.Now()
	gauge := r.inFlight.WithLabelValues(service)
	gauge.Inc()

	return func(method, route string, status int) {
		gauge.Dec()
		code := strconv.Itoa(status)
		r.requests.WithLabelValues(service, method, route, code).Inc()
		r.duration.WithLabelValues(service, method, route, code).Observe(time.Since(start).Seconds())
	}
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
