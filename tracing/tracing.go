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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter selects where spans are sent.
type Exporter string

const (
	// ExporterNone records nothing.
	ExporterNone Exporter = "none"
	// ExporterStdout writes spans as JSON.
	ExporterStdout Exporter = "stdout"
	// ExporterOTLPHTTP sends spans to an OTLP/HTTP collector.
	ExporterOTLPHTTP Exporter = "otlp-http"
)

// ErrUnknownExporter is returned for an unsupported exporter name.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// Option configures a [Provider].
type Option func(*Provider)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(p *Provider) { p.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(p *Provider) { p.serviceVersion = version }
}

// WithExporter selects the span exporter. Defaults to [ExporterNone].
func WithExporter(e Exporter) Option {
	return func(p *Provider) { p.exporter = e }
}

// WithWriter sets the destination of the stdout exporter.
func WithWriter(w io.Writer) Option {
	return func(p *Provider) { p.writer = w }
}

// WithOTLPEndpoint sets the collector host:port of the OTLP exporter.
func WithOTLPEndpoint(endpoint string) Option {
	return func(p *Provider) { p.otlpEndpoint = endpoint }
}

// WithOTLPInsecure disables TLS for the OTLP exporter.
func WithOTLPInsecure(insecure bool) Option {
	return func(p *Provider) { p.otlpInsecure = insecure }
}

// WithSampleRatio samples the given fraction of new traces. Sampling
// decisions of remote parents are respected.
func WithSampleRatio(ratio float64) Option {
	return func(p *Provider) { p.ratio = ratio }
}

// WithGlobal registers the provider and propagator with the otel package.
func WithGlobal() Option {
	return func(p *Provider) { p.global = true }
}

// Provider owns a tracer provider and its exporter.
type Provider struct {
	serviceName    string
	serviceVersion string
	exporter       Exporter
	writer         io.Writer
	otlpEndpoint   string
	otlpInsecure   bool
	ratio          float64
	global         bool

	sdk      *sdktrace.TracerProvider
	provider trace.TracerProvider
}

// New builds a provider. With [ExporterNone] the returned provider is a
// no-op and Shutdown does nothing.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	p := &Provider{
		serviceName: "restsvc",
		exporter:    ExporterNone,
		writer:      os.Stdout,
		ratio:       1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ratio < 0 || p.ratio > 1 {
		return nil, fmt.Errorf("sample ratio %v out of range [0,1]", p.ratio)
	}

	var exporter sdktrace.SpanExporter
	switch p.exporter {
	case ExporterNone, "":
		p.provider = noop.NewTracerProvider()
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(p.writer))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	case ExporterOTLPHTTP:
		var httpOpts []otlptracehttp.Option
		if p.otlpEndpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(p.otlpEndpoint))
		}
		if p.otlpInsecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("create OTLP HTTP exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, p.exporter)
	}

	if exporter != nil {
		p.sdk = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(p.resource()),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.ratio))),
		)
		p.provider = p.sdk
	}

	if p.global {
		otel.SetTracerProvider(p.provider)
		otel.SetTextMapPropagator(Propagator())
	}

	return p, nil
}

func (p *Provider) resource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(p.serviceName),
		semconv.ServiceVersion(p.serviceVersion),
	)
}

// TracerProvider returns the provider to hand to restsvc.WithTracerProvider.
func (p *Provider) TracerProvider() trace.TracerProvider { return p.provider }

// Exporter returns the configured exporter.
func (p *Provider) Exporter() Exporter { return p.exporter }

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}

	return p.sdk.Shutdown(ctx)
}

// Propagator returns the W3C trace context and baggage propagator.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}
