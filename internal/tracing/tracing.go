// Copyright 2025 Tom Barlow
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

// Package tracing wires OpenTelemetry span export and the Prometheus
// metrics bridge. Tracing is opt-in: Setup on a disabled config returns a
// nil Provider whose methods are no-ops, and the instrumentation helpers
// fall back to the global no-op tracer.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config configures span export for one process.
type Config struct {
	// Enabled activates the tracer provider.
	Enabled bool

	// ServiceName identifies this process in traces. Default: preflight.
	ServiceName string

	// ServiceVersion is the build version stamped on the trace resource.
	ServiceVersion string

	// Exporter selects the span exporter: "console" (default),
	// "otlp-http", or "otlp-grpc".
	Exporter string

	// Endpoint is the OTLP receiver address. Required for the OTLP
	// exporters.
	Endpoint string

	// Insecure disables TLS for OTLP exporters.
	Insecure bool

	// CACert is a path to a PEM CA bundle for collectors behind private
	// certificates.
	CACert string

	// Headers are additional headers sent to the OTLP receiver.
	Headers map[string]string
}

// Provider owns the tracer and meter providers for the process. A nil
// Provider is valid and inert.
type Provider struct {
	tp *sdktrace.TracerProvider
	mp *metric.MeterProvider
}

// Setup builds a Provider from config. Disabled tracing returns
// (nil, nil). Spans flow through a batch processor to the configured
// exporter.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "preflight"
	}

	return New(serviceName, cfg.ServiceVersion, sdktrace.WithBatcher(exporter))
}

// New creates a Provider with the given identity and tracer options, and
// installs it as the process-global tracer and meter provider. The meter
// provider reads through the OpenTelemetry Prometheus exporter, which
// registers with the default Prometheus registry. The probe metrics use
// the same registry, so one scrape endpoint serves both.
func New(serviceName, serviceVersion string, opts ...sdktrace.TracerProviderOption) (*Provider, error) {
	// Empty schema URL avoids merge conflicts with the default resource.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tpOpts := append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}, opts...)

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(promExporter),
	)
	otel.SetMeterProvider(mp)

	return &Provider{tp: tp, mp: mp}, nil
}

// Enabled reports whether spans are actually being recorded.
func (p *Provider) Enabled() bool {
	return p != nil
}

// Shutdown flushes pending spans and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return err
	}
	return p.mp.Shutdown(ctx)
}

// ForceFlush drains buffered spans and metrics before the process exits.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if err := p.tp.ForceFlush(ctx); err != nil {
		return err
	}
	return p.mp.ForceFlush(ctx)
}
