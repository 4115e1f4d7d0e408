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

// Package export provides span exporters for external observability
// platforms.
package export

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// OTLP transport protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// OTLPConfig configures an OTLP span exporter over either transport.
type OTLPConfig struct {
	// Protocol selects the transport: ProtocolGRPC (default) or
	// ProtocolHTTP.
	Protocol string
	// Endpoint is the collector host:port, e.g. "localhost:4317" for
	// gRPC or "api.honeycomb.io:443" for HTTP.
	Endpoint string
	// URLPath overrides the HTTP trace path (default "/v1/traces").
	// Ignored for gRPC.
	URLPath string
	// Insecure disables TLS entirely. Development collectors only.
	Insecure bool
	// TLSConfig overrides the default system-pool TLS 1.2+ client
	// config, typically to trust a private CA (see BuildTLSConfig).
	TLSConfig *tls.Config
	// Headers is sent with every export request, e.g. tenant API keys.
	Headers map[string]string
}

// NewOTLPExporter creates an OTLP span exporter for cfg.Protocol.
func NewOTLPExporter(ctx context.Context, cfg OTLPConfig) (trace.SpanExporter, error) {
	switch cfg.Protocol {
	case ProtocolGRPC, "":
		return newOTLPGRPC(ctx, cfg)
	case ProtocolHTTP:
		return newOTLPHTTP(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown OTLP protocol %q (want %s or %s)", cfg.Protocol, ProtocolGRPC, ProtocolHTTP)
	}
}

func newOTLPGRPC(ctx context.Context, cfg OTLPConfig) (trace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(clientTLS(cfg.TLSConfig))))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
	}
	return exp, nil
}

func newOTLPHTTP(ctx context.Context, cfg OTLPConfig) (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.URLPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(cfg.URLPath))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	} else {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(clientTLS(cfg.TLSConfig)))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}
	return exp, nil
}
