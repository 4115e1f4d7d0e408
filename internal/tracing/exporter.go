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

package tracing

import (
	"context"
	"fmt"
	"strings"

	"github.com/probekit/preflight/internal/tracing/export"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newExporter creates the span exporter selected by config.
func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", "console":
		return export.NewConsoleExporter(export.ConsoleConfig{PrettyPrint: true})

	case "otlp-grpc", "otlp-http":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("trace exporter %q requires an endpoint", cfg.Exporter)
		}
		tlsCfg, err := export.BuildTLSConfig(cfg.Insecure, cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config for %s exporter: %w", cfg.Exporter, err)
		}
		return export.NewOTLPExporter(ctx, export.OTLPConfig{
			Protocol:  strings.TrimPrefix(cfg.Exporter, "otlp-"),
			Endpoint:  cfg.Endpoint,
			Insecure:  cfg.Insecure,
			TLSConfig: tlsCfg,
			Headers:   cfg.Headers,
		})

	default:
		return nil, fmt.Errorf("unknown trace exporter %q (want console, otlp-http, or otlp-grpc)", cfg.Exporter)
	}
}
