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

package export

import (
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ConsoleConfig configures the console exporter. Spans default to
// os.Stderr so they share the terminal with probe output without
// polluting stdout for --json pipelines.
type ConsoleConfig struct {
	Writer      io.Writer
	PrettyPrint bool
}

// NewConsoleExporter creates a span exporter that prints to the terminal,
// for local debugging of trace instrumentation.
func NewConsoleExporter(cfg ConsoleConfig) (trace.SpanExporter, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exp, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console span exporter: %w", err)
	}
	return exp, nil
}
