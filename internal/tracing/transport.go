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
	"errors"
	"time"

	"github.com/probekit/preflight/pkg/probe"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Transport wraps a probe transport with a client span per attempt. The
// probe core stays OpenTelemetry-free; instrumentation rides the
// transport boundary.
func Transport(inner probe.Transport) probe.Transport {
	return &tracedTransport{inner: inner}
}

type tracedTransport struct {
	inner probe.Transport
}

// Execute runs the attempt inside a client span. When the context comes
// from StartInvocation, the span parents under the invocation span and
// carries the attempt number.
func (t *tracedTransport) Execute(ctx context.Context, req *probe.Request) (*probe.Response, error) {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL),
	}
	if n := nextAttempt(ctx); n > 0 {
		attrs = append(attrs, attribute.Int("preflight.attempt", n))
	}

	ctx, span := otel.Tracer(scopeName).Start(ctx, "preflight.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	defer span.End()

	col := httpCollector()
	if col != nil {
		col.RecordAttemptStart()
	}
	start := time.Now()

	resp, err := t.inner.Execute(ctx, req)
	if err != nil {
		if col != nil {
			col.RecordAttemptComplete(ctx, req.Method, errorOutcome(err), 0, time.Since(start))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if col != nil {
		col.RecordAttemptComplete(ctx, req.Method, statusClass(resp.StatusCode), len(resp.Body), time.Since(start))
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	// Client-side span conventions treat any 4xx/5xx as an error.
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	return resp, nil
}

// errorOutcome labels a transport failure with its error type.
func errorOutcome(err error) string {
	var te *probe.TransportError
	if errors.As(err, &te) {
		return string(te.Type)
	}
	return "error"
}

// Name returns the wrapped transport's identifier.
func (t *tracedTransport) Name() string {
	return t.inner.Name()
}
