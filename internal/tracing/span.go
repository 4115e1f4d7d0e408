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
	"sync/atomic"

	"github.com/probekit/preflight/pkg/probe"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/probekit/preflight/internal/tracing"

type attemptCounterKey struct{}

// StartInvocation opens the root span for one probe invocation. The
// returned context carries the span and the attempt counter the traced
// transport numbers its child spans from.
func StartInvocation(ctx context.Context, name, url string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{semconv.URLFull(url)}
	if name != "" {
		attrs = append(attrs, attribute.String("preflight.probe.name", name))
	}

	ctx = context.WithValue(ctx, attemptCounterKey{}, new(atomic.Int32))
	return otel.Tracer(scopeName).Start(ctx, "preflight.invocation",
		trace.WithAttributes(attrs...))
}

// FinishInvocation records the terminal result on the span and ends it.
func FinishInvocation(span trace.Span, res *probe.Result) {
	span.SetAttributes(
		attribute.String("preflight.signal", string(res.Signal)),
		attribute.Int("preflight.attempts", res.Attempts),
		attribute.Int64("preflight.elapsed_ms", res.ElapsedMS),
	)
	if res.Outcome.HasResponse() {
		span.SetAttributes(semconv.HTTPResponseStatusCode(res.Outcome.StatusCode))
	}

	if res.Signal == probe.SignalSuccess {
		span.SetStatus(codes.Ok, "")
	} else {
		desc := res.Outcome.Message
		if desc == "" {
			desc = string(res.Signal)
		}
		span.SetStatus(codes.Error, desc)
	}

	span.End()
}

// nextAttempt numbers attempts within one invocation. Returns 0 when the
// context does not come from StartInvocation.
func nextAttempt(ctx context.Context) int {
	counter, ok := ctx.Value(attemptCounterKey{}).(*atomic.Int32)
	if !ok {
		return 0
	}
	return int(counter.Add(1))
}
