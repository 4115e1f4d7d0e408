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
	"testing"

	"github.com/probekit/preflight/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type fakeTransport struct {
	resp  *probe.Response
	err   error
	calls int
}

func (f *fakeTransport) Execute(ctx context.Context, req *probe.Request) (*probe.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTransport) Name() string { return "fake" }

// newRecordingProvider installs a provider that exports synchronously to
// an in-memory exporter.
func newRecordingProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider, err := New("preflight-test", "0.0.0", sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return exporter
}

func findAttr(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTransport_AttemptSpansUnderInvocation(t *testing.T) {
	exporter := newRecordingProvider(t)

	inner := &fakeTransport{resp: &probe.Response{StatusCode: 204, Status: "No Content"}}
	traced := Transport(inner)
	assert.Equal(t, "fake", traced.Name())

	ctx, span := StartInvocation(context.Background(), "api", "https://api.example.com/v1")

	req := &probe.Request{Method: "OPTIONS", URL: "https://api.example.com/v1"}
	_, err := traced.Execute(ctx, req)
	require.NoError(t, err)
	_, err = traced.Execute(ctx, req)
	require.NoError(t, err)

	FinishInvocation(span, &probe.Result{
		URL:       "https://api.example.com/v1",
		Signal:    probe.SignalSuccess,
		Attempts:  2,
		ElapsedMS: 42,
		Outcome: probe.Outcome{
			Kind:       probe.OutcomeSuccess,
			StatusCode: 204,
			StatusText: "No Content",
		},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, 2, inner.calls)

	// Spans arrive in end order: attempts first, invocation last
	first, second, invocation := spans[0], spans[1], spans[2]

	assert.Equal(t, "preflight.invocation", invocation.Name)
	assert.Equal(t, "preflight.attempt", first.Name)
	assert.Equal(t, "preflight.attempt", second.Name)
	assert.Equal(t, trace.SpanKindClient, first.SpanKind)

	// Attempts parent under the invocation and are numbered
	assert.Equal(t, invocation.SpanContext.SpanID(), first.Parent.SpanID())
	assert.Equal(t, invocation.SpanContext.SpanID(), second.Parent.SpanID())

	n1, ok := findAttr(first.Attributes, "preflight.attempt")
	require.True(t, ok)
	assert.EqualValues(t, 1, n1.AsInt64())
	n2, ok := findAttr(second.Attributes, "preflight.attempt")
	require.True(t, ok)
	assert.EqualValues(t, 2, n2.AsInt64())

	method, ok := findAttr(first.Attributes, "http.request.method")
	require.True(t, ok)
	assert.Equal(t, "OPTIONS", method.AsString())
	status, ok := findAttr(first.Attributes, "http.response.status_code")
	require.True(t, ok)
	assert.EqualValues(t, 204, status.AsInt64())

	signal, ok := findAttr(invocation.Attributes, "preflight.signal")
	require.True(t, ok)
	assert.Equal(t, "success", signal.AsString())
	name, ok := findAttr(invocation.Attributes, "preflight.probe.name")
	require.True(t, ok)
	assert.Equal(t, "api", name.AsString())
	assert.Equal(t, codes.Ok, invocation.Status.Code)
}

func TestTransport_RecordsTransportError(t *testing.T) {
	exporter := newRecordingProvider(t)

	wantErr := &probe.TransportError{
		Type:    probe.ErrorTypeConnection,
		Message: "connection refused",
	}
	traced := Transport(&fakeTransport{err: wantErr})

	_, err := traced.Execute(context.Background(), &probe.Request{
		Method: "OPTIONS",
		URL:    "https://down.example.com",
	})
	require.ErrorIs(t, err, wantErr)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Status.Description, "connection refused")
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestTransport_ClientErrorMarksSpan(t *testing.T) {
	exporter := newRecordingProvider(t)

	traced := Transport(&fakeTransport{
		resp: &probe.Response{StatusCode: 403, Status: "Forbidden"},
	})

	resp, err := traced.Execute(context.Background(), &probe.Request{
		Method: "OPTIONS",
		URL:    "https://api.example.com/private",
	})
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "Forbidden", spans[0].Status.Description)

	// Without StartInvocation there is no attempt numbering
	_, ok := findAttr(spans[0].Attributes, "preflight.attempt")
	assert.False(t, ok)
}

func TestErrorOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "transport error carries its type",
			err:      &probe.TransportError{Type: probe.ErrorTypeTimeout, Message: "deadline exceeded"},
			expected: "timeout",
		},
		{
			name:     "connection error",
			err:      &probe.TransportError{Type: probe.ErrorTypeConnection, Message: "refused"},
			expected: "connection",
		},
		{
			name:     "unstructured error falls back",
			err:      context.Canceled,
			expected: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorOutcome(tt.err))
		})
	}
}

func TestFinishInvocation_NetworkError(t *testing.T) {
	exporter := newRecordingProvider(t)

	_, span := StartInvocation(context.Background(), "", "https://down.example.com")
	FinishInvocation(span, &probe.Result{
		URL:      "https://down.example.com",
		Signal:   probe.SignalNetworkError,
		Attempts: 3,
		Outcome: probe.Outcome{
			Kind:    probe.OutcomeNetworkError,
			Message: "connection refused",
		},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "connection refused", spans[0].Status.Description)

	_, ok := findAttr(spans[0].Attributes, "http.response.status_code")
	assert.False(t, ok, "no response means no status attribute")
	_, ok = findAttr(spans[0].Attributes, "preflight.probe.name")
	assert.False(t, ok, "unnamed probes carry no name attribute")
}
