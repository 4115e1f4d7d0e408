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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Collector records HTTP-level telemetry for probe attempts through the
// OpenTelemetry metric API. It measures the transport boundary: one data
// point per attempt, regardless of how the prober classifies the outcome.
type Collector struct {
	meter metric.Meter

	// Counters
	attemptsTotal metric.Int64Counter
	responseBytes metric.Int64Counter

	// Histograms
	attemptDuration metric.Float64Histogram

	// Gauges (using observable gauges)
	inflight   int64
	inflightMu sync.RWMutex
}

// NewCollector creates a collector using the given meter provider.
func NewCollector(meterProvider metric.MeterProvider) (*Collector, error) {
	meter := meterProvider.Meter(scopeName)

	c := &Collector{meter: meter}

	var err error

	c.attemptsTotal, err = meter.Int64Counter(
		"preflight_http_attempts_total",
		metric.WithDescription("Total number of HTTP probe attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	c.responseBytes, err = meter.Int64Counter(
		"preflight_http_response_bytes_total",
		metric.WithDescription("Total response body bytes received"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	c.attemptDuration, err = meter.Float64Histogram(
		"preflight_http_attempt_duration_seconds",
		metric.WithDescription("HTTP attempt duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"preflight_http_attempts_inflight",
		metric.WithDescription("Number of HTTP attempts currently in flight"),
		metric.WithUnit("{attempt}"),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			c.inflightMu.RLock()
			n := c.inflight
			c.inflightMu.RUnlock()
			observer.Observe(n)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// RecordAttemptStart marks an attempt as in flight.
func (c *Collector) RecordAttemptStart() {
	c.inflightMu.Lock()
	c.inflight++
	c.inflightMu.Unlock()
}

// RecordAttemptComplete records a finished attempt. The outcome is the
// status class ("2xx".."5xx") for delivered responses or the transport
// error type ("connection", "timeout", ...) for failures.
func (c *Collector) RecordAttemptComplete(ctx context.Context, method, outcome string, bodyBytes int, elapsed time.Duration) {
	c.inflightMu.Lock()
	if c.inflight > 0 {
		c.inflight--
	}
	c.inflightMu.Unlock()

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	}

	c.attemptsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	c.attemptDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

	if bodyBytes > 0 {
		c.responseBytes.Add(ctx, int64(bodyBytes), metric.WithAttributes(attrs...))
	}
}

// statusClass maps a status code to its class label.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// httpCollector lazily builds the process collector on the global meter
// provider. Instruments created before a real provider is installed
// delegate to it once Setup runs; without one they are no-ops. A nil
// return means instrument creation failed and recording is skipped.
func httpCollector() *Collector {
	globalCollectorOnce.Do(func() {
		c, err := NewCollector(otel.GetMeterProvider())
		if err != nil {
			return
		}
		globalCollector = c
	})
	return globalCollector
}
