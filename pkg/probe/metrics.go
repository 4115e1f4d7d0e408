package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preflight_probe_attempt_duration_seconds",
			Help:    "Duration of probe attempts by outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preflight_probe_invocations_total",
			Help: "Total finished probe invocations by terminal signal",
		},
		[]string{"signal"},
	)

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preflight_probe_retries_total",
		Help: "Total retry attempts across all invocations",
	})
)

// recordInvocation records the terminal signal of a finished invocation.
// Retries are counted incrementally by the run loop.
func recordInvocation(signal Signal) {
	invocationsTotal.WithLabelValues(string(signal)).Inc()
}
