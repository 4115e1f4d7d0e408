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

package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/probekit/preflight/internal/commands/run"
)

var (
	probeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preflight_probe_results_total",
			Help: "Probe results by probe name and terminal signal",
		},
		[]string{"probe", "signal"},
	)

	probeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preflight_probe_duration_seconds",
			Help:    "Probe duration from first attempt to terminal outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"probe"},
	)

	probesPassing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "preflight_probes_passing",
		Help: "Probes passing in the most recent run, expectations included",
	})

	probesFailing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "preflight_probes_failing",
		Help: "Probes failing in the most recent run, expectations included",
	})
)

// observeReport records one finished run in the Prometheus metrics.
func observeReport(report *run.Report) {
	passing, failing := 0, 0
	for _, pr := range report.Results {
		probeResults.WithLabelValues(pr.Name, string(pr.Result.Signal)).Inc()
		probeDuration.WithLabelValues(pr.Name).Observe(float64(pr.Result.ElapsedMS) / 1000)
		if pr.Passed() {
			passing++
		} else {
			failing++
		}
	}
	probesPassing.Set(float64(passing))
	probesFailing.Set(float64(failing))
}
