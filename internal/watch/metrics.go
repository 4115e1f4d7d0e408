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
)

var (
	watchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preflight_watch_runs_total",
			Help: "Total probe runs by reason (initial, change, interval)",
		},
		[]string{"reason"},
	)

	watchRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preflight_watch_rate_limited_total",
		Help: "Total change-triggered re-runs dropped by the rate limiter",
	})

	watchExcluded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preflight_watch_events_excluded_total",
		Help: "Total filesystem events excluded by pattern matching",
	})
)
