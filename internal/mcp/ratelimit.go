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

package mcp

import "golang.org/x/time/rate"

// RateLimiter throttles MCP tool calls with two independent buckets:
// one over every tool call, and a tighter one over probe file runs,
// which fan out to many network requests per call.
type RateLimiter struct {
	runs  *rate.Limiter
	calls *rate.Limiter
}

// NewRateLimiter sizes both buckets in calls per minute. Buckets start
// full, so a burst up to the per-minute figure passes immediately and
// then refills continuously. Zero capacity denies everything.
func NewRateLimiter(runsPerMinute, callsPerMinute int) *RateLimiter {
	return &RateLimiter{
		runs:  perMinute(runsPerMinute),
		calls: perMinute(callsPerMinute),
	}
}

func perMinute(n int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(n)/60, n)
}

// AllowCall reports whether another tool call may proceed now.
func (rl *RateLimiter) AllowCall() bool {
	return rl.calls.Allow()
}

// AllowRun reports whether another probe file run may proceed now.
func (rl *RateLimiter) AllowRun() bool {
	return rl.runs.Allow()
}
