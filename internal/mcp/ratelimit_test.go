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

import "testing"

func TestRateLimiter_ExhaustsCallBucket(t *testing.T) {
	rl := NewRateLimiter(10, 3)

	for i := 0; i < 3; i++ {
		if !rl.AllowCall() {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if rl.AllowCall() {
		t.Error("call over the limit should be denied")
	}
}

func TestRateLimiter_ExhaustsRunBucket(t *testing.T) {
	rl := NewRateLimiter(2, 10)

	for i := 0; i < 2; i++ {
		if !rl.AllowRun() {
			t.Fatalf("run %d should be allowed", i+1)
		}
	}
	if rl.AllowRun() {
		t.Error("run over the limit should be denied")
	}
}

func TestRateLimiter_BucketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 10)

	if !rl.AllowRun() {
		t.Fatal("first run should be allowed")
	}
	if rl.AllowRun() {
		t.Fatal("second run should be denied")
	}
	// Exhausting the run bucket must not block ordinary calls.
	if !rl.AllowCall() {
		t.Error("calls should still be allowed")
	}
}

func TestRateLimiter_ZeroDeniesEverything(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	if rl.AllowCall() {
		t.Error("zero-capacity call bucket should deny")
	}
	if rl.AllowRun() {
		t.Error("zero-capacity run bucket should deny")
	}
}
