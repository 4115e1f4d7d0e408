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

package run

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/probekit/preflight/internal/transport"
	"github.com/probekit/preflight/pkg/probe"
)

func newTestProber(t *testing.T) *probe.Prober {
	t.Helper()
	prober, err := probe.New(transport.New(nil))
	if err != nil {
		t.Fatalf("failed to create prober: %v", err)
	}
	return prober
}

func TestLoadPlan_BadExpectation(t *testing.T) {
	path := writeProbeFile(t, `
probes:
  - name: broken
    url: https://example.com
    expect:
      - status ===
`)

	if _, err := LoadPlan(path, ""); err == nil {
		t.Fatal("expected a compile error for a malformed expectation")
	}
}

func TestLoadPlan_FiltersAndKeepsOrder(t *testing.T) {
	path := writeProbeFile(t, `
probes:
  - name: api-users
    url: https://example.com/users
  - name: db-ping
    url: https://example.com/db
  - name: api-orders
    url: https://example.com/orders
`)

	plan, err := LoadPlan(path, "api-*")
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}

	if len(plan.Probes) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(plan.Probes))
	}
	if plan.Probes[0].Name != "api-users" || plan.Probes[1].Name != "api-orders" {
		t.Errorf("expected declaration order to be preserved, got %q then %q",
			plan.Probes[0].Name, plan.Probes[1].Name)
	}
}

func TestExecutor_ReportAndCallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: good
    url: %s/good
  - name: bad
    url: %s/bad
    max_retries: 0
`, srv.URL, srv.URL))

	plan, err := LoadPlan(path, "")
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}

	var startOrder, doneOrder []string
	exec := &Executor{
		Prober: newTestProber(t),
		OnStart: func(name string, index, total int) {
			startOrder = append(startOrder, name)
			if total != 2 {
				t.Errorf("expected total 2, got %d", total)
			}
		},
		OnResult: func(pr *ProbeResult, index, total int) {
			doneOrder = append(doneOrder, pr.Name)
		},
	}

	report, err := exec.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	passed, failed := report.Counts()
	if passed != 1 || failed != 1 {
		t.Errorf("expected 1 passed / 1 failed, got %d/%d", passed, failed)
	}
	if report.Passed() {
		t.Error("expected the report to fail")
	}

	want := []string{"good", "bad"}
	for i, name := range want {
		if startOrder[i] != name || doneOrder[i] != name {
			t.Errorf("expected callback order %v, got starts %v, results %v", want, startOrder, doneOrder)
			break
		}
	}
}

func TestProbeResult_FailedChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: strict
    url: %s
    expect:
      - status == 204
      - status == 200
`, srv.URL))

	plan, err := LoadPlan(path, "")
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}

	exec := &Executor{Prober: newTestProber(t)}
	report, err := exec.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	pr := report.Results[0]
	if pr.Passed() {
		t.Error("expected the probe to fail on its second expectation")
	}
	failed := pr.FailedChecks()
	if len(failed) != 1 || failed[0] != "status == 200" {
		t.Errorf("expected the failed expectation source, got %v", failed)
	}
}
