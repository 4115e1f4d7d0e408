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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/probekit/preflight/internal/commands/shared"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PREFLIGHT_HISTORY_DISABLED", "true")

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func writeProbeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probes.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write probe file: %v", err)
	}
	return path
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *shared.ExitError, got %T: %v", err, err)
	}
	return exitErr.Code
}

func TestRunCommand_Flags(t *testing.T) {
	cmd := NewCommand()

	for _, name := range []string{"only", "rate", "no-history"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to be registered", name)
		}
	}
}

func TestRun_AllProbesPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: first
    url: %s
  - name: second
    url: %s
`, srv.URL, srv.URL))

	if _, err := execute(t, path); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestRun_ProbeFailureExitsOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: failing
    url: %s
    max_retries: 0
`, srv.URL))

	_, err := execute(t, path)
	if code := exitCode(t, err); code != shared.ExitProbeFailed {
		t.Errorf("expected exit code %d, got %d", shared.ExitProbeFailed, code)
	}
}

func TestRun_ExpectationFailureExitsOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// The probe itself succeeds; the expectation does not hold.
	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: strict
    url: %s
    expect:
      - status == 200
`, srv.URL))

	_, err := execute(t, path)
	if code := exitCode(t, err); code != shared.ExitProbeFailed {
		t.Errorf("expected exit code %d, got %d", shared.ExitProbeFailed, code)
	}
}

func TestRun_ExpectationsPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: checked
    url: %s
    expect:
      - status == 204
      - allow contains "POST"
`, srv.URL))

	if _, err := execute(t, path); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestRun_OnlyFilter(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: api-health
    url: %s/api
  - name: db-ping
    url: %s/db
`, srv.URL, srv.URL))

	if _, err := execute(t, path, "--only", "api-*"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(paths) != 1 || paths[0] != "/api" {
		t.Errorf("expected only /api to be probed, got %v", paths)
	}
}

func TestRun_OnlyNoMatch(t *testing.T) {
	path := writeProbeFile(t, `
probes:
  - name: api-health
    url: https://example.com
`)

	_, err := execute(t, path, "--only", "zzz-*")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestRun_InvalidProbeFile(t *testing.T) {
	path := writeProbeFile(t, "probes: [this is not\n  a probe")

	_, err := execute(t, path)
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestRun_MissingProbeFile(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "nope.yaml"))
	if code := exitCode(t, err); code != shared.ExitMissingInput {
		t.Errorf("expected exit code %d, got %d", shared.ExitMissingInput, code)
	}
}

func TestRun_NegativeRate(t *testing.T) {
	path := writeProbeFile(t, `
probes:
  - name: api-health
    url: https://example.com
`)

	_, err := execute(t, path, "--rate", "-1")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestRun_EnvCredential(t *testing.T) {
	t.Setenv("RUN_TEST_TOKEN", "env-tkn")

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: authed
    url: %s
    auth:
      token: ${RUN_TEST_TOKEN}
`, srv.URL))

	if _, err := execute(t, path); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if gotAuth != "Bearer env-tkn" {
		t.Errorf("expected resolved env credential, got %q", gotAuth)
	}
}

func TestRun_UnresolvedCredentialExitsFour(t *testing.T) {
	path := writeProbeFile(t, `
probes:
  - name: authed
    url: https://example.com
    auth:
      token: ${PREFLIGHT_TEST_UNSET_VAR}
`)

	_, err := execute(t, path)
	if code := exitCode(t, err); code != shared.ExitCredentialError {
		t.Errorf("expected exit code %d, got %d", shared.ExitCredentialError, code)
	}
}

func TestRun_MintsOAuthToken(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"minted-tkn","token_type":"bearer","expires_in":3600}`)
	}))
	defer token.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: oauth
    url: %s
    auth:
      token_url: %s
      client_id: cid
      client_secret: csecret
`, api.URL, token.URL))

	if _, err := execute(t, path); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if gotAuth != "Bearer minted-tkn" {
		t.Errorf("expected minted bearer token, got %q", gotAuth)
	}
}

func TestRun_JSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := writeProbeFile(t, fmt.Sprintf(`
probes:
  - name: first
    url: %s
    expect:
      - status == 204
`, srv.URL))

	t.Setenv("PREFLIGHT_HISTORY_DISABLED", "true")

	// Bind the persistent --json flag the way the root command does.
	_, _, jsonPtr, _, _ := shared.RegisterFlagPointers()
	*jsonPtr = true
	defer func() { *jsonPtr = false }()

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var doc ReportDocument
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, buf.String())
	}
	if !doc.Success {
		t.Error("expected success=true")
	}
	if doc.Passed != 1 || doc.Failed != 0 {
		t.Errorf("expected 1 passed / 0 failed, got %d/%d", doc.Passed, doc.Failed)
	}
	if len(doc.Probes) != 1 {
		t.Fatalf("expected 1 probe document, got %d", len(doc.Probes))
	}
	p := doc.Probes[0]
	if p.Name != "first" {
		t.Errorf("expected probe name %q, got %q", "first", p.Name)
	}
	if p.StatusCode != 204 {
		t.Errorf("expected status_code 204, got %d", p.StatusCode)
	}
	if len(p.Expectations) != 1 || !p.Expectations[0].Passed {
		t.Errorf("expected one passing expectation, got %+v", p.Expectations)
	}
}
