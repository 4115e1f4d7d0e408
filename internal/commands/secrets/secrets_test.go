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

package secrets

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/secrets"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *shared.ExitError, got %T: %v", err, err)
	}
	return exitErr.Code
}

// setupBackends isolates backend storage in temp directories and enables
// the encrypted file backend.
func setupBackends(t *testing.T) {
	t.Helper()

	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PREFLIGHT_MASTER_KEY", "unit-test-master-key")
}

// withStdin replaces stdin with a pipe carrying content, so the set
// command takes its piped-input path.
func withStdin(t *testing.T, content string) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	if _, err := w.WriteString(content); err != nil {
		t.Fatalf("failed to fill pipe: %v", err)
	}
	w.Close()

	orig := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = orig
		r.Close()
	})
}

func TestSecretsCommand_Subcommands(t *testing.T) {
	cmd := NewCommand()

	want := map[string]bool{"set": false, "get": false, "list": false, "delete": false, "migrate": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	setupBackends(t)

	out, err := execute(t, "set", "api-token", "s3cret-value-123", "--backend", "file")
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(out, "stored") || !strings.Contains(out, "file") {
		t.Errorf("expected a stored confirmation naming the backend, got:\n%s", out)
	}

	out, err = execute(t, "get", "api-token")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out, "s3cr...-123") {
		t.Errorf("expected a masked value, got:\n%s", out)
	}
	if strings.Contains(out, "s3cret-value-123") {
		t.Errorf("expected the full value to stay hidden, got:\n%s", out)
	}

	out, err = execute(t, "get", "api-token", "--unmask")
	if err != nil {
		t.Fatalf("get --unmask failed: %v", err)
	}
	if strings.TrimSpace(out) != "s3cret-value-123" {
		t.Errorf("expected the bare value, got %q", out)
	}
}

func TestSet_FromStdin(t *testing.T) {
	setupBackends(t)
	withStdin(t, "piped-secret-value\n")

	if _, err := execute(t, "set", "piped-token", "--backend", "file"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	out, err := execute(t, "get", "piped-token", "--unmask")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if strings.TrimSpace(out) != "piped-secret-value" {
		t.Errorf("expected the trimmed piped value, got %q", out)
	}
}

func TestSet_EmptyStdin(t *testing.T) {
	setupBackends(t)
	withStdin(t, "")

	_, err := execute(t, "set", "empty-token", "--backend", "file")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestSet_InvalidKey(t *testing.T) {
	setupBackends(t)

	_, err := execute(t, "set", "Bad Key!", "value")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestGet_NotFound(t *testing.T) {
	setupBackends(t)

	_, err := execute(t, "get", "never-stored")
	if err == nil {
		t.Fatal("expected an error for a missing secret")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected a not-found message, got %q", err.Error())
	}
}

func TestGet_EnvBackendWins(t *testing.T) {
	setupBackends(t)
	t.Setenv("PREFLIGHT_SECRET_SHARED_KEY", "from-env")

	if _, err := execute(t, "set", "shared-key", "from-file", "--backend", "file"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	out, err := execute(t, "get", "shared-key", "--unmask")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if strings.TrimSpace(out) != "from-env" {
		t.Errorf("expected the env value to win, got %q", out)
	}
}

func TestList(t *testing.T) {
	setupBackends(t)
	t.Setenv("PREFLIGHT_SECRET_CI_TOKEN", "x")

	if _, err := execute(t, "set", "stored-token", "value-1", "--backend", "file"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	for _, want := range []string{"ci-token", "env", "stored-token", "file", "KEY", "BACKEND"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected list output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "value-1") {
		t.Errorf("expected values to stay hidden, got:\n%s", out)
	}
}

func TestList_JSON(t *testing.T) {
	setupBackends(t)
	t.Setenv("PREFLIGHT_SECRET_CI_TOKEN", "x")

	_, _, jsonPtr, _, _ := shared.RegisterFlagPointers()
	*jsonPtr = true
	defer func() { *jsonPtr = false }()

	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var metadata []secrets.Metadata
	if err := json.Unmarshal([]byte(out), &metadata); err != nil {
		t.Fatalf("expected a JSON array, got error %v:\n%s", err, out)
	}

	found := false
	for _, meta := range metadata {
		if meta.Key == "ci-token" && meta.Backend == "env" && meta.ReadOnly {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the env secret in the listing, got %+v", metadata)
	}
}

func TestDelete(t *testing.T) {
	setupBackends(t)

	if _, err := execute(t, "set", "doomed-token", "value", "--backend", "file"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	out, err := execute(t, "delete", "doomed-token", "--backend", "file", "--force")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "deleted") {
		t.Errorf("expected a deletion confirmation, got:\n%s", out)
	}

	if _, err := execute(t, "get", "doomed-token"); err == nil {
		t.Error("expected the secret to be gone")
	}
}

func TestDelete_NonInteractiveWithoutForce(t *testing.T) {
	setupBackends(t)
	t.Setenv("PREFLIGHT_NON_INTERACTIVE", "true")

	_, err := execute(t, "delete", "some-token")
	if code := exitCode(t, err); code != shared.ExitMissingInputNonInteractive {
		t.Errorf("expected exit code %d, got %d", shared.ExitMissingInputNonInteractive, code)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"s3cret-value-123", "s3cr...-123"},
	}

	for _, tt := range tests {
		if got := maskSecret(tt.value); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestSecretKeyFor(t *testing.T) {
	tests := []struct {
		probe string
		field string
		want  string
	}{
		{"api-users", "token", "api-users/token"},
		{"API Users!", "token", "api-users/token"},
		{"login", "client_secret", "login/client-secret"},
		{"???", "password", "probe/password"},
	}

	for _, tt := range tests {
		if got := secretKeyFor(tt.probe, tt.field); got != tt.want {
			t.Errorf("secretKeyFor(%q, %q) = %q, want %q", tt.probe, tt.field, got, tt.want)
		}
	}
}
