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

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/history"
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

// tempDB points the history env override at a fresh database and returns
// its path for seeding.
func tempDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("PREFLIGHT_HISTORY_PATH", path)
	return path
}

func seed(t *testing.T, path string, records ...*history.Record) {
	t.Helper()

	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("failed to open seed store: %v", err)
	}
	defer store.Close()

	for _, rec := range records {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}
}

func successRecord(id string, age time.Duration) *history.Record {
	return &history.Record{
		ID:         id,
		CreatedAt:  time.Now().Add(-age),
		Name:       "api-health",
		URL:        "https://api.example.com/v1/health",
		Signal:     "success",
		StatusCode: 204,
		StatusText: "No Content",
		ElapsedMS:  42,
		Attempts:   1,
		Allow:      "GET, POST, OPTIONS",
	}
}

func failureRecord(id string, age time.Duration) *history.Record {
	return &history.Record{
		ID:         id,
		CreatedAt:  time.Now().Add(-age),
		URL:        "https://api.example.com/v1/admin",
		Signal:     "client-error",
		StatusCode: 403,
		StatusText: "Forbidden",
		ElapsedMS:  17,
		Attempts:   1,
	}
}

func TestHistoryCommand_Subcommands(t *testing.T) {
	cmd := NewCommand()

	want := map[string]bool{"list": false, "show": false, "clear": false}
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

func TestList_Empty(t *testing.T) {
	tempDB(t)

	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "history is empty") {
		t.Errorf("expected empty message, got:\n%s", out)
	}
}

func TestList_RendersNewestFirst(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("11111111-aaaa-bbbb-cccc-000000000001", 2*time.Hour),
		failureRecord("22222222-aaaa-bbbb-cccc-000000000002", time.Hour),
	)

	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"11111111", "22222222", "success", "client-error", "api-health", "204", "403"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	// The failure record is newer and must come first.
	if strings.Index(out, "22222222") > strings.Index(out, "11111111") {
		t.Errorf("expected newest record first, got:\n%s", out)
	}
}

func TestList_Limit(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("11111111-aaaa-bbbb-cccc-000000000001", 3*time.Hour),
		successRecord("22222222-aaaa-bbbb-cccc-000000000002", 2*time.Hour),
		failureRecord("33333333-aaaa-bbbb-cccc-000000000003", time.Hour),
	)

	out, err := execute(t, "list", "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "33333333") {
		t.Errorf("expected only the newest record, got:\n%s", out)
	}
	if strings.Contains(out, "11111111") || strings.Contains(out, "22222222") {
		t.Errorf("expected older records to be cut off, got:\n%s", out)
	}
}

func TestList_SignalFilter(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("11111111-aaaa-bbbb-cccc-000000000001", 2*time.Hour),
		failureRecord("22222222-aaaa-bbbb-cccc-000000000002", time.Hour),
	)

	out, err := execute(t, "list", "--signal", "client-error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "22222222") {
		t.Errorf("expected the client-error record, got:\n%s", out)
	}
	if strings.Contains(out, "11111111") {
		t.Errorf("expected the success record to be filtered out, got:\n%s", out)
	}
}

func TestList_JQFilter(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("11111111-aaaa-bbbb-cccc-000000000001", 2*time.Hour),
		failureRecord("22222222-aaaa-bbbb-cccc-000000000002", time.Hour),
	)

	out, err := execute(t, "list", "--jq", ".[0].status_code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "403" {
		t.Errorf("expected jq output 403, got %q", out)
	}
}

func TestList_JSONOutput(t *testing.T) {
	path := tempDB(t)
	seed(t, path, successRecord("11111111-aaaa-bbbb-cccc-000000000001", time.Hour))

	_, _, jsonPtr, _, _ := shared.RegisterFlagPointers()
	*jsonPtr = true
	defer func() { *jsonPtr = false }()

	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var records []*history.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("expected JSON array, got error %v:\n%s", err, out)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "api-health" || records[0].StatusCode != 204 {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestList_NegativeLimit(t *testing.T) {
	tempDB(t)

	_, err := execute(t, "list", "--limit", "-1")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestList_InvalidJQ(t *testing.T) {
	tempDB(t)

	_, err := execute(t, "list", "--jq", ".foo(")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
}

func TestList_DisabledHistory(t *testing.T) {
	tempDB(t)
	t.Setenv("PREFLIGHT_HISTORY_DISABLED", "true")

	_, err := execute(t, "list")
	if code := exitCode(t, err); code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, code)
	}
	if !strings.Contains(err.Error(), "disabled") {
		t.Errorf("expected a disabled-history message, got %q", err.Error())
	}
}

func TestShow_ByPrefix(t *testing.T) {
	path := tempDB(t)
	seed(t, path, successRecord("deadbeef-aaaa-bbbb-cccc-000000000001", time.Hour))

	out, err := execute(t, "show", "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"success", "https://api.example.com/v1/health", "204 No Content", "api-health", "GET, POST, OPTIONS", "42ms, 1 attempt"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestShow_JSON(t *testing.T) {
	path := tempDB(t)
	seed(t, path, successRecord("deadbeef-aaaa-bbbb-cccc-000000000001", time.Hour))

	_, _, jsonPtr, _, _ := shared.RegisterFlagPointers()
	*jsonPtr = true
	defer func() { *jsonPtr = false }()

	out, err := execute(t, "show", "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec history.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("expected a JSON record, got error %v:\n%s", err, out)
	}
	if rec.ID != "deadbeef-aaaa-bbbb-cccc-000000000001" {
		t.Errorf("unexpected id %q", rec.ID)
	}
}

func TestShow_NotFound(t *testing.T) {
	tempDB(t)

	_, err := execute(t, "show", "ffffffff")
	if err == nil {
		t.Fatal("expected an error for a missing record")
	}
	if !strings.Contains(err.Error(), "no history record matches") {
		t.Errorf("expected a not-found message, got %q", err.Error())
	}
}

func TestShow_AmbiguousPrefix(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("deadbeef-aaaa-bbbb-cccc-000000000001", 2*time.Hour),
		failureRecord("deadbeef-aaaa-bbbb-cccc-000000000002", time.Hour),
	)

	_, err := execute(t, "show", "deadbeef")
	if err == nil {
		t.Fatal("expected an error for an ambiguous prefix")
	}
	if !strings.Contains(err.Error(), "more than one record") {
		t.Errorf("expected an ambiguity message, got %q", err.Error())
	}
}

func TestClear_DeletesEverything(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("11111111-aaaa-bbbb-cccc-000000000001", 2*time.Hour),
		failureRecord("22222222-aaaa-bbbb-cccc-000000000002", time.Hour),
	)

	out, err := execute(t, "clear", "--yes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "deleted 2 records") {
		t.Errorf("expected deletion count, got:\n%s", out)
	}

	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()

	records, err := store.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("failed to list after clear: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty store, got %d records", len(records))
	}
}

func TestClear_DryRunReportsWithoutDeleting(t *testing.T) {
	path := tempDB(t)
	seed(t, path,
		successRecord("11111111-aaaa-bbbb-cccc-000000000001", 2*time.Hour),
		failureRecord("22222222-aaaa-bbbb-cccc-000000000002", time.Hour),
	)

	// No --yes: the dry run must answer before any confirmation gate.
	out, err := execute(t, "clear", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Dry run", "DELETE:", "history.db", "2 records", "Run without --dry-run"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()

	records, err := store.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("failed to list after dry run: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected the dry run to leave 2 records, got %d", len(records))
	}
}

func TestClear_DryRunJSON(t *testing.T) {
	path := tempDB(t)
	seed(t, path, successRecord("11111111-aaaa-bbbb-cccc-000000000001", time.Hour))

	_, _, jsonPtr, _, _ := shared.RegisterFlagPointers()
	*jsonPtr = true
	defer func() { *jsonPtr = false }()

	out, err := execute(t, "clear", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		WouldDelete int64 `json:"would_delete"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("expected JSON, got error %v:\n%s", err, out)
	}
	if doc.WouldDelete != 1 {
		t.Errorf("expected would_delete 1, got %d", doc.WouldDelete)
	}
}

func TestClear_RequiresYesWhenNonInteractive(t *testing.T) {
	tempDB(t)
	t.Setenv("PREFLIGHT_NON_INTERACTIVE", "true")

	_, err := execute(t, "clear")
	if code := exitCode(t, err); code != shared.ExitMissingInputNonInteractive {
		t.Errorf("expected exit code %d, got %d", shared.ExitMissingInputNonInteractive, code)
	}
}
