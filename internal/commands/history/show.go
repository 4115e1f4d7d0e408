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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/history"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded invocation",
		Long: `Show the full record of one invocation.

The ID may be abbreviated to any unique prefix; history list prints the
first eight characters, which is almost always enough.

Examples:
  preflight history show a1b2c3d4
  preflight history show a1b2c3d4 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}
	return cmd
}

func runShow(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(ctx, id)
	switch {
	case errors.Is(err, history.ErrNotFound):
		return fmt.Errorf("no history record matches %q", id)
	case errors.Is(err, history.ErrAmbiguousID):
		return fmt.Errorf("%q matches more than one record, add more characters", id)
	case err != nil:
		return fmt.Errorf("failed to read history: %w", err)
	}

	if shared.GetJSON() {
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	renderRecord(cmd, rec)
	return nil
}

func renderRecord(cmd *cobra.Command, rec *history.Record) {
	cmd.Printf("%s  %s\n", signalLabel(rec.Signal), rec.URL)

	row := func(label, value string) {
		if value != "" {
			cmd.Printf("  %s %s\n", shared.RenderLabel(fmt.Sprintf("%-9s", label+":")), value)
		}
	}

	row("id", rec.ID)
	row("recorded", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	row("probe", rec.Name)
	if rec.StatusCode != 0 {
		row("status", fmt.Sprintf("%d %s", rec.StatusCode, rec.StatusText))
	}
	row("error", rec.Error)
	row("allow", rec.Allow)
	row("headers", rec.AllowHeaders)
	row("max-age", rec.MaxAge)
	row("elapsed", elapsedLabel(rec))
}

func elapsedLabel(rec *history.Record) string {
	unit := "attempts"
	if rec.Attempts == 1 {
		unit = "attempt"
	}
	return fmt.Sprintf("%dms, %d %s", rec.ElapsedMS, rec.Attempts, unit)
}
