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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/cli/prompt"
	"github.com/probekit/preflight/internal/commands/shared"
)

func newClearCommand() *cobra.Command {
	var (
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded invocations",
		Long: `Delete every record from the history database.

Asks for confirmation unless --yes is given. Non-interactive runs (CI,
pipes) must pass --yes. --dry-run reports what would be deleted without
touching the database.

Examples:
  preflight history clear
  preflight history clear --dry-run
  preflight history clear --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, yes, dryRun)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")

	return cmd
}

func runClear(cmd *cobra.Command, yes, dryRun bool) error {
	ctx := cmd.Context()

	if dryRun {
		return runClearDryRun(cmd)
	}

	if !yes {
		if shared.IsNonInteractive() {
			return shared.NewMissingInputNonInteractiveError(
				"history clear requires --yes when running non-interactively", nil)
		}
		confirmed, err := prompt.NewSurveyPrompter(true).PromptConfirm(ctx,
			"Delete all history records?", false)
		if err != nil {
			return shared.NewMissingInputError("confirmation failed", err)
		}
		if !confirmed {
			cmd.Println("aborted")
			return nil
		}
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	if shared.GetJSON() {
		cmd.Printf("{\n  \"deleted\": %d\n}\n", deleted)
		return nil
	}

	cmd.Println(shared.RenderOK(fmt.Sprintf("deleted %d %s", deleted, recordUnit(deleted))))
	return nil
}

func runClearDryRun(cmd *cobra.Command) error {
	store, path, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count history records: %w", err)
	}

	if shared.GetJSON() {
		cmd.Printf("{\n  \"would_delete\": %d\n}\n", count)
		return nil
	}

	out := shared.NewDryRunOutput()
	out.Add(shared.DryRunActionDelete, displayPath(path), fmt.Sprintf("%d %s", count, recordUnit(count)))
	cmd.Println(out.String())
	return nil
}

func recordUnit(n int64) string {
	if n == 1 {
		return "record"
	}
	return "records"
}
