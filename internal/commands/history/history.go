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

// Package history implements the history command group: list, show, and
// clear recorded probe invocations.
package history

import (
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/history"
)

// NewCommand creates the history command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded probe invocations",
		Long: `Inspect the probe history database.

Every finished invocation of check, run, and watch is recorded unless
recording is disabled (--no-history, history.enabled: false, or
PREFLIGHT_HISTORY_DISABLED). Records keep the signal, status, timing,
and the Allow and CORS headers of each probe.

Examples:
  # Most recent invocations
  preflight history list

  # Full record for one invocation, by ID prefix
  preflight history show a1b2c3d4

  # URLs of everything that failed, via jq
  preflight history list --jq '.[] | select(.signal != "success") | .url'

  # Start over
  preflight history clear --yes`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newClearCommand())

	return cmd
}

// openStore opens the configured history database and reports the path it
// lives at. Unlike probe commands, which record best-effort, the history
// commands exist only to read the store, so failures here surface as errors.
func openStore() (*history.Store, string, error) {
	appCfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return nil, "", shared.NewInvalidConfigError("failed to load configuration", err)
	}

	if !appCfg.History.Enabled {
		return nil, "", shared.NewInvalidConfigError(
			"history recording is disabled; enable it in the config file or unset PREFLIGHT_HISTORY_DISABLED", nil)
	}

	path, err := appCfg.HistoryPath()
	if err != nil {
		return nil, "", shared.NewInvalidConfigError("failed to resolve history database path", err)
	}

	store, err := history.Open(path)
	if err != nil {
		return nil, "", shared.NewInvalidConfigError("failed to open history database", err)
	}
	return store, path, nil
}

// displayPath makes the database path safe for output: paths under the
// data directory render relative to a <data-dir> placeholder.
func displayPath(path string) string {
	dir, err := config.DataDir()
	if err != nil {
		return path
	}
	return shared.PlaceholderPath(path, dir, "<data-dir>")
}
