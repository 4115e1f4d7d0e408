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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/completion"
	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/history"
	"github.com/probekit/preflight/internal/jq"
	"github.com/probekit/preflight/pkg/probe"
)

type listOptions struct {
	limit    int
	probe    string
	signal   string
	jqFilter string
}

func newListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent probe invocations",
		Long: `List recorded probe invocations, newest first.

Text output shows one line per record: ID prefix, time, signal, status,
and the probe name or URL. With --json or --jq the full records are
emitted as a JSON array, which is the shape jq expressions filter.

Examples:
  # Last 20 invocations
  preflight history list

  # Everything recorded for one probe
  preflight history list --probe api-health --limit 0

  # Mean latency of successful probes
  preflight history list --signal success --jq '[.[].elapsed_ms] | add / length'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum records to list (0 = no limit)")
	cmd.Flags().StringVar(&opts.probe, "probe", "", "only records for this probe name")
	cmd.Flags().StringVar(&opts.signal, "signal", "", "only records with this signal (success, client-error, ...)")
	cmd.Flags().StringVar(&opts.jqFilter, "jq", "", "filter the JSON records with a jq expression")

	_ = cmd.RegisterFlagCompletionFunc("signal", completion.CompleteSignals)

	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	ctx := cmd.Context()

	if opts.limit < 0 {
		return shared.NewInvalidConfigError("--limit must be non-negative", nil)
	}

	jqExec := jq.NewExecutor(0, 0)
	if err := jqExec.Validate(opts.jqFilter); err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(ctx, history.Filter{
		Name:   opts.probe,
		Signal: opts.signal,
		Limit:  opts.limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if shared.GetJSON() || opts.jqFilter != "" {
		rendered, err := jqExec.Render(ctx, opts.jqFilter, records)
		if err != nil {
			return shared.NewInvalidConfigError("jq filter failed", err)
		}
		cmd.Println(rendered)
		return nil
	}

	renderList(cmd, records)
	return nil
}

func renderList(cmd *cobra.Command, records []*history.Record) {
	if len(records) == 0 {
		cmd.Println("history is empty")
		return
	}

	for _, rec := range records {
		cmd.Printf("%s  %s  %s %4s  %s\n",
			shared.Muted.Render(shortID(rec.ID)),
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			signalLabel(rec.Signal),
			statusLabel(rec),
			target(rec),
		)
	}
}

// shortID returns the prefix that history show accepts.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// signalLabel pads the signal to a fixed column before styling so the
// escape codes do not break alignment.
func signalLabel(signal string) string {
	padded := fmt.Sprintf("%-13s", signal)
	switch probe.Signal(signal) {
	case probe.SignalSuccess:
		return shared.StatusOK.Render(padded)
	case probe.SignalTimeout:
		return shared.StatusWarn.Render(padded)
	default:
		return shared.StatusError.Render(padded)
	}
}

func statusLabel(rec *history.Record) string {
	if rec.StatusCode == 0 {
		return "-"
	}
	return strconv.Itoa(rec.StatusCode)
}

func target(rec *history.Record) string {
	if rec.Name != "" {
		return fmt.Sprintf("%s  %s", rec.Name, shared.Muted.Render(rec.URL))
	}
	return rec.URL
}
