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

// Package run implements the probe file command: every probe in a YAML
// file, executed in declaration order, with credential resolution, token
// minting, expectation checks, and a pass/fail report. The watch command
// and the MCP server reuse its executor.
package run

import (
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/completion"
)

type options struct {
	file      string
	only      string
	rate      float64
	noHistory bool
}

// NewCommand creates the run command.
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run every probe in a probe file",
		Long: `Run executes every probe in a YAML probe file, in declaration order,
and prints one line per probe plus a pass/fail summary.

When FILE is omitted, preflight looks for preflight.yaml in the current
directory. A directory argument runs the preflight.yaml inside it, and a
bare name tries NAME.yaml.

Credential references (${VAR} and secret://) are resolved before any
request is sent, and auth blocks with a token_url mint their OAuth2
bearer tokens up front. Expectations listed under expect: are evaluated
against each finished probe; a failed expectation fails the run without
changing the probe's own signal.

Exit codes:
  0  every probe succeeded and every expectation passed
  1  at least one probe or expectation failed
  2  invalid probe file or flags
  3  no probe file found
  4  credential resolution failed

Examples:
  # Run ./preflight.yaml
  preflight run

  # Run only the probes whose names match a glob
  preflight run smoke.yaml --only 'api-*'

  # Pace probe starts to two per second
  preflight run smoke.yaml --rate 2`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completion.CompleteProbeFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.file = args[0]
			}
			return runProbes(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.only, "only", "", "run only probes whose name matches this glob")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "maximum probe starts per second (0 = unpaced)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record results in history")

	return cmd
}
