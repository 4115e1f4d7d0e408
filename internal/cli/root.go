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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/shared"
)

// NewRootCommand creates the root Cobra command for Preflight.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Preflight - OPTIONS request probing for HTTP APIs",
		Long: `Preflight sends OPTIONS requests to HTTP endpoints and classifies the
responses. Use it to verify CORS preflight behavior, discover allowed
methods, and smoke-test API reachability before deploys.

Run 'preflight check <url>' for a one-shot probe.
Run 'preflight run <file>' to execute the probes in a YAML probe file.`,
		// Errors are rendered by HandleExitError with exit codes, so
		// cobra's own usage and error printing stay off.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose, quiet, json, noColor, config := shared.RegisterFlagPointers()

	pf := cmd.PersistentFlags()
	pf.BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	pf.BoolVar(json, "json", false, "Output in JSON format")
	pf.BoolVar(noColor, "no-color", false, "Disable colored output")
	pf.StringVar(config, "config", "", "Path to config file (default: ~/.config/preflight/config.yaml)")

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

// SetVersion records the build version information (called from main).
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// HandleExitError maps err to its exit code and terminates the process.
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
