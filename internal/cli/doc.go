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

/*
Package cli assembles preflight's Cobra command tree and owns the
concerns every command shares: persistent flags, version stamping, and
exit-code mapping. The commands themselves live in the internal/commands
subpackages and are wired onto the root command by main.go.

# Command Tree

	preflight
	├── check         Probe a single URL
	├── run           Run the probes in a probe file
	├── watch         Re-run probes when the file changes
	├── history       Inspect past probe results
	├── token         Mint a JWT for bearer probes
	├── secrets       Secret management
	├── mcp           Serve probe tools over MCP stdio
	├── completion    Generate shell completions
	├── version       Show version
	└── help          Show help

# Wiring

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(check.NewCommand())
	// ... remaining commands ...
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Persistent Flags

Every command inherits --verbose/-v, --quiet/-q, --json, --no-color,
and --config. Command implementations read their values through the
internal/commands/shared accessors rather than re-binding them.

# Exit Codes

HandleExitError maps errors onto the process exit code:

	0   success
	1   probe failed or expectation missed
	2   invalid probe file or configuration
	3   missing input
	4   credential error
	70  missing input in non-interactive mode
*/
package cli
