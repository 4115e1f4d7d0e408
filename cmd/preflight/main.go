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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/probekit/preflight/internal/cli"
	"github.com/probekit/preflight/internal/commands/check"
	"github.com/probekit/preflight/internal/commands/completion"
	"github.com/probekit/preflight/internal/commands/history"
	"github.com/probekit/preflight/internal/commands/mcp"
	"github.com/probekit/preflight/internal/commands/run"
	"github.com/probekit/preflight/internal/commands/secrets"
	"github.com/probekit/preflight/internal/commands/token"
	versioncmd "github.com/probekit/preflight/internal/commands/version"
	"github.com/probekit/preflight/internal/commands/watch"
)

// Populated through -ldflags at release build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Probe commands
	rootCmd.AddCommand(check.NewCommand())
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(watch.NewCommand())

	// Inspection commands
	rootCmd.AddCommand(history.NewCommand())

	// Credential commands
	rootCmd.AddCommand(token.NewCommand())
	rootCmd.AddCommand(secrets.NewCommand())

	// Integration commands
	rootCmd.AddCommand(mcp.NewCommand())

	rootCmd.AddCommand(versioncmd.NewCommand())
	rootCmd.AddCommand(completion.NewCommand())

	// help is replaced so `help --json` can serve machine-readable metadata.
	rootCmd.SetHelpCommand(cli.NewHelpCommand(rootCmd))

	// Ctrl-C cancels the command context so watch loops and in-flight
	// probes wind down instead of dying mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.HandleExitError(err)
	}
}
