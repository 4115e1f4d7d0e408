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

// Package mcp implements the mcp command, which serves preflight probes
// to AI assistants over the Model Context Protocol.
package mcp

import (
	"github.com/spf13/cobra"

	"github.com/probekit/preflight/internal/commands/shared"
	"github.com/probekit/preflight/internal/config"
	"github.com/probekit/preflight/internal/log"
	mcpserver "github.com/probekit/preflight/internal/mcp"
)

// NewCommand creates the mcp command
func NewCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the preflight MCP (Model Context Protocol) server.

The server exposes probes as tools that AI coding assistants call to
check endpoints and run probe files. It speaks the protocol on stdin
and stdout, so it is started by the assistant rather than by hand, and
all logging goes to stderr.

Client configuration example (.mcp.json):
  {
    "mcpServers": {
      "preflight": {
        "command": "preflight",
        "args": ["mcp"]
      }
    }
  }

The server exposes these tools:
  - preflight_check: probe one URL with a single OPTIONS request
  - preflight_run: execute a probe file and report per-probe outcomes

Probe file paths handed to preflight_run are confined to the working
directory; set PREFLIGHT_ALLOWED_PATHS (a colon-separated directory
list) to admit more. Tool calls are rate limited.

Exit codes:
  0  server exited cleanly
  1  server failed
  2  invalid configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, logLevel)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Logging verbosity (debug, info, warn, error)")

	return cmd
}

func runServer(cmd *cobra.Command, logLevel string) error {
	ctx := cmd.Context()

	appCfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return shared.NewInvalidConfigError("failed to load configuration", err)
	}
	logger := shared.NewLogger(appCfg.Log.Level, appCfg.Log.Format, appCfg.Log.AddSource)

	store := shared.OpenHistory(ctx, appCfg, false, logger)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history store", log.Error(err))
			}
		}()
	}

	version, _, _ := shared.GetVersion()
	srv, err := mcpserver.NewServer(mcpserver.ServerConfig{
		Name:     "preflight",
		Version:  version,
		LogLevel: logLevel,
		Base:     appCfg.BaseRequestConfig(),
		History:  store,
	})
	if err != nil {
		return shared.NewInvalidConfigError(err.Error(), err)
	}

	// Blocks until the client closes stdin.
	return srv.Run(ctx)
}
