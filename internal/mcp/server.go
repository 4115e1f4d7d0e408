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

// Package mcp implements an MCP server that exposes preflight probes as tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/probekit/preflight/internal/credentials"
	"github.com/probekit/preflight/internal/history"
	"github.com/probekit/preflight/internal/log"
	"github.com/probekit/preflight/internal/secrets"
	"github.com/probekit/preflight/internal/transport"
	"github.com/probekit/preflight/pkg/probe"
)

// Server wraps the MCP server and provides the preflight tools.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	rateLimiter *RateLimiter
	logger      *slog.Logger
	toolLog     *log.ToolMiddleware
	prober      *probe.Prober
	base        *probe.RequestConfig
	resolver    *secrets.Cache
	minter      *credentials.Minter
	store       *history.Store
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name (default: "preflight")
	Name string

	// Version is the preflight version
	Version string

	// LogLevel sets the stderr logger's level (trace through error).
	LogLevel string

	// Base supplies the configured request defaults that tool arguments
	// layer their own settings over. Nil starts from the built-ins.
	Base *probe.RequestConfig

	// History records finished probes. Nil disables recording.
	History *history.Store
}

// createLogger builds the server logger. Output goes to stderr because
// stdout carries the MCP stdio protocol.
func createLogger(levelStr string) (*slog.Logger, error) {
	switch levelStr {
	case "trace", "debug", "info", "warn", "error", "":
	default:
		return nil, fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", levelStr)
	}

	return log.New(&log.Config{
		Level:  levelStr,
		Format: log.FormatText,
		Output: os.Stderr,
	}), nil
}

// NewServer creates a new MCP server instance.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Name == "" {
		config.Name = "preflight"
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	logger, err := createLogger(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	base := config.Base
	if base == nil {
		base = probe.DefaultRequestConfig()
	}

	prober, err := probe.New(transport.New(nil), probe.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prober: %w", err)
	}

	mcpServer := server.NewMCPServer(config.Name, config.Version)

	s := &Server{
		mcpServer: mcpServer,
		name:      config.Name,
		version:   config.Version,
		// 10 probe file runs/min, 100 calls/min
		rateLimiter: NewRateLimiter(10, 100),
		logger:      logger,
		toolLog:     log.NewToolMiddleware(logger),
		prober:      prober,
		base:        base,
		resolver:    secrets.NewCache(secrets.DefaultChain(), 0),
		minter:      credentials.NewMinter(),
		store:       config.History,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers the preflight tools with the MCP server.
func (s *Server) registerTools() {
	// Tool: preflight_check
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "preflight_check",
		Description: "Probe a URL with a single HTTP OPTIONS request and report what the endpoint allows. OPTIONS requests carry no body and change no server state. Returns a JSON document with the outcome signal, status, Allow and CORS headers, attempts, and timing.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Absolute URL to probe (http or https)",
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "number",
					"description": "Timeout for one attempt in seconds (default: 30)",
				},
				"max_retries": map[string]interface{}{
					"type":        "number",
					"description": "Extra attempts after a timeout or network error (default: 0)",
				},
				"accept": map[string]interface{}{
					"type":        "string",
					"description": "Accept header to send",
				},
				"follow_redirects": map[string]interface{}{
					"type":        "boolean",
					"description": "Follow redirect responses (default: true)",
					"default":     true,
				},
			},
			Required: []string{"url"},
		},
	}, s.withToolLog("preflight_check", s.handleCheck))

	// Tool: preflight_run
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "preflight_run",
		Description: "Execute every probe in a probe file and report per-probe outcomes and expectation checks. Probes send only OPTIONS requests. Returns the same JSON report as 'preflight run --json'.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Path to the probe file (e.g. preflight.yaml)",
				},
				"only": map[string]interface{}{
					"type":        "string",
					"description": "Glob filtering probes by name (e.g. 'api-*')",
				},
			},
			Required: []string{"file"},
		},
	}, s.withToolLog("preflight_run", s.handleRun))
}

// withToolLog wraps a tool handler so every invocation logs its arrival,
// outcome, and duration. Handler errors and error-flagged results both
// count as failures.
func (s *Server) withToolLog(tool string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var result *mcp.CallToolResult
		var handlerErr error

		_ = s.toolLog.Handler(&log.ToolCall{Tool: tool}, func() error {
			result, handlerErr = handler(ctx, request)
			if handlerErr != nil {
				return handlerErr
			}
			if result != nil && result.IsError {
				return errors.New("tool reported an error result")
			}
			return nil
		})

		return result, handlerErr
	}
}

// Run starts the MCP server using stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting preflight MCP server", slog.String("version", s.version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down preflight MCP server")
	// The mcp-go server has no explicit shutdown method; returning from
	// ServeStdio() is sufficient.
	return nil
}

func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
