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

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/probekit/preflight/internal/commands/run"
)

// runTimeout bounds one probe file execution. Individual probes have
// their own request timeouts; this is the backstop for large files.
const runTimeout = 5 * time.Minute

// handleRun implements the preflight_run tool.
func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	path, err := request.RequireString("file")
	if err != nil {
		return errorResponse("Missing or invalid 'file' argument"), nil
	}
	if err := validateProbePath(path); err != nil {
		return errorResponse(fmt.Sprintf("Invalid probe file path: %v", err)), nil
	}

	only := request.GetString("only", "")

	// Runs fan out to one request per probe, so they draw from the
	// tighter bucket on top of the per-call one.
	if !s.rateLimiter.AllowRun() {
		return errorResponse("Rate limit exceeded for probe execution. Please try again later."), nil
	}

	plan, err := run.LoadPlan(path, only)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to load probe file: %v", err)), nil
	}

	executor := &run.Executor{
		Prober:  s.prober,
		Base:    s.base,
		Resolve: s.resolver.Get,
		Minter:  s.minter,
		History: s.store,
		Logger:  s.logger,
	}

	execCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	report, err := executor.Execute(execCtx, plan)
	if err != nil {
		return errorResponse(fmt.Sprintf("Probe run failed: %v", err)), nil
	}

	doc, err := json.MarshalIndent(run.NewReportDocument(report), "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode report: %v", err)), nil
	}

	return textResponse(string(doc)), nil
}
