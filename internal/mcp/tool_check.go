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

	"github.com/probekit/preflight/internal/commands/shared"
)

// handleCheck implements the preflight_check tool.
func (s *Server) handleCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	url, err := request.RequireString("url")
	if err != nil {
		return errorResponse("Missing or invalid 'url' argument"), nil
	}

	// Layer tool arguments over the configured defaults. The base config
	// is shared across calls, so mutate a copy.
	cfg := *s.base
	cfg.URL = url
	cfg.BaseURL = ""
	cfg.Path = ""

	if accept := request.GetString("accept", ""); accept != "" {
		cfg.Accept = accept
	}
	cfg.FollowRedirects = request.GetBool("follow_redirects", cfg.FollowRedirects)

	// Numeric arguments arrive as JSON numbers.
	args := request.GetArguments()
	if v, ok := args["timeout_seconds"].(float64); ok {
		if v <= 0 {
			return errorResponse("'timeout_seconds' must be positive"), nil
		}
		cfg.Timeout = time.Duration(v * float64(time.Second))
	}
	if v, ok := args["max_retries"].(float64); ok {
		if v < 0 {
			return errorResponse("'max_retries' must not be negative"), nil
		}
		cfg.MaxRetries = int(v)
	}

	res := s.prober.Run(ctx, &cfg, nil)

	shared.RecordHistory(ctx, s.store, "", res, s.logger)

	doc, err := json.MarshalIndent(shared.NewResultDocument(res), "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}

	return textResponse(string(doc)), nil
}
