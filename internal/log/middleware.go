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

package log

import (
	"context"
	"log/slog"
	"time"
)

// ToolCall describes one MCP tool invocation as it enters the server.
type ToolCall struct {
	// Tool names the invoked tool, e.g. "preflight_check".
	Tool string

	// RequestID ties the call line to its result line.
	RequestID string

	// Metadata is flattened into the log record as extra attributes.
	Metadata map[string]any
}

// ToolResult carries the outcome of a tool invocation.
type ToolResult struct {
	Success    bool
	Error      string
	DurationMs int64

	// Metadata is flattened into the log record as extra attributes.
	Metadata map[string]any
}

// LogToolCall records an incoming invocation under event=tool_call.
func LogToolCall(logger *slog.Logger, call *ToolCall) {
	attrs := []any{EventKey, "tool_call", "tool", call.Tool}
	if call.RequestID != "" {
		attrs = append(attrs, "request_id", call.RequestID)
	}
	logger.Info("tool call received", withMeta(attrs, call.Metadata)...)
}

// LogToolResult records the outcome under event=tool_result. Failures log
// at error level so they surface without filtering on the success field.
func LogToolResult(logger *slog.Logger, call *ToolCall, result *ToolResult) {
	attrs := []any{
		EventKey, "tool_result",
		"tool", call.Tool,
		"success", result.Success,
		DurationKey, result.DurationMs,
	}
	if call.RequestID != "" {
		attrs = append(attrs, "request_id", call.RequestID)
	}
	if result.Error != "" {
		attrs = append(attrs, "error", result.Error)
	}

	level, message := slog.LevelInfo, "tool call completed"
	if !result.Success {
		level, message = slog.LevelError, "tool call failed"
	}
	logger.Log(context.Background(), level, message, withMeta(attrs, result.Metadata)...)
}

// withMeta flattens caller metadata onto the attribute list.
func withMeta(attrs []any, meta map[string]any) []any {
	for k, v := range meta {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// ToolMiddleware logs both sides of a tool invocation around its handler.
type ToolMiddleware struct {
	logger *slog.Logger
}

// NewToolMiddleware builds middleware that writes through logger.
func NewToolMiddleware(logger *slog.Logger) *ToolMiddleware {
	return &ToolMiddleware{logger: logger}
}

// Handler runs the tool handler between a call line and a result line and
// returns the handler's error unchanged.
func (m *ToolMiddleware) Handler(call *ToolCall, handler func() error) error {
	LogToolCall(m.logger, call)

	start := time.Now()
	err := handler()

	result := ToolResult{Success: err == nil}
	result.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
	}
	LogToolResult(m.logger, call, &result)
	return err
}
