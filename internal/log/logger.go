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

// Package log configures the application's slog loggers and provides the
// shared field vocabulary: every command logs probe names, signals, and
// durations under the same keys.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
	// FormatText emits human-readable text.
	FormatText Format = "text"
)

// LevelTrace sits below slog.LevelDebug for wire-level detail such as
// response bodies. Enable it with level "trace".
const LevelTrace = slog.Level(-8)

// Shared field keys, so log processors see one vocabulary regardless of
// which command emitted the line.
const (
	// InvocationIDKey ties every line of one probe invocation together.
	InvocationIDKey = "invocation_id"
	// ProbeKey carries the probe name from the probe file.
	ProbeKey = "probe"
	// SignalKey carries the terminal signal name.
	SignalKey = "signal"
	// DurationKey carries elapsed milliseconds.
	DurationKey = "duration_ms"
	// ComponentKey names the subsystem that emitted the line.
	ComponentKey = "component"
	// EventKey classifies lifecycle events (tool_call, tool_result, ...).
	EventKey = "event"
)

// Config controls where log lines go and how they are encoded.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, or error.
	Level string

	// Format selects json or text encoding.
	Format Format

	// Output receives the log lines. Defaults to os.Stderr.
	Output io.Writer

	// AddSource annotates lines with the emitting file and line.
	AddSource bool
}

// DefaultConfig returns the defaults: info-level JSON on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// ApplyEnv overrides the configuration from the environment:
//
//	PREFLIGHT_DEBUG      true/1 forces debug level with source info
//	PREFLIGHT_LOG_LEVEL  trace, debug, info, warn, error
//	LOG_LEVEL            same, lower precedence
//	LOG_FORMAT           json or text
//	LOG_SOURCE           1 adds source file/line
//
// Unset variables leave the corresponding field alone.
func (c *Config) ApplyEnv() {
	if debug := os.Getenv("PREFLIGHT_DEBUG"); debug == "true" || debug == "1" {
		c.Level = "debug"
		c.AddSource = true
	} else if level := firstEnv("PREFLIGHT_LOG_LEVEL", "LOG_LEVEL"); level != "" {
		c.Level = strings.ToLower(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Format = Format(strings.ToLower(format))
	}
	if os.Getenv("LOG_SOURCE") == "1" {
		c.AddSource = true
	}
}

// FromEnv builds a configuration from the environment alone.
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// New creates a structured logger. A nil config uses the defaults, and
// an unknown format falls back to JSON.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	if cfg.Format == FormatText {
		return slog.New(slog.NewTextHandler(output, opts))
	}
	return slog.New(slog.NewJSONHandler(output, opts))
}

// parseLevel maps a level name to its slog level; unknown names log at
// info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags every line with the emitting subsystem.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(ComponentKey, component)
}

// WithProbeContext tags every line with the invocation ID and probe name.
func WithProbeContext(logger *slog.Logger, invocationID, probeName string) *slog.Logger {
	return logger.With(
		slog.String(InvocationIDKey, invocationID),
		slog.String(ProbeKey, probeName),
	)
}

// Attribute shorthands, so command code reads log.String(...) without a
// second slog import.

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

// Error wraps an error under the conventional "error" key.
func Error(err error) slog.Attr { return slog.Any("error", err) }

// Duration records a millisecond duration under key + "_ms".
func Duration(key string, value int64) slog.Attr { return slog.Int64(key+"_ms", value) }

// SanitizeAPIKey masks a credential for logging, keeping the last 4
// characters. Values of 4 characters or fewer redact entirely.
func SanitizeAPIKey(key string) string {
	const keep = 4
	if cut := len(key) - keep; cut > 0 {
		return "..." + key[cut:]
	}
	return "[REDACTED]"
}

// Trace logs a message at trace level.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}
	logger.LogAttrs(ctx, LevelTrace, msg, attrs...)
}
