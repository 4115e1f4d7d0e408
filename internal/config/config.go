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

// Package config loads Preflight's two YAML surfaces: the application
// config (~/.config/preflight/config.yaml) and probe files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/probekit/preflight/internal/log"
	preflighterrors "github.com/probekit/preflight/pkg/errors"
	"github.com/probekit/preflight/pkg/probe"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig wraps every failure reported by Validate.
	ErrInvalidConfig = errors.New("config: invalid settings")
)

// Config represents the complete Preflight application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	History  HistoryConfig  `yaml:"history"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// LogConfig is the YAML surface of the log package configuration.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: PREFLIGHT_LOG_LEVEL or LOG_LEVEL; PREFLIGHT_DEBUG=1
	// forces debug with source info.
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (text, json).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource annotates lines with the emitting file and line.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// HistoryConfig configures the probe history store.
type HistoryConfig struct {
	// Enabled controls whether finished probes are recorded.
	// Environment: PREFLIGHT_HISTORY_DISABLED (set to disable)
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database path.
	// Environment: PREFLIGHT_HISTORY_PATH
	// Default: <data-dir>/history.db
	Path string `yaml:"path,omitempty"`

	// MaxAge is how long to keep records before Prune removes them.
	// Zero disables age-based pruning.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age,omitempty"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	// Enabled activates the tracer provider (default: false).
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this process in traces.
	// Default: preflight
	ServiceName string `yaml:"service_name,omitempty"`

	// Exporter is the span exporter type: "console", "otlp-http", or "otlp-grpc".
	// Default: console
	Exporter string `yaml:"exporter,omitempty"`

	// Endpoint is the OTLP receiver address (host:port or URL).
	// Required for the otlp-http and otlp-grpc exporters.
	// Environment: PREFLIGHT_TRACE_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS for OTLP exporters.
	Insecure bool `yaml:"insecure"`

	// CACert is a path to a PEM CA bundle, for collectors behind private
	// certificates.
	CACert string `yaml:"ca_cert,omitempty"`

	// Headers are additional headers sent to the OTLP receiver.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultsConfig supplies request defaults applied when neither the probe
// file nor the command flags say otherwise.
type DefaultsConfig struct {
	// Timeout bounds a single probe attempt.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries bounds re-attempts after retryable outcomes.
	// Default: 0
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryDelay is the pause before each re-attempt.
	// Default: 1s
	RetryDelay time.Duration `yaml:"retry_delay,omitempty"`

	// Accept is the default Accept header.
	// Default: application/json
	Accept string `yaml:"accept,omitempty"`

	// UserAgent is the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// FollowRedirects enables bounded redirect following.
	// Default: true
	FollowRedirects bool `yaml:"follow_redirects"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: true,
			MaxAge:  30 * 24 * time.Hour,
		},
		Tracing: TracingConfig{
			ServiceName: "preflight",
			Exporter:    "console",
		},
		Defaults: DefaultsConfig{
			Timeout:         probe.DefaultTimeout,
			RetryDelay:      probe.DefaultRetryDelay,
			Accept:          probe.DefaultAccept,
			UserAgent:       probe.DefaultUserAgent,
			FollowRedirects: true,
		},
	}
}

// Load reads the YAML config file and applies environment overrides on
// top of it. If configPath is empty, the default XDG location is used
// when it exists; a missing default file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		if path, err := ConfigPath(); err == nil {
			configPath = path
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			// An absent default config is fine; an absent explicit one is not.
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, &preflighterrors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("could not load %s", configPath),
					Cause:  err,
				}
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &preflighterrors.ConfigError{
			Key:    "validation",
			Reason: "settings failed validation",
			Cause:  err,
		}
	}

	return cfg, nil
}

// HistoryPath returns the resolved history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// BaseRequestConfig returns a request configuration seeded from the
// defaults section. Probe files and command flags layer on top of it.
func (c *Config) BaseRequestConfig() *probe.RequestConfig {
	cfg := probe.DefaultRequestConfig()
	cfg.Timeout = c.Defaults.Timeout
	cfg.MaxRetries = c.Defaults.MaxRetries
	cfg.RetryDelay = c.Defaults.RetryDelay
	cfg.Accept = c.Defaults.Accept
	cfg.UserAgent = c.Defaults.UserAgent
	cfg.FollowRedirects = c.Defaults.FollowRedirects
	return cfg
}

// applyDefaults backfills zero values so a partial file (say, just a
// tracing section) still yields a usable config.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	if c.History.MaxAge == 0 {
		c.History.MaxAge = defaults.History.MaxAge
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaults.Tracing.ServiceName
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaults.Tracing.Exporter
	}

	if c.Defaults.Timeout == 0 {
		c.Defaults.Timeout = defaults.Defaults.Timeout
	}
	if c.Defaults.RetryDelay == 0 {
		c.Defaults.RetryDelay = defaults.Defaults.RetryDelay
	}
	if c.Defaults.Accept == "" {
		c.Defaults.Accept = defaults.Defaults.Accept
	}
	if c.Defaults.UserAgent == "" {
		c.Defaults.UserAgent = defaults.Defaults.UserAgent
	}
}

// loadFromFile merges a YAML file into c. A leading ~/ expands to the
// home directory.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	return nil
}

// loadFromEnv applies the PREFLIGHT_* environment overrides.
func (c *Config) loadFromEnv() {
	// The log package owns the log env contract (PREFLIGHT_DEBUG,
	// PREFLIGHT_LOG_LEVEL, LOG_LEVEL, LOG_FORMAT, LOG_SOURCE).
	lc := &log.Config{Level: c.Log.Level, Format: log.Format(c.Log.Format), AddSource: c.Log.AddSource}
	lc.ApplyEnv()
	c.Log.Level = lc.Level
	c.Log.Format = string(lc.Format)
	c.Log.AddSource = lc.AddSource

	if val := os.Getenv("PREFLIGHT_HISTORY_DISABLED"); val != "" {
		c.History.Enabled = !(val == "1" || strings.ToLower(val) == "true")
	}
	if val := os.Getenv("PREFLIGHT_HISTORY_PATH"); val != "" {
		c.History.Path = val
	}

	if val := os.Getenv("PREFLIGHT_TRACE_ENABLED"); val != "" {
		c.Tracing.Enabled = val == "1" || strings.ToLower(val) == "true"
	}
	if val := os.Getenv("PREFLIGHT_TRACE_EXPORTER"); val != "" {
		c.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("PREFLIGHT_TRACE_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}

	if val := os.Getenv("PREFLIGHT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Defaults.Timeout = d
		}
	}
	if val := os.Getenv("PREFLIGHT_USER_AGENT"); val != "" {
		c.Defaults.UserAgent = val
	}
}

// Validate reports every invalid field at once, wrapped in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [text, json], got %q", c.Log.Format))
	}

	if c.History.MaxAge < 0 {
		errs = append(errs, fmt.Sprintf("history.max_age must be non-negative, got %v", c.History.MaxAge))
	}

	validExporters := map[string]bool{"console": true, "otlp-http": true, "otlp-grpc": true}
	if !validExporters[c.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of [console, otlp-http, otlp-grpc], got %q", c.Tracing.Exporter))
	}
	if c.Tracing.Enabled && c.Tracing.Exporter != "console" && c.Tracing.Endpoint == "" {
		errs = append(errs, fmt.Sprintf("tracing.endpoint is required for the %s exporter", c.Tracing.Exporter))
	}

	if c.Defaults.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("defaults.timeout must be non-negative, got %v", c.Defaults.Timeout))
	}
	if c.Defaults.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("defaults.max_retries must be non-negative, got %d", c.Defaults.MaxRetries))
	}
	if c.Defaults.RetryDelay < 0 {
		errs = append(errs, fmt.Sprintf("defaults.retry_delay must be non-negative, got %v", c.Defaults.RetryDelay))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}
