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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	preflighterrors "github.com/probekit/preflight/pkg/errors"
	"github.com/probekit/preflight/pkg/probe"
	"gopkg.in/yaml.v3"
)

// ProbeFile represents a YAML probe document: file-level defaults plus a
// list of named probes.
type ProbeFile struct {
	// Defaults apply to every probe that does not override them.
	Defaults ProbeDefaults `yaml:"defaults"`

	// Probes are the probe definitions, executed in declaration order.
	Probes []*Probe `yaml:"probes"`
}

// ProbeDefaults supplies file-level request defaults. Pointer fields
// distinguish "not set" from an explicit zero (max_retries: 0 disables
// retries; follow_redirects: false disables following).
type ProbeDefaults struct {
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	MaxRetries      *int          `yaml:"max_retries,omitempty"`
	RetryDelay      time.Duration `yaml:"retry_delay,omitempty"`
	Accept          string        `yaml:"accept,omitempty"`
	UserAgent       string        `yaml:"user_agent,omitempty"`
	FollowRedirects *bool         `yaml:"follow_redirects,omitempty"`
}

// Probe is a single named probe definition.
type Probe struct {
	// Name identifies the probe within the file. Required and unique.
	Name string `yaml:"name"`

	// URL is the direct request URL. Mutually exclusive with BaseURL/Path.
	URL string `yaml:"url,omitempty"`

	// BaseURL and Path are joined by the core when URL is empty.
	BaseURL string `yaml:"base_url,omitempty"`
	Path    string `yaml:"path,omitempty"`

	// Auth selects the authentication scheme and carries its credentials.
	Auth AuthConfig `yaml:"auth,omitempty"`

	// Headers holds custom request headers: a mapping or a literal text
	// block, normalized to "Name: value" lines in declaration order.
	Headers HeaderBlock `yaml:"headers,omitempty"`

	// Query holds query parameters: a mapping or a literal text block,
	// normalized to "key=value" lines in declaration order.
	Query QueryBlock `yaml:"query,omitempty"`

	// Per-probe overrides of the file defaults.
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	MaxRetries      *int          `yaml:"max_retries,omitempty"`
	RetryDelay      time.Duration `yaml:"retry_delay,omitempty"`
	Accept          string        `yaml:"accept,omitempty"`
	UserAgent       string        `yaml:"user_agent,omitempty"`
	FollowRedirects *bool         `yaml:"follow_redirects,omitempty"`

	// Expect lists expression strings evaluated against the outcome.
	Expect []string `yaml:"expect,omitempty"`

	line int
}

// Line returns the probe's line number in the source document, or zero
// when the probe was not parsed from YAML.
func (p *Probe) Line() int { return p.line }

// AuthConfig is the YAML form of an authentication scheme. The token_url
// fields select OAuth2 client-credentials resolution, which feeds the
// bearer scheme before invocation.
type AuthConfig struct {
	// Type is one of: none, bearer, api_key, basic, custom_header.
	// Empty is inferred from the populated credential fields.
	Type string `yaml:"type,omitempty"`

	Token      string `yaml:"token,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	HeaderName string `yaml:"header_name,omitempty"`

	// OAuth2 client-credentials fields.
	TokenURL     string   `yaml:"token_url,omitempty"`
	ClientID     string   `yaml:"client_id,omitempty"`
	ClientSecret string   `yaml:"client_secret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// UsesOAuth reports whether this auth block requires OAuth2
// client-credentials token resolution before invocation.
func (a *AuthConfig) UsesOAuth() bool {
	return a.TokenURL != ""
}

// Scheme converts the YAML auth block to the core representation.
// OAuth2 fields are not carried: token resolution fills Token first.
func (a *AuthConfig) Scheme() probe.AuthScheme {
	return probe.AuthScheme{
		Type:       probe.AuthType(a.Type),
		Token:      a.Token,
		Username:   a.Username,
		Password:   a.Password,
		HeaderName: a.HeaderName,
	}
}

// LoadProbeFile reads and parses a probe file.
func LoadProbeFile(path string) (*ProbeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &preflighterrors.ConfigError{
			Key:    path,
			Reason: "failed to read probe file",
			Cause:  err,
		}
	}

	f, err := ParseProbeFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseProbeFile parses a probe file from YAML bytes, applies defaults,
// and validates the result.
func ParseProbeFile(data []byte) (*ProbeFile, error) {
	var f ProbeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse probe file: %w", err)
	}

	f.applyDefaults()

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

var probeFileFields = map[string]bool{
	"defaults": true,
	"probes":   true,
}

// UnmarshalYAML rejects unknown top-level keys before decoding.
func (f *ProbeFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: probe file must be a mapping with a probes list", node.Line)
	}
	if err := checkFields(node, "probe file", probeFileFields); err != nil {
		return err
	}

	type plainProbeFile ProbeFile
	return node.Decode((*plainProbeFile)(f))
}

var probeFields = map[string]bool{
	"name":             true,
	"url":              true,
	"base_url":         true,
	"path":             true,
	"auth":             true,
	"headers":          true,
	"query":            true,
	"timeout":          true,
	"max_retries":      true,
	"retry_delay":      true,
	"accept":           true,
	"user_agent":       true,
	"follow_redirects": true,
	"expect":           true,
}

// UnmarshalYAML decodes a probe and records its source line for
// validation messages.
func (p *Probe) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: probe must be a mapping", node.Line)
	}
	if err := checkFields(node, "probe", probeFields); err != nil {
		return err
	}

	type plainProbe Probe
	if err := node.Decode((*plainProbe)(p)); err != nil {
		return err
	}
	p.line = node.Line
	return nil
}

var authFields = map[string]bool{
	"type":          true,
	"token":         true,
	"username":      true,
	"password":      true,
	"header_name":   true,
	"token_url":     true,
	"client_id":     true,
	"client_secret": true,
	"scopes":        true,
}

// UnmarshalYAML rejects unknown auth keys; a typo in a credential field
// would otherwise silently send an unauthenticated probe.
func (a *AuthConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: auth must be a mapping", node.Line)
	}
	if err := checkFields(node, "auth", authFields); err != nil {
		return err
	}

	type plainAuth AuthConfig
	return node.Decode((*plainAuth)(a))
}

// checkFields reports the first unknown mapping key with its line number.
func checkFields(node *yaml.Node, context string, known map[string]bool) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !known[key.Value] {
			return &preflighterrors.ValidationError{
				Field:       fmt.Sprintf("%s (line %d)", context, key.Line),
				Message:     fmt.Sprintf("unknown field %q", key.Value),
				SuggestText: "check the field name against the probe file reference",
			}
		}
	}
	return nil
}

// applyDefaults infers auth types from the populated credential fields so
// that minimal blocks like "auth: {token: X}" work without a type field.
func (f *ProbeFile) applyDefaults() {
	for _, p := range f.Probes {
		a := &p.Auth
		if a.Type != "" {
			continue
		}
		switch {
		case a.TokenURL != "":
			a.Type = string(probe.AuthBearer)
		case a.HeaderName != "":
			a.Type = string(probe.AuthCustomHeader)
		case a.Username != "":
			a.Type = string(probe.AuthBasic)
		case a.Token != "":
			a.Type = string(probe.AuthBearer)
		}
	}
}

// Validate checks the probe file for structural problems.
func (f *ProbeFile) Validate() error {
	if len(f.Probes) == 0 {
		return &preflighterrors.ValidationError{
			Field:       "probes",
			Message:     "probe file must define at least one probe",
			SuggestText: "add a probes: list with at least one entry",
		}
	}

	names := make(map[string]bool)
	for i, p := range f.Probes {
		if err := p.Validate(); err != nil {
			return err
		}
		if names[p.Name] {
			return p.validationError(fmt.Sprintf("probes[%d].name", i),
				fmt.Sprintf("duplicate probe name %q", p.Name),
				"ensure each probe has a unique name")
		}
		names[p.Name] = true
	}

	return nil
}

// Validate checks a single probe definition.
func (p *Probe) Validate() error {
	if p.Name == "" {
		return p.validationError("name", "probe name is required",
			"add a descriptive name for the probe")
	}

	if p.URL == "" && p.BaseURL == "" {
		return p.validationError("url", "probe needs a url or a base_url",
			"set url, or base_url plus an optional path")
	}
	if p.URL != "" && (p.BaseURL != "" || p.Path != "") {
		return p.validationError("url", "url and base_url/path are mutually exclusive",
			"use url alone or base_url plus path")
	}

	if err := p.Auth.Validate(); err != nil {
		return fmt.Errorf("probe %q (line %d): %w", p.Name, p.line, err)
	}

	if p.Timeout < 0 {
		return p.validationError("timeout", "timeout must be non-negative", "")
	}
	if p.MaxRetries != nil && *p.MaxRetries < 0 {
		return p.validationError("max_retries", "max_retries must be non-negative", "")
	}
	if p.RetryDelay < 0 {
		return p.validationError("retry_delay", "retry_delay must be non-negative", "")
	}

	for i, expr := range p.Expect {
		if strings.TrimSpace(expr) == "" {
			return p.validationError(fmt.Sprintf("expect[%d]", i),
				"expectation must not be empty",
				"remove the empty entry or add an expression")
		}
	}

	return nil
}

// Validate checks the auth block.
func (a *AuthConfig) Validate() error {
	switch probe.AuthType(a.Type) {
	case probe.AuthNone, probe.AuthBearer, probe.AuthAPIKey, probe.AuthBasic, probe.AuthCustomHeader:
	case "":
	default:
		return &preflighterrors.ValidationError{
			Field:       "auth.type",
			Message:     fmt.Sprintf("unknown auth type %q", a.Type),
			SuggestText: "use one of: none, bearer, api_key, basic, custom_header",
		}
	}

	if probe.AuthType(a.Type) == probe.AuthCustomHeader && a.HeaderName == "" {
		return &preflighterrors.ValidationError{
			Field:       "auth.header_name",
			Message:     "header_name is required for custom_header auth",
			SuggestText: "set the header to carry the credential, e.g. X-Service-Token",
		}
	}

	if a.TokenURL != "" {
		if probe.AuthType(a.Type) != probe.AuthBearer {
			return &preflighterrors.ValidationError{
				Field:       "auth.token_url",
				Message:     fmt.Sprintf("token_url requires bearer auth, got type %q", a.Type),
				SuggestText: "OAuth2 client-credentials resolution produces a bearer token",
			}
		}
		if a.Token != "" {
			return &preflighterrors.ValidationError{
				Field:       "auth.token",
				Message:     "token and token_url are mutually exclusive",
				SuggestText: "provide a static token or let token_url mint one, not both",
			}
		}
		if a.ClientID == "" {
			return &preflighterrors.ValidationError{
				Field:       "auth.client_id",
				Message:     "client_id is required with token_url",
				SuggestText: "add the OAuth2 client credentials for the token endpoint",
			}
		}
	}

	return nil
}

func (p *Probe) validationError(field, message, suggestion string) error {
	if p.line > 0 {
		field = fmt.Sprintf("%s (line %d)", field, p.line)
	}
	return &preflighterrors.ValidationError{
		Field:       field,
		Message:     message,
		SuggestText: suggestion,
	}
}

// RequestConfig builds the core request configuration for one probe,
// layering the probe's overrides over the file defaults over base. A nil
// base starts from the built-in defaults.
func (f *ProbeFile) RequestConfig(base *probe.RequestConfig, p *Probe) *probe.RequestConfig {
	var cfg *probe.RequestConfig
	if base != nil {
		cp := *base
		cfg = &cp
	} else {
		cfg = probe.DefaultRequestConfig()
	}

	d := f.Defaults
	if d.Timeout > 0 {
		cfg.Timeout = d.Timeout
	}
	if d.MaxRetries != nil {
		cfg.MaxRetries = *d.MaxRetries
	}
	if d.RetryDelay > 0 {
		cfg.RetryDelay = d.RetryDelay
	}
	if d.Accept != "" {
		cfg.Accept = d.Accept
	}
	if d.UserAgent != "" {
		cfg.UserAgent = d.UserAgent
	}
	if d.FollowRedirects != nil {
		cfg.FollowRedirects = *d.FollowRedirects
	}

	cfg.URL = p.URL
	cfg.BaseURL = p.BaseURL
	cfg.Path = p.Path
	cfg.Auth = p.Auth.Scheme()
	cfg.Headers = p.Headers.String()
	cfg.Query = p.Query.String()
	if p.Timeout > 0 {
		cfg.Timeout = p.Timeout
	}
	if p.MaxRetries != nil {
		cfg.MaxRetries = *p.MaxRetries
	}
	if p.RetryDelay > 0 {
		cfg.RetryDelay = p.RetryDelay
	}
	if p.Accept != "" {
		cfg.Accept = p.Accept
	}
	if p.UserAgent != "" {
		cfg.UserAgent = p.UserAgent
	}
	if p.FollowRedirects != nil {
		cfg.FollowRedirects = *p.FollowRedirects
	}

	return cfg
}

// HeaderBlock accepts either a YAML mapping or a literal text block and
// normalizes both to "Name: value" lines in declaration order.
type HeaderBlock struct {
	block string
}

// String returns the normalized line block the core consumes.
func (b HeaderBlock) String() string { return b.block }

func (b *HeaderBlock) UnmarshalYAML(node *yaml.Node) error {
	block, err := decodeLineBlock(node, ": ")
	if err != nil {
		return fmt.Errorf("headers: %w", err)
	}
	b.block = block
	return nil
}

// QueryBlock accepts either a YAML mapping or a literal text block and
// normalizes both to "key=value" lines in declaration order.
type QueryBlock struct {
	block string
}

// String returns the normalized line block the core consumes.
func (b QueryBlock) String() string { return b.block }

func (b *QueryBlock) UnmarshalYAML(node *yaml.Node) error {
	block, err := decodeLineBlock(node, "=")
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	b.block = block
	return nil
}

// decodeLineBlock converts a mapping node to separator-joined lines in
// declaration order, or passes a scalar text block through unchanged.
func decodeLineBlock(node *yaml.Node, sep string) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", nil
		}
		var s string
		if err := node.Decode(&s); err != nil {
			return "", err
		}
		return s, nil

	case yaml.MappingNode:
		var lines []string
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			value := node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("line %d: value for %q must be a scalar", value.Line, key.Value)
			}
			lines = append(lines, key.Value+sep+value.Value)
		}
		return strings.Join(lines, "\n"), nil

	default:
		return "", fmt.Errorf("line %d: expected a mapping or a text block", node.Line)
	}
}
