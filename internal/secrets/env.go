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

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvBackendPriority is the priority for the environment variable
	// backend. Highest, so CI and containers can override stored secrets.
	EnvBackendPriority = 100

	envSecretPrefix = "PREFLIGHT_SECRET_"
)

// EnvBackend provides read-only access to secrets via environment
// variables of the form PREFLIGHT_SECRET_<KEY>.
type EnvBackend struct{}

// NewEnvBackend creates the environment variable backend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

// Name identifies the backend in listings and --backend flags.
func (e *EnvBackend) Name() string {
	return "env"
}

// Get retrieves a secret from a PREFLIGHT_SECRET_* variable.
func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	name := normalizeEnvKey(key)
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, name)
}

// Set returns ErrReadOnlyBackend; the environment cannot be written.
func (e *EnvBackend) Set(ctx context.Context, key string, value string) error {
	return ErrReadOnlyBackend
}

// Delete returns ErrReadOnlyBackend; the environment cannot be written.
func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

// List returns the keys of all non-empty PREFLIGHT_SECRET_* variables.
func (e *EnvBackend) List(ctx context.Context) ([]string, error) {
	var keys []string
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(name, envSecretPrefix) {
			continue
		}
		keys = append(keys, denormalizeEnvKey(name))
	}
	return keys, nil
}

// Available returns true; the environment always exists.
func (e *EnvBackend) Available() bool {
	return true
}

// Priority puts env first in the chain.
func (e *EnvBackend) Priority() int {
	return EnvBackendPriority
}

// ReadOnly returns true; secrets cannot be stored in the environment.
func (e *EnvBackend) ReadOnly() bool {
	return true
}

// normalizeEnvKey converts a secret key to its environment variable name.
// Example: "github-token" -> "PREFLIGHT_SECRET_GITHUB_TOKEN"
func normalizeEnvKey(key string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return envSecretPrefix + mapped
}

// denormalizeEnvKey converts an environment variable name back to a
// secret key. Lossy: underscores map to hyphens, so a stored "a_b" and
// "a-b" list identically. Get still finds both since normalizeEnvKey
// collapses them the same way.
// Example: "PREFLIGHT_SECRET_GITHUB_TOKEN" -> "github-token"
func denormalizeEnvKey(envVar string) string {
	key := strings.ToLower(strings.TrimPrefix(envVar, envSecretPrefix))
	return strings.ReplaceAll(key, "_", "-")
}
