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
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	preflighterrors "github.com/probekit/preflight/pkg/errors"
)

// SecretScheme prefixes credential values resolved through the secrets
// backends, e.g. "secret://github-token".
const SecretScheme = "secret://"

// SecretResolver resolves a secret reference key to its value.
type SecretResolver func(ctx context.Context, key string) (string, error)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolveCredentials expands ${VAR} references and resolves secret://
// references in every probe's credential fields. Only credential fields
// are touched: URLs, headers, and query strings pass through verbatim.
//
// An unset environment variable is an error rather than an empty
// credential. A secret:// reference with a nil resolver is also an
// error: the literal reference must never be sent as a credential.
func (f *ProbeFile) ResolveCredentials(ctx context.Context, resolve SecretResolver) error {
	for _, p := range f.Probes {
		if err := p.Auth.resolveCredentials(ctx, resolve); err != nil {
			return fmt.Errorf("probe %q: %w", p.Name, err)
		}
	}
	return nil
}

func (a *AuthConfig) resolveCredentials(ctx context.Context, resolve SecretResolver) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"token", &a.Token},
		{"username", &a.Username},
		{"password", &a.Password},
		{"client_id", &a.ClientID},
		{"client_secret", &a.ClientSecret},
	}

	for _, field := range fields {
		if *field.value == "" {
			continue
		}
		resolved, err := resolveValue(ctx, *field.value, resolve)
		if err != nil {
			return fmt.Errorf("auth.%s: %w", field.name, err)
		}
		*field.value = resolved
	}

	return nil
}

// ResolveValue expands ${VAR} references and resolves a secret://
// reference in a single credential value. Command flags carrying
// credentials go through the same resolution as probe file fields.
func ResolveValue(ctx context.Context, value string, resolve SecretResolver) (string, error) {
	return resolveValue(ctx, value, resolve)
}

func resolveValue(ctx context.Context, value string, resolve SecretResolver) (string, error) {
	expanded, err := expandEnv(value)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(expanded, SecretScheme) {
		return expanded, nil
	}

	key := strings.TrimPrefix(expanded, SecretScheme)
	if key == "" {
		return "", &preflighterrors.CredentialError{
			Source:      "secrets",
			Key:         value,
			Message:     "empty secret reference",
			SuggestText: "reference a stored secret by name, e.g. secret://github-token",
		}
	}
	if resolve == nil {
		return "", &preflighterrors.CredentialError{
			Source:      "secrets",
			Key:         key,
			Message:     "no secrets backend available to resolve the reference",
			SuggestText: fmt.Sprintf("store the secret with 'preflight secrets set %s'", key),
		}
	}

	resolved, err := resolve(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolving %s%s: %w", SecretScheme, key, err)
	}
	return resolved, nil
}

// expandEnv substitutes ${VAR} references from the environment. All
// referenced variables must be set.
func expandEnv(value string) (string, error) {
	var missing []string
	expanded := envRefPattern.ReplaceAllStringFunc(value, func(ref string) string {
		name := ref[2 : len(ref)-1]
		v, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return v
	})
	if len(missing) > 0 {
		return "", &preflighterrors.CredentialError{
			Source:      "environment",
			Key:         strings.Join(missing, ", "),
			Message:     "environment variable is not set",
			SuggestText: fmt.Sprintf("export %s or replace the reference with a secret:// key", missing[0]),
		}
	}
	return expanded, nil
}
