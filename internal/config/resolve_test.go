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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	preflighterrors "github.com/probekit/preflight/pkg/errors"
)

func parseForResolve(t *testing.T, auth string) *ProbeFile {
	t.Helper()
	f, err := ParseProbeFile([]byte("probes:\n  - name: a\n    url: https://x.test\n    auth:\n      " + auth + "\n"))
	require.NoError(t, err)
	return f
}

func TestResolveCredentialsEnvExpansion(t *testing.T) {
	t.Setenv("API_TOKEN", "tok-from-env")

	f := parseForResolve(t, "token: ${API_TOKEN}")
	require.NoError(t, f.ResolveCredentials(context.Background(), nil))
	assert.Equal(t, "tok-from-env", f.Probes[0].Auth.Token)
}

func TestResolveCredentialsEnvInsideLargerValue(t *testing.T) {
	t.Setenv("TENANT", "acme")

	f := parseForResolve(t, "username: svc-${TENANT}\n      password: pw")
	require.NoError(t, f.ResolveCredentials(context.Background(), nil))
	assert.Equal(t, "svc-acme", f.Probes[0].Auth.Username)
}

func TestResolveCredentialsUnsetEnv(t *testing.T) {
	t.Setenv("DEFINITELY_UNSET_TOKEN", "")
	f := parseForResolve(t, "token: ${DEFINITELY_UNSET_TOKEN}")

	err := f.ResolveCredentials(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_UNSET_TOKEN")
	assert.Contains(t, err.Error(), `probe "a"`)
	assert.Contains(t, err.Error(), "auth.token")

	var credErr *preflighterrors.CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "environment", credErr.Source)
}

func TestResolveCredentialsSecretReference(t *testing.T) {
	f := parseForResolve(t, "token: secret://github-token")

	resolver := func(ctx context.Context, key string) (string, error) {
		assert.Equal(t, "github-token", key)
		return "ghp_resolved", nil
	}

	require.NoError(t, f.ResolveCredentials(context.Background(), resolver))
	assert.Equal(t, "ghp_resolved", f.Probes[0].Auth.Token)
}

func TestResolveCredentialsSecretViaEnv(t *testing.T) {
	// An environment variable may itself hold a secret reference.
	t.Setenv("TOKEN_REF", "secret://nested")

	f := parseForResolve(t, "token: ${TOKEN_REF}")
	resolver := func(ctx context.Context, key string) (string, error) {
		return "resolved-" + key, nil
	}

	require.NoError(t, f.ResolveCredentials(context.Background(), resolver))
	assert.Equal(t, "resolved-nested", f.Probes[0].Auth.Token)
}

func TestResolveCredentialsNilResolver(t *testing.T) {
	f := parseForResolve(t, "token: secret://github-token")

	err := f.ResolveCredentials(context.Background(), nil)
	require.Error(t, err)

	var credErr *preflighterrors.CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "github-token", credErr.Key)
	assert.Contains(t, credErr.Suggestion(), "preflight secrets set")
}

func TestResolveCredentialsResolverError(t *testing.T) {
	f := parseForResolve(t, "client_secret: secret://oauth-secret\n      token_url: https://auth.test/token\n      client_id: cid")

	resolver := func(ctx context.Context, key string) (string, error) {
		return "", fmt.Errorf("keychain locked")
	}

	err := f.ResolveCredentials(context.Background(), resolver)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.client_secret")
	assert.Contains(t, err.Error(), "keychain locked")
}

func TestResolveCredentialsPassthrough(t *testing.T) {
	f := parseForResolve(t, "token: plain-literal-token")

	called := false
	resolver := func(ctx context.Context, key string) (string, error) {
		called = true
		return "", nil
	}

	require.NoError(t, f.ResolveCredentials(context.Background(), resolver))
	assert.Equal(t, "plain-literal-token", f.Probes[0].Auth.Token)
	assert.False(t, called, "literal values must not hit the resolver")
}

func TestResolveCredentialsEmptySecretKey(t *testing.T) {
	f := parseForResolve(t, "token: secret://")

	err := f.ResolveCredentials(context.Background(), func(ctx context.Context, key string) (string, error) {
		return "never", nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty secret reference")
}
