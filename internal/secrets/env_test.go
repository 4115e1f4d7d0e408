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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEnvKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"github-token", "PREFLIGHT_SECRET_GITHUB_TOKEN"},
		{"api_key", "PREFLIGHT_SECRET_API_KEY"},
		{"payments/oauth-secret", "PREFLIGHT_SECRET_PAYMENTS_OAUTH_SECRET"},
		{"v2.token", "PREFLIGHT_SECRET_V2_TOKEN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeEnvKey(tt.key), "key %q", tt.key)
	}
}

func TestEnvBackendGet(t *testing.T) {
	ctx := context.Background()
	backend := NewEnvBackend()

	t.Setenv("PREFLIGHT_SECRET_GITHUB_TOKEN", "ghp_value")

	value, err := backend.Get(ctx, "github-token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_value", value)

	_, err = backend.Get(ctx, "absent-key")
	require.ErrorIs(t, err, ErrSecretNotFound)
	assert.Contains(t, err.Error(), "PREFLIGHT_SECRET_ABSENT_KEY")
}

func TestEnvBackendList(t *testing.T) {
	ctx := context.Background()
	backend := NewEnvBackend()

	t.Setenv("PREFLIGHT_SECRET_CI_TOKEN", "x")

	keys, err := backend.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "ci-token")
}

func TestEnvBackendIsReadOnly(t *testing.T) {
	ctx := context.Background()
	backend := NewEnvBackend()

	assert.True(t, backend.ReadOnly())
	assert.ErrorIs(t, backend.Set(ctx, "k", "v"), ErrReadOnlyBackend)
	assert.ErrorIs(t, backend.Delete(ctx, "k"), ErrReadOnlyBackend)

	assert.True(t, backend.Available())
	assert.Equal(t, EnvBackendPriority, backend.Priority())
	assert.Equal(t, "env", backend.Name())
}
