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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileBackend(t *testing.T) *FileBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.enc")
	backend, err := NewFileBackend(path, "test-master-key")
	require.NoError(t, err)
	require.True(t, backend.Available())
	return backend
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newTestFileBackend(t)

	require.NoError(t, backend.Set(ctx, "github-token", "ghp_secret"))
	require.NoError(t, backend.Set(ctx, "oauth-secret", "cs_secret"))

	value, err := backend.Get(ctx, "github-token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", value)

	keys, err := backend.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"github-token", "oauth-secret"}, keys)

	require.NoError(t, backend.Delete(ctx, "github-token"))
	_, err = backend.Get(ctx, "github-token")
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestFileBackendMissingFile(t *testing.T) {
	ctx := context.Background()
	backend := newTestFileBackend(t)

	_, err := backend.Get(ctx, "anything")
	require.ErrorIs(t, err, ErrSecretNotFound)

	keys, err := backend.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.ErrorIs(t, backend.Delete(ctx, "anything"), ErrSecretNotFound)
}

func TestFileBackendCiphertextOnDisk(t *testing.T) {
	ctx := context.Background()
	backend := newTestFileBackend(t)

	require.NoError(t, backend.Set(ctx, "token", "super-secret-value"))

	raw, err := os.ReadFile(backend.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-value", "plaintext must never hit disk")

	info, err := os.Stat(backend.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileBackendWrongMasterKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secrets.enc")

	writer, err := NewFileBackend(path, "correct-key")
	require.NoError(t, err)
	require.NoError(t, writer.Set(ctx, "token", "value"))

	reader, err := NewFileBackend(path, "wrong-key")
	require.NoError(t, err)

	_, err = reader.Get(ctx, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestFileBackendCorruptedFile(t *testing.T) {
	ctx := context.Background()
	backend := newTestFileBackend(t)

	require.NoError(t, os.WriteFile(backend.path, []byte("not json at all"), 0600))

	_, err := backend.Get(ctx, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed secrets file envelope")
}

func TestFileBackendWithoutMasterKey(t *testing.T) {
	ctx := context.Background()
	t.Setenv("PREFLIGHT_MASTER_KEY", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "secrets.enc"), "")
	require.NoError(t, err, "missing master key must not fail construction")
	assert.False(t, backend.Available())

	_, err = backend.Get(ctx, "token")
	require.ErrorIs(t, err, ErrBackendUnavailable)
	require.ErrorIs(t, backend.Set(ctx, "token", "v"), ErrBackendUnavailable)
}

func TestFileBackendMasterKeyFromEnv(t *testing.T) {
	ctx := context.Background()
	t.Setenv("PREFLIGHT_MASTER_KEY", "env-master-key")

	path := filepath.Join(t.TempDir(), "secrets.enc")
	backend, err := NewFileBackend(path, "")
	require.NoError(t, err)
	require.True(t, backend.Available())

	require.NoError(t, backend.Set(ctx, "token", "value"))

	// A second backend with the same env key can read it back.
	again, err := NewFileBackend(path, "")
	require.NoError(t, err)
	value, err := again.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}
