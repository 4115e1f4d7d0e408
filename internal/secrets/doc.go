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

/*
Package secrets stores and resolves probe credentials.

Probe files reference credentials as secret://<key>. Resolution walks a
priority-ordered chain of backends and returns the first hit.

# Backends

	env      - Environment variables (PREFLIGHT_SECRET_*), read-only
	keychain - OS keychain (macOS Keychain, Linux Secret Service,
	           Windows Credential Manager)
	file     - Encrypted file storage (AES-256-GCM, Argon2id key
	           derivation from PREFLIGHT_MASTER_KEY)

Each backend implements the Backend interface:

	type Backend interface {
	    Name() string
	    Priority() int
	    Available() bool
	    Get(ctx context.Context, key string) (string, error)
	    Set(ctx context.Context, key, value string) error
	    Delete(ctx context.Context, key string) error
	    List(ctx context.Context) ([]string, error)
	}

# Usage

Build the standard chain and resolve a key:

	resolver := secrets.DefaultChain()
	token, err := resolver.Get(ctx, "github-token")

Resolver.Get satisfies the probe-file credential resolver signature, so
commands pass it straight through:

	err := probeFile.ResolveCredentials(ctx, resolver.Get)

# Priority Order

Backends are queried highest priority first:

 1. Environment (100) - lets CI and containers override everything
 2. Keychain (50) - the default interactive store
 3. File (25) - fallback when no keychain service exists

# Environment Variables

The env backend maps keys to variables prefixed with PREFLIGHT_SECRET_:

	github-token → PREFLIGHT_SECRET_GITHUB_TOKEN

# Error Handling

Common errors:

  - ErrSecretNotFound: the key exists in no backend
  - ErrBackendUnavailable: a backend cannot be used right now
  - ErrReadOnlyBackend: write attempted on the env backend
*/
package secrets
