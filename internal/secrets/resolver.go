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
	"errors"
	"fmt"
	"sort"
)

// Resolver queries a chain of backends in priority order.
type Resolver struct {
	backends []Backend
}

// NewResolver creates a resolver from the given backends. Unavailable
// backends are dropped; the rest are sorted by priority, highest first.
func NewResolver(backends ...Backend) *Resolver {
	available := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Available() {
			available = append(available, b)
		}
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].Priority() > available[j].Priority()
	})

	return &Resolver{backends: available}
}

// DefaultChain builds the standard backend chain: environment variables,
// system keychain, encrypted file. A file backend that cannot determine
// its storage path is skipped rather than failing the chain.
func DefaultChain() *Resolver {
	backends := []Backend{
		NewEnvBackend(),
		NewKeychainBackend(),
	}
	if fb, err := NewFileBackend("", ""); err == nil {
		backends = append(backends, fb)
	}
	return NewResolver(backends...)
}

// ready rejects operations on an empty chain.
func (r *Resolver) ready() error {
	if len(r.backends) == 0 {
		return fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}
	return nil
}

// byName finds an available backend by name.
func (r *Resolver) byName(name string) (Backend, error) {
	for _, b := range r.backends {
		if b.Name() == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("backend %q not found or unavailable", name)
}

// writable returns the backends that accept writes, in priority order.
func (r *Resolver) writable() []Backend {
	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		if !isReadOnly(b) {
			out = append(out, b)
		}
	}
	return out
}

func isReadOnly(b Backend) bool {
	ro, ok := b.(ReadOnlyBackend)
	return ok && ro.ReadOnly()
}

// Get retrieves a secret by querying backends in priority order. The
// first hit wins. Returns ErrSecretNotFound if no backend has the key.
//
// The signature matches the probe-file credential resolver, so Get can be
// passed directly to ProbeFile.ResolveCredentials.
func (r *Resolver) Get(ctx context.Context, key string) (string, error) {
	if err := r.ready(); err != nil {
		return "", err
	}

	var lastErr error
	for _, backend := range r.backends {
		switch value, err := backend.Get(ctx, key); {
		case err == nil:
			return value, nil
		case !errors.Is(err, ErrSecretNotFound):
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", key, lastErr)
	}
	return "", fmt.Errorf("%w: %q", ErrSecretNotFound, key)
}

// Set stores a secret in the named backend, or in the highest-priority
// writable backend when backendName is empty.
func (r *Resolver) Set(ctx context.Context, key string, value string, backendName string) error {
	if err := r.ready(); err != nil {
		return err
	}

	if backendName != "" {
		backend, err := r.byName(backendName)
		if err != nil {
			return err
		}
		if err := backend.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to set secret in %s: %w", backendName, err)
		}
		return nil
	}

	for _, backend := range r.writable() {
		err := backend.Set(ctx, key, value)
		if errors.Is(err, ErrReadOnlyBackend) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to set secret in %s: %w", backend.Name(), err)
		}
		return nil
	}
	return fmt.Errorf("no writable backend available")
}

// Delete removes a secret from the named backend, or from every writable
// backend that has the key when backendName is empty.
func (r *Resolver) Delete(ctx context.Context, key string, backendName string) error {
	if err := r.ready(); err != nil {
		return err
	}

	if backendName != "" {
		backend, err := r.byName(backendName)
		if err != nil {
			return err
		}
		if err := backend.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete secret from %s: %w", backendName, err)
		}
		return nil
	}

	deleted := false
	for _, backend := range r.writable() {
		switch err := backend.Delete(ctx, key); {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrSecretNotFound), errors.Is(err, ErrReadOnlyBackend):
			// Nothing to remove here; keep going.
		default:
			return fmt.Errorf("failed to delete secret from %s: %w", backend.Name(), err)
		}
	}

	if !deleted {
		return fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}
	return nil
}

// List returns metadata for all keys across backends. When a key exists
// in several backends, the highest-priority one wins, matching what Get
// would resolve.
func (r *Resolver) List(ctx context.Context) ([]Metadata, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	seen := make(map[string]Metadata)
	for _, backend := range r.backends {
		keys, err := backend.List(ctx)
		if err != nil {
			// A failing backend hides its own keys, not everyone else's.
			continue
		}
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = Metadata{
				Key:      key,
				Backend:  backend.Name(),
				ReadOnly: isReadOnly(backend),
			}
		}
	}

	result := make([]Metadata, 0, len(seen))
	for _, meta := range seen {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// Backends returns the available backends in priority order.
func (r *Resolver) Backends() []Backend {
	return r.backends
}
