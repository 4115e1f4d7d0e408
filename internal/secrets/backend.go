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
)

var (
	// ErrSecretNotFound reports a key with no stored value.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrBackendUnavailable reports a backend that cannot run in this
	// environment, e.g. the file backend without a master key.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrReadOnlyBackend reports a write against a backend that only reads.
	ErrReadOnlyBackend = errors.New("backend is read-only")
)

// Backend provides storage for probe credentials. Backends implement
// different storage mechanisms and are queried in priority order by the
// Resolver.
type Backend interface {
	// Name returns the backend identifier (e.g., "keychain", "env").
	Name() string

	// Get retrieves a secret by key, or ErrSecretNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a secret. Read-only backends return ErrReadOnlyBackend.
	Set(ctx context.Context, key string, value string) error

	// Delete removes a secret, or returns ErrSecretNotFound when the key
	// does not exist. Read-only backends return ErrReadOnlyBackend.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys, never the values.
	List(ctx context.Context) ([]string, error)

	// Available reports whether the backend is usable in the current
	// environment. The keychain backend returns false when no keyring
	// service is reachable.
	Available() bool

	// Priority orders resolution (higher = checked first). Standard
	// priorities: env (100), keychain (50), file (25).
	Priority() int
}

// ReadOnlyBackend marks backends that do not support writes. They return
// ErrReadOnlyBackend from Set and Delete.
type ReadOnlyBackend interface {
	Backend
	ReadOnly() bool
}

// Metadata describes a stored secret for listings. Values are never
// included.
type Metadata struct {
	Key      string `json:"key"`
	Backend  string `json:"backend"`
	ReadOnly bool   `json:"read_only"`
}
