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
	"strings"

	"github.com/zalando/go-keyring"
)

// keychainService is the service name under which entries are stored.
const keychainService = "preflight"

// KeychainBackendPriority slots the keychain between env and file.
const KeychainBackendPriority = 50

// keychainLockIndicators are substrings of platform error messages that
// mean the keyring is locked or unreachable rather than missing a key.
var keychainLockIndicators = []string{
	"locked",
	"cannot access",
	"permission denied",
	"failed to unlock",
	"user interaction required",
	"secret service",
	"dbus",
	"user canceled",
}

// KeychainBackend stores secrets in the OS keychain: Keychain Access on
// macOS, the Secret Service API (GNOME Keyring, KWallet) on Linux, and
// Credential Manager on Windows.
type KeychainBackend struct {
	available bool
}

// NewKeychainBackend probes the keyring with a throwaway lookup so a
// locked or absent keychain surfaces at construction rather than on
// first use.
func NewKeychainBackend() *KeychainBackend {
	_, err := keyring.Get(keychainService, "__preflight_availability_probe__")
	ok := err == nil || errors.Is(err, keyring.ErrNotFound)
	return &KeychainBackend{available: ok}
}

// Name identifies the backend in listings and --backend flags.
func (k *KeychainBackend) Name() string { return "keychain" }

// Priority ranks the keychain below env and above file.
func (k *KeychainBackend) Priority() int { return KeychainBackendPriority }

// Available reports whether the keyring service answered the probe.
func (k *KeychainBackend) Available() bool { return k.available }

// Get retrieves a secret from the keychain.
func (k *KeychainBackend) Get(ctx context.Context, key string) (string, error) {
	if err := k.guard(); err != nil {
		return "", err
	}
	value, err := keyring.Get(keychainService, key)
	if err != nil {
		return "", keychainError(key, err)
	}
	return value, nil
}

// Set stores a secret in the keychain.
func (k *KeychainBackend) Set(ctx context.Context, key string, value string) error {
	if err := k.guard(); err != nil {
		return err
	}
	if err := keyring.Set(keychainService, key, value); err != nil {
		return keychainError(key, err)
	}
	return nil
}

// Delete removes a secret from the keychain.
func (k *KeychainBackend) Delete(ctx context.Context, key string) error {
	if err := k.guard(); err != nil {
		return err
	}
	if err := keyring.Delete(keychainService, key); err != nil {
		return keychainError(key, err)
	}
	return nil
}

// List returns no keys: the keychain APIs on most platforms cannot
// enumerate entries, and go-keyring exposes no list operation.
func (k *KeychainBackend) List(ctx context.Context) ([]string, error) {
	if err := k.guard(); err != nil {
		return nil, err
	}
	return []string{}, nil
}

func (k *KeychainBackend) guard() error {
	if k.available {
		return nil
	}
	return fmt.Errorf("%w: keychain did not answer the availability probe", ErrBackendUnavailable)
}

// keychainError translates a go-keyring failure into the backend error
// vocabulary.
func keychainError(key string, err error) error {
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	case isKeychainLocked(err):
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	default:
		return fmt.Errorf("keychain error: %w", err)
	}
}

// isKeychainLocked reports whether the error looks like a locked or
// inaccessible keyring, which varies by platform and message text.
func isKeychainLocked(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, indicator := range keychainLockIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
