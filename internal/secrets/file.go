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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/probekit/preflight/internal/config"
)

const (
	// FileBackendPriority is the priority for the encrypted file backend.
	FileBackendPriority = 25

	// Argon2id parameters: 3 passes over 64 MiB with 4 lanes, 256-bit key.
	argon2Time        = 3
	argon2Memory      = 64 * 1024
	argon2Parallelism = 4
	argon2KeyLength   = 32

	// Standard 96-bit GCM nonce.
	gcmNonceSize = 12
)

// FileBackend stores secrets in a single AES-256-GCM encrypted file. The
// encryption key derives via Argon2id from a master key taken from:
//  1. PREFLIGHT_MASTER_KEY environment variable
//  2. master.key next to the config file
//
// Without a master key the backend reports itself unavailable instead of
// failing construction, so the rest of the chain keeps working.
type FileBackend struct {
	path      string
	masterKey []byte
	mu        sync.RWMutex
	available bool
}

// encryptedFile is the on-disk structure of the secrets file.
type encryptedFile struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// NewFileBackend creates an encrypted file backend at path, defaulting to
// secrets.enc in the data directory. An empty masterKey falls back to the
// environment and key-file sources.
func NewFileBackend(path string, masterKey string) (*FileBackend, error) {
	if path == "" {
		dir, err := config.DataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		path = filepath.Join(dir, "secrets.enc")
	}

	mk, err := resolveMasterKey(masterKey)
	if err != nil {
		// No master key: unavailable, not broken.
		return &FileBackend{path: path, available: false}, nil
	}

	backend := &FileBackend{path: path, masterKey: mk, available: true}
	if err := backend.ensureParentDir(); err != nil {
		return nil, fmt.Errorf("failed to create secrets directory: %w", err)
	}
	return backend, nil
}

// Name identifies the backend in listings and --backend flags.
func (f *FileBackend) Name() string {
	return "file"
}

// Get decrypts the store and looks up key.
func (f *FileBackend) Get(ctx context.Context, key string) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	stored, err := f.snapshot()
	if err != nil {
		return "", err
	}
	value, ok := stored[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}
	return value, nil
}

// Set writes key through a full decrypt-update-encrypt cycle.
func (f *FileBackend) Set(ctx context.Context, key string, value string) error {
	if err := f.guard(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	stored, err := f.snapshot()
	if err != nil {
		return err
	}
	stored[key] = value
	return f.save(stored)
}

// Delete removes key, rewriting the store without it.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	if err := f.guard(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	stored, err := f.snapshot()
	if err != nil {
		return err
	}
	if _, ok := stored[key]; !ok {
		return fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}
	delete(stored, key)
	return f.save(stored)
}

// List decrypts the store and returns its keys.
func (f *FileBackend) List(ctx context.Context) ([]string, error) {
	if err := f.guard(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	stored, err := f.snapshot()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(stored))
	for k := range stored {
		keys = append(keys, k)
	}
	return keys, nil
}

// Available reports whether a master key was found.
func (f *FileBackend) Available() bool {
	return f.available
}

// Priority puts the file backend last in the default chain.
func (f *FileBackend) Priority() int {
	return FileBackendPriority
}

// guard rejects every operation when no master key was resolved.
func (f *FileBackend) guard() error {
	if !f.available {
		return fmt.Errorf("%w: file backend has no master key", ErrBackendUnavailable)
	}
	return nil
}

// snapshot loads the decrypted store, treating a missing file as an
// empty store. Callers must hold the mutex.
func (f *FileBackend) snapshot() (map[string]string, error) {
	stored, err := f.load()
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	return stored, nil
}

// aead derives a 256-bit key from the master key with Argon2id and wraps
// it in AES-GCM. The derived key is scrubbed before returning; best
// effort, since the GC may hold copies.
func (f *FileBackend) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(f.masterKey, salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLength)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init failed: %w", err)
	}
	return cipher.NewGCM(block)
}

// load reads and decrypts the secrets file. A missing file surfaces as
// an os.IsNotExist error for snapshot to absorb.
func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	var envelope encryptedFile
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed secrets file envelope: %w", err)
	}

	gcm, err := f.aead(envelope.Salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, envelope.Nonce, envelope.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed, wrong master key or corrupted file: %w", err)
	}
	defer clear(plaintext)

	var stored map[string]string
	if err := json.Unmarshal(plaintext, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode secret store: %w", err)
	}
	return stored, nil
}

// save encrypts the store and writes it atomically. A fresh salt and
// nonce are drawn on every write so identical stores never produce
// identical ciphertext.
func (f *FileBackend) save(stored map[string]string) error {
	plaintext, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode secret store: %w", err)
	}
	defer clear(plaintext)

	salt, err := randomBytes(16)
	if err != nil {
		return fmt.Errorf("salt generation failed: %w", err)
	}
	nonce, err := randomBytes(gcmNonceSize)
	if err != nil {
		return fmt.Errorf("nonce generation failed: %w", err)
	}

	gcm, err := f.aead(salt)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(encryptedFile{
		Salt:  salt,
		Nonce: nonce,
		Data:  gcm.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return fmt.Errorf("failed to encode secrets file: %w", err)
	}

	return f.writeAtomic(raw)
}

// writeAtomic writes through a temp file and rename so a crash never
// leaves a half-written secrets file, then re-checks permissions.
func (f *FileBackend) writeAtomic(raw []byte) error {
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return verifyFilePermissions(f.path)
}

// ensureParentDir creates the parent directory with 0700 permissions.
func (f *FileBackend) ensureParentDir() error {
	dir := filepath.Dir(f.path)
	if info, err := os.Stat(dir); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("secrets directory %s is a file", dir)
	}
	return os.MkdirAll(dir, 0700)
}

// resolveMasterKey tries key sources in order: the explicit key, the
// PREFLIGHT_MASTER_KEY environment variable, then a master.key file in
// the config directory.
func resolveMasterKey(providedKey string) ([]byte, error) {
	if providedKey != "" {
		return []byte(providedKey), nil
	}
	if env := os.Getenv("PREFLIGHT_MASTER_KEY"); env != "" {
		return []byte(env), nil
	}
	if key := readKeyFile(); key != nil {
		return key, nil
	}
	return nil, errors.New("master key not available (set PREFLIGHT_MASTER_KEY or create master.key in the config directory)")
}

// readKeyFile loads master.key from the config directory, refusing
// symlinks and group- or world-readable files.
func readKeyFile() []byte {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(dir, "master.key")
	if verifyFilePermissions(path) != nil {
		return nil
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return key
}

// verifyFilePermissions checks that a file is not a symlink and is
// readable only by its owner.
func verifyFilePermissions(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing symlink %s", path)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("%s permissions %o too open, want 0600", path, perm)
	}
	return nil
}

// randomBytes fills n bytes from the system CSPRNG.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
