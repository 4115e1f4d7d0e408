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
	"sync"
	"time"
)

// Cache memoizes resolved secrets so repeated probe cycles (watch mode)
// do not hit the keychain on every run.
//
// Security properties:
//   - values are never persisted to disk
//   - Clear drops everything, and watch calls it when probe files change
//   - entries older than the TTL are re-resolved
type Cache struct {
	resolver *Resolver
	ttl      time.Duration

	mu      sync.RWMutex
	entries map[string]cachedSecret
}

type cachedSecret struct {
	value      string
	resolvedAt time.Time
}

// NewCache wraps a resolver with memoization. A non-positive ttl keeps
// entries until Clear.
func NewCache(resolver *Resolver, ttl time.Duration) *Cache {
	return &Cache{
		resolver: resolver,
		ttl:      ttl,
		entries:  make(map[string]cachedSecret),
	}
}

// Get resolves a key through the cache. Its signature matches the
// probe-file credential resolver, same as Resolver.Get.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	value, err := c.resolver.Get(ctx, key)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = cachedSecret{value: value, resolvedAt: time.Now()}
	c.mu.Unlock()

	return value, nil
}

// Clear drops all cached values.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		entry.value = ""
		c.entries[key] = entry
	}
	c.entries = make(map[string]cachedSecret)
}

// Len reports the number of cached entries, for logging.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && time.Since(entry.resolvedAt) > c.ttl {
		return "", false
	}
	return entry.value, true
}
