// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package prompts

import (
	"context"
	"sync"
	"time"
)

// LoadFunc loads a version from the backing store on a cache miss.
type LoadFunc func(ctx context.Context) (*Version, error)

// VersionCache is a read-through cache of versions keyed by id.
//
// Writers invalidate every id they touched once their unit of work has
// committed. A load that overlaps an invalidation of its id must not be
// cached. Callers always receive a copy they may modify.
type VersionCache interface {
	Get(ctx context.Context, id string, load LoadFunc) (*Version, error)
	Invalidate(ctx context.Context, ids ...string) error
	Stats() (hits, misses uint64)
}

// MemoryCache is an in-memory VersionCache with a fixed TTL.
//
// Example:
//
//	cache := prompts.NewMemoryCache(5 * time.Minute)
//	v, err := cache.Get(ctx, id, func(ctx context.Context) (*prompts.Version, error) {
//	    return store.Versions().Get(ctx, id)
//	})
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	// seq advances on every invalidation. A miss only fills when seq is
	// unchanged since its load started.
	seq uint64

	// Metrics
	hits   uint64
	misses uint64
}

type cacheEntry struct {
	version   *Version
	expiresAt time.Time
}

// NewMemoryCache creates a cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the cached version for id, loading it on a miss or expiry.
// Load errors are returned as-is and nothing is cached. A load that raced
// an invalidation is returned but not cached.
func (c *MemoryCache) Get(ctx context.Context, id string, load LoadFunc) (*Version, error) {
	c.mu.RLock()
	entry, found := c.entries[id]
	c.mu.RUnlock()

	if found && c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return entry.version.Clone(), nil
	}

	c.mu.Lock()
	c.misses++
	seq := c.seq
	c.mu.Unlock()

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.seq == seq {
		c.entries[id] = &cacheEntry{
			version:   v.Clone(),
			expiresAt: c.now().Add(c.ttl),
		}
	}
	c.mu.Unlock()

	return v.Clone(), nil
}

// Invalidate drops the entries for ids and discards any fill already in
// flight.
func (c *MemoryCache) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	for _, id := range ids {
		delete(c.entries, id)
	}
	return nil
}

// Purge clears the entire cache.
func (c *MemoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.entries = make(map[string]*cacheEntry)
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache hit/miss statistics.
func (c *MemoryCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// NoCache is a VersionCache that always loads.
type NoCache struct{}

func (NoCache) Get(ctx context.Context, _ string, load LoadFunc) (*Version, error) {
	return load(ctx)
}

func (NoCache) Invalidate(context.Context, ...string) error { return nil }

func (NoCache) Stats() (hits, misses uint64) { return 0, 0 }

var (
	_ VersionCache = (*MemoryCache)(nil)
	_ VersionCache = NoCache{}
)
