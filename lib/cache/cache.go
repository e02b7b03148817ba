// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache is an in-memory TTL cache for Taiga GET responses.
//
// Entries are addressed by a BLAKE3 digest of the request identity
// (method, endpoint, query, and the principal the response was fetched
// for), so cached bodies are never shared between tokens. Any mutation
// through the client calls Invalidate, which drops every entry: Taiga
// resources reference each other (a story's status changes the
// project's stats), so per-key invalidation would serve stale reads.
package cache

import (
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/clock"
)

// Key is a 32-byte BLAKE3 digest identifying a cached response.
type Key [32]byte

// keyDomain separates cache keys from any other BLAKE3 use.
var keyDomain = [32]byte{
	't', 'a', 'i', 'g', 'a', '.', 'c', 'a', 'c', 'h', 'e', '.',
	'r', 'e', 's', 'p', 'o', 'n', 's', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// NewKey hashes parts into a Key. Each part is length-prefixed so
// ("ab", "c") and ("a", "bc") produce different keys.
func NewKey(parts ...string) Key {
	hasher, err := blake3.NewKeyed(keyDomain[:])
	if err != nil {
		panic("cache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var length [8]byte
	for _, part := range parts {
		size := uint64(len(part))
		for i := range length {
			length[i] = byte(size >> (8 * i))
		}
		hasher.Write(length[:])
		hasher.Write([]byte(part))
	}
	var key Key
	copy(key[:], hasher.Sum(nil))
	return key
}

// DefaultMaxEntries bounds the cache when Config.MaxEntries is zero.
const DefaultMaxEntries = 1024

// Config configures a Cache.
type Config struct {
	// TTL is how long an entry is served. Zero or negative disables
	// the cache: Get always misses and Set stores nothing.
	TTL time.Duration

	// MaxEntries bounds the number of live entries. When full, Set
	// evicts the entry closest to expiry.
	MaxEntries int

	// Clock defaults to clock.Real().
	Clock clock.Clock
}

type entry struct {
	value   []byte
	expires time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	clock      clock.Clock

	mu         sync.Mutex
	entries    map[Key]entry
	generation uint64
	hits       int64
	misses     int64
}

// New returns an empty cache.
func New(config Config) *Cache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	return &Cache{
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		clock:      config.Clock,
		entries:    make(map[Key]entry),
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool { return c.ttl > 0 }

// Get returns a copy of the value for key if it has not expired.
func (c *Cache) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if ok && !c.clock.Now().Before(item.expires) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return append([]byte(nil), item.value...), true
}

// Set stores a copy of value under key for the configured TTL.
func (c *Cache) Set(key Key, value []byte) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, value)
}

// Generation returns a counter that Invalidate advances. Read it
// before fetching a value and pass it to SetIfGeneration.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIfGeneration stores value only if no Invalidate has run since
// generation was read, so a response fetched before a mutation is not
// cached after it. Reports whether value was stored.
func (c *Cache) SetIfGeneration(key Key, generation uint64, value []byte) bool {
	if !c.Enabled() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.storeLocked(key, value)
	return true
}

func (c *Cache) storeLocked(key Key, value []byte) {
	now := c.clock.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry{
		value:   append([]byte(nil), value...),
		expires: now.Add(c.ttl),
	}
}

// evictLocked removes expired entries, and if none were expired, the
// entry that expires soonest.
func (c *Cache) evictLocked(now time.Time) {
	var oldest Key
	var oldestExpiry time.Time
	removed := false
	for key, item := range c.entries {
		if !now.Before(item.expires) {
			delete(c.entries, key)
			removed = true
			continue
		}
		if oldestExpiry.IsZero() || item.expires.Before(oldestExpiry) {
			oldest, oldestExpiry = key, item.expires
		}
	}
	if !removed && !oldestExpiry.IsZero() {
		delete(c.entries, oldest)
	}
}

// Invalidate drops every entry and advances the generation.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.generation++
}

// Len returns the number of stored entries, including expired ones
// not yet collected.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Close releases all entries. The cache remains usable.
func (c *Cache) Close() {
	c.Invalidate()
}
