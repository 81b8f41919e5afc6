package embedding

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheEntries bounds the cache before eviction kicks in.
const DefaultCacheEntries = 10000

// Cache is a content-hash-keyed vector cache that persists across process
// restarts. Keys are xxhash digests of the input text: collision-resistant
// enough for cache keying, no cryptographic strength needed.
//
// Eviction is a crude halve-on-overflow: when the entry count passes the
// ceiling, the oldest-inserted half is dropped. The contract is bounded
// memory, not precise recency.
type Cache struct {
	mu      sync.Mutex
	path    string
	max     int
	order   []string
	entries map[string][]float32
}

type cacheEntry struct {
	Key    string    `json:"key"`
	Vector []float32 `json:"vector"`
}

// LoadCache opens the cache at path, loading prior entries when the file
// exists. A missing file starts an empty cache; a corrupt file is an error.
func LoadCache(path string, maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	c := &Cache{
		path:    path,
		max:     maxEntries,
		entries: make(map[string][]float32),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("load embedding cache: %w", err)
	}

	var stored []cacheEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode embedding cache %s: %w", path, err)
	}
	for _, e := range stored {
		if _, ok := c.entries[e.Key]; ok {
			continue
		}
		c.entries[e.Key] = e.Vector
		c.order = append(c.order, e.Key)
	}
	// A file written under a larger ceiling must not carry the overflow
	// into this process.
	c.evictLocked()
	return c, nil
}

func cacheKey(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

// Get returns the cached vector for text, if present.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.entries[cacheKey(text)]
	return vec, ok
}

// Put stores a vector for text, evicting the oldest half when the entry
// count passes the ceiling.
func (c *Cache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text)
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = vector
	c.evictLocked()
}

// evictLocked drops the oldest half of entries when the count passes the
// ceiling. Callers must hold the lock (or own the cache exclusively).
func (c *Cache) evictLocked() {
	if len(c.entries) <= c.max {
		return
	}
	keep := c.max / 2
	drop := c.order[:len(c.order)-keep]
	for _, k := range drop {
		delete(c.entries, k)
	}
	c.order = append([]string(nil), c.order[len(c.order)-keep:]...)
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache to disk in insertion order.
func (c *Cache) Save() error {
	c.mu.Lock()
	stored := make([]cacheEntry, 0, len(c.entries))
	for _, key := range c.order {
		stored = append(stored, cacheEntry{Key: key, Vector: c.entries[key]})
	}
	c.mu.Unlock()

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode embedding cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("save embedding cache: %w", err)
	}
	return nil
}
