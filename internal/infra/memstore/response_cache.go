// File: internal/infra/memstore/response_cache.go
package memstore

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// KeyPart is one component of a cache fingerprint. Unnamed parts are
// order-sensitive; named parts are sorted by name before hashing so
// equivalent calls with differently-ordered named arguments collide.
type KeyPart struct {
	Name  string
	Value string
}

func Part(value string) KeyPart            { return KeyPart{Value: value} }
func Named(name, value string) KeyPart     { return KeyPart{Name: name, Value: value} }

type cacheEntry struct {
	value     string
	createdAt time.Time
	expiresAt time.Time
}

// ResponseCache is a capacity-bounded TTL cache keyed by a deterministic
// fingerprint of (prefix, key parts). Callers decide cacheability; the cache
// itself is policy-free.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[uint64]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func NewResponseCache(ttl time.Duration, maxSize int) *ResponseCache {
	return &ResponseCache{
		entries: make(map[uint64]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// fingerprint hashes prefix, positional parts in order, then named parts
// sorted by name.
func fingerprint(prefix string, parts []KeyPart) uint64 {
	var positional, named []KeyPart
	for _, p := range parts {
		if p.Name == "" {
			positional = append(positional, p)
		} else {
			named = append(named, p)
		}
	}
	sort.Slice(named, func(i, j int) bool { return named[i].Name < named[j].Name })

	d := xxhash.New()
	_, _ = d.WriteString(prefix)
	for i, p := range positional {
		_, _ = d.WriteString("\x00" + strconv.Itoa(i) + "=" + p.Value)
	}
	for _, p := range named {
		_, _ = d.WriteString("\x00" + p.Name + "=" + p.Value)
	}
	return d.Sum64()
}

// Get returns the cached value if present and unexpired. Expired entries are
// deleted on access.
func (c *ResponseCache) Get(prefix string, parts ...KeyPart) (string, bool) {
	key := fingerprint(prefix, parts)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value under the fingerprint. At capacity, the entry with the
// nearest expiry is evicted first.
func (c *ResponseCache) Set(prefix, value string, parts ...KeyPart) {
	key := fingerprint(prefix, parts)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		var victim uint64
		var nearest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.expiresAt.Before(nearest) {
				victim, nearest, first = k, e.expiresAt, false
			}
		}
		delete(c.entries, victim)
	}

	c.entries[key] = cacheEntry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// Len reports the current entry count (admin stats).
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[uint64]cacheEntry)
	c.mu.Unlock()
}
