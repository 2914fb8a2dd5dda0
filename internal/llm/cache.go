package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is a TTL response cache keyed by request content. A hit serves the
// stored response without touching providers or rate limiters.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	response *Response
	expires  time.Time
}

// NewCache creates a response cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// CacheKey derives a stable key from everything that determines the
// response content, including the preferred provider. A request carrying an
// explicit provider override never hits an entry another provider wrote.
func CacheKey(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "provider=%s\n", req.Provider)
	fmt.Fprintf(&b, "model=%s\n", req.Model)
	fmt.Fprintf(&b, "temperature=%g\n", req.Temperature)
	fmt.Fprintf(&b, "max_tokens=%d\n", req.MaxTokens)
	fmt.Fprintf(&b, "system=%s\n", req.Prompt.System)
	fmt.Fprintf(&b, "user=%s\n", req.Prompt.User)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for a key, or nil on miss or expiry.
// Expired entries are dropped on access.
func (c *Cache) Get(key string) *Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil
	}

	// Copy so callers cannot mutate the stored response.
	resp := *entry.response
	resp.Cached = true
	return &resp
}

// Put stores a response under a key with the cache TTL.
func (c *Cache) Put(key string, resp *Response) {
	if resp == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *resp
	stored.Cached = false
	c.entries[key] = cacheEntry{
		response: &stored,
		expires:  c.now().Add(c.ttl),
	}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
