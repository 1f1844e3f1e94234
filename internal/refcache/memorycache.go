package refcache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"vossync/internal/vos"
)

type memEntry struct {
	data      vos.Response
	expiresAt time.Time
}

// memoryCache is the in-process tier. Entries share the endpoint TTL class
// with the durable tier and disappear on restart.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]memEntry)}
}

func memKey(instanceID uint, apiPath, cacheKey string) string {
	return fmt.Sprintf("%d:%s:%s", instanceID, apiPath, cacheKey)
}

func (c *memoryCache) get(key string) (vos.Response, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *memoryCache) set(key string, data vos.Response, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memEntry{data: data, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// deletePrefix drops every entry whose key starts with prefix.
func (c *memoryCache) deletePrefix(prefix string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// purgeExpired drops dead entries. Called from the cleanup job.
func (c *memoryCache) purgeExpired() int {
	now := time.Now()
	removed := 0
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}
