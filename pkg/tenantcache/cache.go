// pkg/tenantcache/cache.go
package tenantcache

import (
	"sync"
	"time"

	"storegate/pkg/tenants"
)

// Outcome is a cached resolution result for a hostname: either a tenant or an
// authoritative not-found. Negative results are cached with the same TTL so a
// typo'd or decommissioned hostname can't cause a lookup storm.
type Outcome struct {
	Tenant tenants.TenantRecord
	Found  bool
}

type entry struct {
	outcome   Outcome
	expiresAt time.Time
}

// Cache is the process-local hostname → outcome cache. It is the only shared
// mutable state at the edge: advisory, best-effort, never a source of truth.
// Not persisted across restarts; staleness is bounded by the TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with a single uniform TTL. Lifecycle: init at process
// start, no teardown needed.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: map[string]entry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached outcome for key. An entry at or past its expiry is a
// miss; eviction of expired entries happens lazily on Set.
func (c *Cache) Get(key string) (Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return Outcome{}, false
	}
	return e.outcome, true
}

// Set stores an outcome, overwriting any previous entry for the key.
// Concurrent writers for the same key are fine: writes are idempotent.
func (c *Cache) Set(key string, o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{outcome: o, expiresAt: c.now().Add(c.ttl)}
	c.cleanupExpiredLocked(10)
}

// Invalidate drops a single key, e.g. when a tenant's domain settings change
// upstream.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupExpiredLocked removes up to max expired entries; bounded so the
// write lock is never held for a full sweep.
func (c *Cache) cleanupExpiredLocked(max int) {
	now := c.now()
	cleaned := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			if cleaned++; cleaned >= max {
				return
			}
		}
	}
}
