package tenantcache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storegate/pkg/tenants"
)

func acme() Outcome {
	return Outcome{Tenant: tenants.TenantRecord{ID: "t-1", Slug: "acme", DisplayName: "Acme"}, Found: true}
}

func TestGetSet(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("acme.platform.app")
	assert.False(t, ok)

	c.Set("acme.platform.app", acme())
	got, ok := c.Get("acme.platform.app")
	assert.True(t, ok)
	assert.Equal(t, acme(), got)
}

func TestNegativeCaching(t *testing.T) {
	c := New(time.Minute)
	c.Set("typo.platform.app", Outcome{})

	got, ok := c.Get("typo.platform.app")
	assert.True(t, ok, "a NotFound outcome is a valid cache hit")
	assert.False(t, got.Found)
}

func TestTTLBoundary(t *testing.T) {
	c := New(600 * time.Second)
	base := time.Unix(1_700_000_000, 0)
	clock := base
	c.now = func() time.Time { return clock }

	c.Set("acme.platform.app", acme())

	clock = base.Add(600*time.Second - time.Millisecond)
	_, ok := c.Get("acme.platform.app")
	assert.True(t, ok, "entry just inside TTL must hit")

	clock = base.Add(600 * time.Second)
	_, ok = c.Get("acme.platform.app")
	assert.False(t, ok, "entry at TTL must be treated as absent")

	clock = base.Add(600*time.Second + time.Millisecond)
	_, ok = c.Get("acme.platform.app")
	assert.False(t, ok, "entry past TTL must be treated as absent")
}

func TestOverwriteRefreshesExpiry(t *testing.T) {
	c := New(10 * time.Second)
	base := time.Unix(1_700_000_000, 0)
	clock := base
	c.now = func() time.Time { return clock }

	c.Set("k", Outcome{})
	clock = base.Add(8 * time.Second)
	c.Set("k", acme())
	clock = base.Add(15 * time.Second)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.True(t, got.Found)
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", acme())
	c.Set("b", Outcome{})

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLazyEvictionOnSet(t *testing.T) {
	c := New(time.Second)
	base := time.Unix(1_700_000_000, 0)
	clock := base
	c.now = func() time.Time { return clock }

	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, Outcome{})
	}
	clock = base.Add(time.Hour)
	c.Set("fresh", acme())

	assert.Equal(t, 1, c.Len(), "expired entries are swept on write")
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set("acme.platform.app", acme())
				c.Get("acme.platform.app")
				c.Invalidate("other")
			}
		}()
	}
	wg.Wait()
}
