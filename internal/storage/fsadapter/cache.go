package fsadapter

import (
	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/metrics"
	"github.com/dgraph-io/ristretto/v2"
)

// indexCache is a small read-through cache of decoded category indexes,
// keyed by canonical category path string. It is purely a performance
// optimization: a miss always falls through to disk, and every write
// path invalidates the affected key before returning. Never a source
// of truth (§9's "derived index integrity").
type indexCache struct {
	cache *ristretto.Cache[string, category.Category]
}

func newIndexCache() *indexCache {
	c, err := ristretto.NewCache(&ristretto.Config[string, category.Category]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		// Cache construction failure degrades to "always miss", never
		// a fatal error: the adapter is still correct without it.
		return &indexCache{cache: nil}
	}
	return &indexCache{cache: c}
}

func (c *indexCache) get(key string) (category.Category, bool) {
	if c == nil || c.cache == nil {
		return category.Category{}, false
	}
	v, ok := c.cache.Get(key)
	if ok {
		metrics.CacheHit()
	} else {
		metrics.CacheMiss()
	}
	return v, ok
}

func (c *indexCache) set(key string, value category.Category) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Set(key, value, 1)
}

func (c *indexCache) invalidate(key string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Del(key)
	c.cache.Wait()
}

// wait blocks until every Set/Del issued so far has been applied.
// ristretto processes both asynchronously off a buffered channel, so
// any write path that populates the cache with a just-written value
// (rather than invalidating a stale one) must call this before
// returning, or a Load racing the same request could still observe
// the pre-write entry.
func (c *indexCache) wait() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Wait()
}
