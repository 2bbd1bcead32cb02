package dataset

import (
	"path/filepath"
	"sync"

	"github.com/golang/groupcache/lru"
)

// Cache keeps recently opened datasets so repeated consumers of the
// same directory share one set of mappings. Eviction closes the
// evicted dataset, so size the cache for the working set of datasets
// held by callers at any one time.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewCache creates a cache holding at most maxEntries open datasets.
// Zero means no limit.
func NewCache(maxEntries int) *Cache {
	c := &Cache{lru: lru.New(maxEntries)}
	c.lru.OnEvicted = func(_ lru.Key, value interface{}) {
		value.(*Dataset).Close()
	}
	return c
}

// Open returns the cached dataset for dir, opening and caching it on a
// miss. Paths are cleaned, so "data/" and "data" share an entry.
func (c *Cache) Open(dir string, opts ...Option) (*Dataset, error) {
	key := filepath.Clean(dir)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		return v.(*Dataset), nil
	}

	ds, err := Open(dir, opts...)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, ds)
	return ds, nil
}

// Len returns the number of cached datasets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge closes and drops every cached dataset.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}
