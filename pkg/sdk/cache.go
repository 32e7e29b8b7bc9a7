package sdk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Tag groups cache entries by resource type.
type Tag string

const (
	TagProducts Tag = "Products"
	TagUsers    Tag = "Users"
)

// CacheKey addresses one cache entry. An empty ID is the "all records" entry.
type CacheKey struct {
	Tag Tag
	ID  string
}

// ListKey returns the key of the full-list entry for tag.
func ListKey(tag Tag) CacheKey { return CacheKey{Tag: tag} }

// RecordKey returns the key of the single-record entry for tag and id.
func RecordKey(tag Tag, id string) CacheKey { return CacheKey{Tag: tag, ID: id} }

func (k CacheKey) String() string {
	if k.ID == "" {
		return string(k.Tag) + "/*"
	}
	return string(k.Tag) + "/" + k.ID
}

// DefaultCacheSize bounds the number of entries a Cache holds.
const DefaultCacheSize = 512

// CacheStats counts cache activity since construction.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Fetches uint64
}

// Loader fetches the value for a cache miss.
type Loader func(ctx context.Context) (any, error)

// Cache is a tag-indexed read cache. Each key carries a generation that
// Invalidate bumps, and Purge bumps a cache-wide epoch. A fetch only
// populates its entry if the generation it started under is still current,
// and concurrent misses on the same generation share one fetch. Generations
// are only tracked while a fetch for the key is outstanding.
type Cache struct {
	mu          sync.Mutex
	entries     *lru.Cache[CacheKey, any]
	generations map[CacheKey]uint64
	pending     map[CacheKey]int
	epoch       uint64

	flights singleflight.Group

	hits, misses, fetches atomic.Uint64
}

// NewCache returns a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[CacheKey, any](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{
		entries:     entries,
		generations: make(map[CacheKey]uint64),
		pending:     make(map[CacheKey]int),
	}, nil
}

// Get returns the cached value for key. Invalidated entries are never returned.
func (c *Cache) Get(key CacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Invalidate drops the full-list entry for tag and, when id is set, the entry for that record.
func (c *Cache) Invalidate(tag Tag, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateLocked(ListKey(tag))
	if id != "" {
		c.invalidateLocked(RecordKey(tag, id))
	}
}

// InvalidateTag drops every entry carrying tag.
func (c *Cache) InvalidateTag(tag Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateLocked(ListKey(tag))
	for _, key := range c.entries.Keys() {
		if key.Tag == tag {
			c.invalidateLocked(key)
		}
	}
}

// Purge drops every entry, e.g. when the session identity changes.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	clear(c.generations)
	c.entries.Purge()
}

func (c *Cache) invalidateLocked(key CacheKey) {
	if c.pending[key] > 0 {
		c.generations[key]++
	}
	c.entries.Remove(key)
}

// release ends one caller's interest in key. The last one out forgets the
// generation; with no fetch outstanding nothing can compare against it.
func (c *Cache) release(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[key]--
	if c.pending[key] <= 0 {
		delete(c.pending, key)
		delete(c.generations, key)
	}
}

type fetchResult struct {
	val any
	err error
}

// FetchOrUse returns the cached value for key, or runs load and caches its
// result. Concurrent callers missing the same key share a single load. A
// load that was overtaken by Invalidate still answers its callers but does
// not repopulate the entry. Errors are returned as-is and never cached.
func (c *Cache) FetchOrUse(ctx context.Context, key CacheKey, load Loader) (any, error) {
	c.mu.Lock()
	if v, ok := c.entries.Get(key); ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return v, nil
	}
	epoch, gen := c.epoch, c.generations[key]
	c.pending[key]++
	c.mu.Unlock()
	c.misses.Add(1)

	flight := fmt.Sprintf("%s@%d.%d", key, epoch, gen)
	fetch := func() (any, error) {
		c.fetches.Add(1)
		// One caller's cancellation must not fail the others sharing this load.
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.epoch == epoch && c.generations[key] == gen {
			c.entries.Add(key, v)
		}
		c.mu.Unlock()
		return v, nil
	}

	// The pending count is held until the shared fetch finishes, even when
	// this caller gives up early.
	ch := make(chan fetchResult, 1)
	go func() {
		v, err, _ := c.flights.Do(flight, fetch)
		c.release(key)
		ch <- fetchResult{val: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.val, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of valid entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns hit, miss and fetch counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
	}
}
