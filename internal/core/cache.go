package core

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc produces a dataset for a source path.
type LoaderFunc func(ctx context.Context, path string) (*Dataset, error)

// Observer receives cache and load events. metrics.Registry implements it.
type Observer interface {
	CacheHit(source string)
	CacheMiss(source string)
	ObserveLoad(source string, elapsed time.Duration, ds *Dataset, err error)
}

// Cache memoizes datasets per source path. Concurrent Gets for the same path
// share one load; failed loads are not cached, so the next Get retries.
type Cache struct {
	load     LoaderFunc
	logger   *slog.Logger
	observer Observer

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Dataset
	gen     uint64 // bumped by Invalidate and Reset
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithObserver reports cache events to o.
func WithObserver(o Observer) CacheOption {
	return func(c *Cache) { c.observer = o }
}

// WithCacheLogger sets the logger. Defaults to slog.Default.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates a cache in front of load.
func NewCache(load LoaderFunc, opts ...CacheOption) *Cache {
	c := &Cache{
		load:    load,
		logger:  slog.Default(),
		entries: make(map[string]*Dataset),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the dataset for path, loading it at most once.
// ctx only bounds the wait; a load already in flight keeps running for other callers.
func (c *Cache) Get(ctx context.Context, path string) (*Dataset, error) {
	key := cacheKey(path)

	c.mu.RLock()
	ds, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		c.logger.Debug("dataset cache hit", "source", key, "dataset_id", ds.ID)
		if c.observer != nil {
			c.observer.CacheHit(key)
		}
		return ds, nil
	}

	if c.observer != nil {
		c.observer.CacheMiss(key)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		start := time.Now()
		ds, err := c.load(context.WithoutCancel(ctx), key)
		if c.observer != nil {
			c.observer.ObserveLoad(key, time.Since(start), ds, err)
		}
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = ds
		}
		c.mu.Unlock()
		return ds, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the cached dataset for path without loading.
func (c *Cache) Peek(path string) (*Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.entries[cacheKey(path)]
	return ds, ok
}

// Invalidate drops the entry for path. It reports whether one existed.
// A load in flight when Invalidate is called does not populate the cache.
func (c *Cache) Invalidate(path string) bool {
	key := cacheKey(path)

	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.gen++
	c.mu.Unlock()

	c.group.Forget(key)
	c.logger.Info("dataset cache invalidated", "source", key, "existed", ok)
	return ok
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = make(map[string]*Dataset)
	c.gen++
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
	}
	c.logger.Info("dataset cache reset", "entries", len(keys))
}

// Len returns the number of cached datasets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(path string) string {
	return filepath.Clean(path)
}
