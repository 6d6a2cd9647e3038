// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// AnalyzeFunc computes the cacheable value for key at the given graph
// generation. Used by both GraphCache.GetOrCompute and the hot-path
// precomputer that warms frequently-requested keys ahead of request time.
type AnalyzeFunc func(ctx context.Context, key string, generation uint64) (interface{}, error)

// GraphCacheOptions configures GraphCache limits.
type GraphCacheOptions struct {
	// MaxEntries is the maximum number of live entries before LRU eviction
	// kicks in. Entries with a non-zero reference count are never evicted.
	MaxEntries int

	// MaxAge is how long a successfully built entry remains valid before a
	// fresh GetOrCompute call rebuilds it. Zero means entries never expire
	// by age (only by explicit invalidation or generation mismatch).
	MaxAge time.Duration

	// ErrorCacheTTL is how long a failed build's error is cached to avoid
	// retry storms against a resolver or LSP backend that is down.
	ErrorCacheTTL time.Duration
}

// DefaultGraphCacheOptions returns sensible defaults.
func DefaultGraphCacheOptions() GraphCacheOptions {
	return GraphCacheOptions{
		MaxEntries:    4096,
		MaxAge:        10 * time.Minute,
		ErrorCacheTTL: 5 * time.Second,
	}
}

// GraphCacheOption is a functional option for NewGraphCache.
type GraphCacheOption func(*GraphCacheOptions)

// WithMaxEntries overrides the LRU capacity.
func WithMaxEntries(n int) GraphCacheOption {
	return func(o *GraphCacheOptions) { o.MaxEntries = n }
}

// WithMaxAge overrides how long a built entry stays valid.
func WithMaxAge(d time.Duration) GraphCacheOption {
	return func(o *GraphCacheOptions) { o.MaxAge = d }
}

// WithErrorCacheTTL overrides how long a failed build is cached.
func WithErrorCacheTTL(d time.Duration) GraphCacheOption {
	return func(o *GraphCacheOptions) { o.ErrorCacheTTL = d }
}

type cacheEntry struct {
	key        string
	value      interface{}
	generation uint64
	err        error
	builtAt    time.Time
	refCount   int32
	elem       *list.Element
}

// GraphCache is a generation-aware, reference-counted, LRU-evicted cache
// keyed by symbol or snapshot identity. The coordinator uses it to share
// one ResolveCallEdges pass among callers that land on an unchanged
// snapshot digest and generation.
//
// Concurrent GetOrCompute calls for the same key are deduplicated via
// singleflight so a cache stampede (many callers requesting the same
// uncached key at once) triggers exactly one AnalyzeFunc invocation.
//
// Thread Safety: safe for concurrent use.
type GraphCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lru     *list.List
	opts    GraphCacheOptions
	group   singleflight.Group
}

// NewGraphCache creates an empty GraphCache.
func NewGraphCache(opts ...GraphCacheOption) *GraphCache {
	o := DefaultGraphCacheOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &GraphCache{
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
		opts:    o,
	}
}

// Get returns the cached value for key if present and not expired by age,
// without triggering a build. The second return is false on miss.
func (c *GraphCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.err != nil {
		return nil, false
	}
	if c.opts.MaxAge > 0 && time.Since(e.builtAt) > c.opts.MaxAge {
		return nil, false
	}
	c.lru.MoveToFront(e.elem)
	return e.value, true
}

// GetOrCompute returns the cached value for key at generation, building it
// via fn if absent, stale (generation mismatch), or aged out. A cached
// build failure is returned as *ErrBuildFailed until RetryAt passes.
func (c *GraphCache) GetOrCompute(ctx context.Context, key string, generation uint64, fn AnalyzeFunc) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		fresh := e.generation == generation &&
			(c.opts.MaxAge == 0 || time.Since(e.builtAt) <= c.opts.MaxAge)
		if fresh {
			if e.err == nil {
				c.lru.MoveToFront(e.elem)
				c.mu.Unlock()
				return e.value, nil
			}
			if bf, ok := e.err.(*ErrBuildFailed); ok && !bf.CanRetry() {
				c.mu.Unlock()
				return nil, bf
			}
		}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		val, buildErr := fn(ctx, key, generation)
		c.store(key, val, generation, buildErr)
		return val, buildErr
	})
	return v, err
}

func (c *GraphCache) store(key string, value interface{}, generation uint64, buildErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cached error
	if buildErr != nil {
		now := time.Now()
		cached = &ErrBuildFailed{Err: buildErr, FailedAt: now, RetryAt: now.Add(c.opts.ErrorCacheTTL)}
	}

	if e, ok := c.entries[key]; ok {
		e.value, e.generation, e.err, e.builtAt = value, generation, cached, time.Now()
		c.lru.MoveToFront(e.elem)
		return
	}

	e := &cacheEntry{key: key, value: value, generation: generation, err: cached, builtAt: time.Now()}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.evictIfNeeded()
}

// evictIfNeeded drops least-recently-used zero-refcount entries until the
// cache is back under MaxEntries. Must be called with mu held.
func (c *GraphCache) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 {
		return
	}
	for len(c.entries) > c.opts.MaxEntries {
		elem := c.lru.Back()
		for elem != nil {
			e := elem.Value.(*cacheEntry)
			if e.refCount == 0 {
				c.lru.Remove(elem)
				delete(c.entries, e.key)
				break
			}
			elem = elem.Prev()
		}
		if elem == nil {
			return // every remaining entry is pinned
		}
	}
}

// Acquire increments key's reference count, pinning it against eviction.
// Returns false if key is not cached.
func (c *GraphCache) Acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.refCount++
	return true
}

// Release decrements key's reference count. No-op if key is not cached or
// already at zero.
func (c *GraphCache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.refCount > 0 {
		e.refCount--
	}
}

// ForceInvalidate evicts key regardless of age, returning ErrCacheEntryInUse
// if it is currently referenced and ErrEntryNotFound if it is not cached.
func (c *GraphCache) ForceInvalidate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return ErrEntryNotFound
	}
	if e.refCount > 0 {
		return ErrCacheEntryInUse
	}
	c.lru.Remove(e.elem)
	delete(c.entries, key)
	return nil
}

// CacheStats summarizes GraphCache occupancy.
type CacheStats struct {
	Entries  int
	Capacity int
}

// Stats returns current cache occupancy.
func (c *GraphCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Capacity: c.opts.MaxEntries}
}
