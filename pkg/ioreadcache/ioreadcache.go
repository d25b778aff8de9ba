// Package ioreadcache is the per-worker bounded cache of open media
// readers (spec.md §4.B): each info/thumbnail/waveform worker owns one
// instance, never shared across goroutines, so unlike pkg/cache it
// needs no internal locking.
package ioreadcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Reader is anything a worker keeps open across requests for the same
// path: a decoder, file handle, or similar. Closed on eviction.
type Reader interface {
	Close() error
}

// DefaultSize is the number of readers a worker keeps open before
// least-recently-used ones are closed and discarded.
const DefaultSize = 16

// Cache holds at most one open Reader per fingerprint, evicting and
// closing the least-recently-used entry once full.
type Cache struct {
	lru *lru.Cache[string, Reader]
	max int
}

// New returns a Cache with the given capacity, or DefaultSize if size
// is not positive.
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	l, _ := lru.NewWithEvict[string, Reader](size, func(_ string, r Reader) {
		r.Close()
	})
	return &Cache{lru: l, max: size}
}

// Resize changes the capacity, closing any readers evicted by a
// shrink. Used by the save pipeline (spec.md §4.I step 2) to grow the
// reader cache it was constructed with to a large fixed bound for the
// duration of a range save, then shrink it back afterwards; that cache
// is its own instance, separate from the thumbnail workers' caches.
func (c *Cache) Resize(size int) {
	if size <= 0 {
		size = DefaultSize
	}
	c.lru.Resize(size)
	c.max = size
}

// GetMax returns the current capacity.
func (c *Cache) GetMax() int {
	return c.max
}

// Get returns the cached reader for key, promoting it to
// most-recently-used.
func (c *Cache) Get(key string) (Reader, bool) {
	return c.lru.Get(key)
}

// Add inserts reader under key. If key is already present the old
// reader is closed first: golang-lru replaces values for an existing
// key in place without running the eviction callback, so an overwrite
// would otherwise leak the previous reader.
func (c *Cache) Add(key string, reader Reader) {
	if old, ok := c.lru.Peek(key); ok {
		old.Close()
	}
	c.lru.Add(key, reader)
}

// Remove closes and discards the reader under key, if present. Used
// when a path is known to have changed on disk and its reader is no
// longer valid.
func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

// Close closes every reader currently held and empties the cache. A
// worker calls this on shutdown.
func (c *Cache) Close() {
	c.lru.Purge()
}

// Len returns the number of readers currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}
