// Package cache implements the process-wide Thumbnail Cache (spec.md
// §4.A): a thread-safe LRU keyed by canonical request fingerprints,
// partitioned by entry kind but sharing one configurable capacity.
package cache

import (
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Triangle is one filled quad (two triangles) of a waveform mesh, in
// the output's local coordinate space: x in [0,w), y in [0,h].
type Triangle struct {
	X0, Y0, X1, Y1 float32
}

// WaveformMesh is the output of a waveform request: a flat list of
// filled quads, one per output column that wasn't degenerate
// (spec.md §4.D waveform worker specifics).
type WaveformMesh struct {
	Quads []Triangle
}

// RasterImage is a fixed-size RGBA8 thumbnail readback (spec.md §4.D:
// "always RGBA8 regardless of source bit depth").
type RasterImage struct {
	Image *image.RGBA
}

// Entry is the tagged union a cache slot holds. Exactly one of the
// three fields representing a kind is populated.
type Entry struct {
	Info     any // *ioinfo.IOInfo; kept as `any` to avoid an import cycle
	Raster   *RasterImage
	Waveform *WaveformMesh
}

// Partition names the three logical stores sharing the cache's
// capacity (spec.md §4.A).
type Partition int

// Partitions.
const (
	PartitionInfo Partition = iota
	PartitionThumbnail
	PartitionWaveform
)

// record is what each partition actually stores: the caller's Entry
// plus a stamp from Cache.clock, so evictToFit can rank recency across
// partitions (golang-lru's own recency order is only valid within a
// single instance).
type record struct {
	entry   Entry
	touched uint64
}

// Cache is the shared LRU store. All methods are safe for concurrent
// use from arbitrary goroutines; no method blocks on I/O, so readers
// never wait longer than one entry lookup (spec.md §4.A properties).
type Cache struct {
	mu         sync.Mutex
	partitions map[Partition]*lru.Cache[string, record]
	max        int    // total capacity shared across all partitions
	clock      uint64 // monotonic touch counter, bumped on every access
}

// New returns a Cache with the given total capacity shared across all
// three partitions.
func New(max int) *Cache {
	c := &Cache{
		partitions: make(map[Partition]*lru.Cache[string, record], 3),
		max:        max,
	}
	for _, p := range []Partition{PartitionInfo, PartitionThumbnail, PartitionWaveform} {
		// Each partition gets the full capacity as an upper bound; the
		// facade enforces the *shared* budget in evictToFit, called
		// under c.mu after every Add.
		l, _ := lru.New[string, record](partitionCapacity(max))
		c.partitions[p] = l
	}
	return c
}

// tick advances and returns the touch counter. Caller must hold c.mu.
func (c *Cache) tick() uint64 {
	c.clock++
	return c.clock
}

// partitionCapacity never returns less than 1: a zero-capacity
// hashicorp/golang-lru instance would reject every insert outright,
// which would make SetMax(0) behave like a permanently broken cache
// instead of an aggressively-evicting one.
func partitionCapacity(max int) int {
	if max < 1 {
		return 1
	}
	return max
}

// Add inserts or replaces entry under key, promoting it to
// most-recently-used, then evicts least-recently-used entries (across
// all partitions) until the total size is within capacity.
func (c *Cache) Add(partition Partition, key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.partitions[partition].Add(key, record{entry: entry, touched: c.tick()})
	c.evictToFit()
}

// Get returns the entry for key in partition, promoting it to
// most-recently-used, and whether it was present.
func (c *Cache) Get(partition Partition, key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.partitions[partition].Get(key)
	if !ok {
		return Entry{}, false
	}
	r.touched = c.tick()
	c.partitions[partition].Add(key, r)
	return r.entry, true
}

// Contains reports whether key is present in partition without
// affecting recency.
func (c *Cache) Contains(partition Partition, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.partitions[partition].Contains(key)
}

// Invalidate removes key from partition, forcing the next request for
// it to re-fetch (spec.md §3 "a client may poison an option to force
// re-fetch").
func (c *Cache) Invalidate(partition Partition, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.partitions[partition].Remove(key)
}

// SetMax adjusts the shared capacity, evicting immediately if the new
// max is smaller than the current occupancy (testable property 5:
// "cache size <= configured max after every add").
func (c *Cache) SetMax(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.max = n
	for _, p := range c.partitions {
		p.Resize(partitionCapacity(n))
	}
	c.evictToFit()
}

// GetMax returns the current shared capacity.
func (c *Cache) GetMax() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

// GetPercentage returns the occupied fraction of the shared capacity,
// in [0,1].
func (c *Cache) GetPercentage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.max <= 0 {
		return 1
	}
	return float64(c.size()) / float64(c.max)
}

// size returns total entries across all partitions. Caller must hold
// c.mu.
func (c *Cache) size() int {
	total := 0
	for _, p := range c.partitions {
		total += p.Len()
	}
	return total
}

// evictToFit drops the globally-least-recently-touched entry, one at a
// time, until total size <= max. golang-lru's recency order is only
// valid within a single partition, so cross-partition ranking instead
// compares each partition's GetOldest() by its Cache.clock stamp: that
// stamp is assigned on every Add/Get, in lockstep with the
// partition-local LRU order, so a partition's oldest record is also
// its globally-oldest candidate. Caller must hold c.mu.
func (c *Cache) evictToFit() {
	for c.size() > c.max && c.max >= 0 {
		var oldestPartition Partition
		var oldestKey string
		var oldestTouched uint64
		found := false
		for p, l := range c.partitions {
			key, r, ok := l.GetOldest()
			if !ok {
				continue
			}
			if !found || r.touched < oldestTouched {
				oldestPartition = p
				oldestKey = key
				oldestTouched = r.touched
				found = true
			}
		}
		if !found {
			return
		}
		c.partitions[oldestPartition].Remove(oldestKey)
	}
}
