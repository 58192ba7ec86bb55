package cache

import (
	"bytes"
	"hash/maphash"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/vecscan/internal/mem"
	"github.com/hupe1980/vecscan/internal/topk"
	"github.com/hupe1980/vecscan/resource"
)

const entryOverhead = 64

type entry struct {
	n      int
	query  []float32
	result topk.Result
	size   int64
}

// ResultCache maps query digests to selected results.
// It is safe for concurrent use.
type ResultCache struct {
	mu      sync.Mutex
	seed    maphash.Seed
	entries map[uint64]*entry
	size    int64
	rc      *resource.Controller

	hits     atomic.Int64
	misses   atomic.Int64
	rejected atomic.Int64
}

// New creates an empty cache. rc may be nil.
func New(rc *resource.Controller) *ResultCache {
	return &ResultCache{
		seed:    maphash.MakeSeed(),
		entries: make(map[uint64]*entry),
		rc:      rc,
	}
}

// Key returns the digest of query.
func (c *ResultCache) Key(query []float32) uint64 {
	return maphash.Bytes(c.seed, mem.Float32Bytes(query))
}

// Get returns a copy of the cached result for (key, query, n).
func (c *ResultCache) Get(key uint64, query []float32, n int) (topk.Result, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.n == n && sameQuery(e.query, query) {
		res := e.result.Clone()
		c.mu.Unlock()
		c.hits.Add(1)
		return res, true
	}
	c.mu.Unlock()
	c.misses.Add(1)
	return topk.Result{}, false
}

// Put stores res under key, replacing and releasing any previous entry for
// the key. The cache keeps its own copies of query and res.
// It reports whether the entry was admitted.
func (c *ResultCache) Put(key uint64, query []float32, n int, res topk.Result) bool {
	e := &entry{
		n:      n,
		query:  append([]float32(nil), query...),
		result: res.Clone(),
	}
	e.size = entryOverhead + int64(len(query))*4 + int64(res.Len())*12

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.size -= old.size
		c.rc.ReleaseMemory(old.size)
	}

	if !c.rc.TryAcquireMemory(e.size) {
		c.rejected.Add(1)
		return false
	}

	c.entries[key] = e
	c.size += e.size
	return true
}

// Reset drops every entry and releases its memory.
func (c *ResultCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return
	}
	c.rc.ReleaseMemory(c.size)
	c.entries = make(map[uint64]*entry)
	c.size = 0
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Size returns the accounted size of all entries in bytes.
func (c *ResultCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit and miss counts.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Rejected returns how many entries were refused by the memory limit.
func (c *ResultCache) Rejected() int64 {
	return c.rejected.Load()
}

func sameQuery(a, b []float32) bool {
	return len(a) == len(b) && bytes.Equal(mem.Float32Bytes(a), mem.Float32Bytes(b))
}
