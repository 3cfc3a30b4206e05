// Package cache implements the bounded-memory LRU block cache shared across
// reader instances. It is keyed by (file UUID, block index) so that a single
// cache can safely serve blocks decompressed from more than one open file.
package cache

import (
	"container/list"
	"sync"

	"github.com/biomxt/biomxt/shared"
)

// DefaultMemoryLimit is the ceiling a cache is given when constructed without
// any knowledge of a particular file (128 MiB).
const DefaultMemoryLimit = 128 * 1024 * 1024

// KeyOverhead is the fixed bookkeeping cost charged against the memory limit
// for every cached entry, independent of its data size. It stands in for the
// source implementation's sizeof(CacheEntry), and is also what callers sizing
// a cache ahead of time (e.g. a reader's default ceiling) should add per
// expected entry.
const KeyOverhead = 24 // uuid.UUID (16) + block index (4), rounded up

type entry struct {
	key  shared.BlockKey
	data []byte
}

func (e *entry) size() int {
	return KeyOverhead + cap(e.data)
}

// BlockCache is a strict LRU cache of decompressed block bytes, guarded by a
// single reader-writer lock: observers (GetMemoryLimit, GetMemoryUsed) take a
// shared lock, mutators (Insert, GetBlockData, SetMemoryLimit) take an
// exclusive lock, since a lookup also updates recency.
type BlockCache struct {
	mu sync.RWMutex

	order *list.List // front = most recently used
	index map[shared.BlockKey]*list.Element

	memoryUsed  int
	memoryLimit int
}

// New creates a cache with the default 128 MiB ceiling.
func New() *BlockCache {
	return NewWithLimit(DefaultMemoryLimit)
}

// NewWithLimit creates a cache with an explicit byte ceiling.
func NewWithLimit(limitBytes int) *BlockCache {
	return &BlockCache{
		order:       list.New(),
		index:       make(map[shared.BlockKey]*list.Element),
		memoryLimit: limitBytes,
	}
}

// GetMemoryLimit returns the current ceiling in bytes.
func (c *BlockCache) GetMemoryLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memoryLimit
}

// GetMemoryUsed returns the bytes currently accounted for by live entries.
func (c *BlockCache) GetMemoryUsed() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memoryUsed
}

// SetMemoryLimit adjusts the ceiling, evicting least-recently-used entries
// immediately until the cache fits under the new limit.
func (c *BlockCache) SetMemoryLimit(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memoryLimit = bytes
	c.evictUntilFit()
}

// Insert moves data into the cache under key, taking ownership of the slice.
// If key was already present, the prior entry is removed first. If the new
// entry alone would exceed the memory limit, it is silently dropped instead
// of being inserted. Otherwise least-recently-used entries are evicted until
// it fits, and the new entry is installed at the most-recently-used end.
func (c *BlockCache) Insert(key shared.BlockKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newEntry := &entry{key: key, data: data}
	if newEntry.size() > c.memoryLimit {
		return
	}

	if el, ok := c.index[key]; ok {
		c.memoryUsed -= el.Value.(*entry).size()
		c.order.Remove(el)
		delete(c.index, key)
	}

	c.evictUntilEnough(newEntry.size())

	el := c.order.PushFront(newEntry)
	c.index[key] = el
	c.memoryUsed += newEntry.size()
}

// GetBlockData looks up key. On a hit, it promotes the entry to
// most-recently-used and copies size bytes starting at offset into dst,
// growing dst if it is smaller than size, then returns true. On a miss, or
// if [offset, offset+size) exceeds the entry's length, it returns false and
// leaves dst untouched.
func (c *BlockCache) GetBlockData(key shared.BlockKey, dst *[]byte, offset, size int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return false
	}
	c.order.MoveToFront(el)

	data := el.Value.(*entry).data
	if offset+size > len(data) {
		return false
	}
	if len(*dst) < size {
		*dst = make([]byte, size)
	}
	copy((*dst)[:size], data[offset:offset+size])
	return true
}

// evictUntilFit drops least-recently-used entries until memoryUsed is at or
// below memoryLimit.
func (c *BlockCache) evictUntilFit() {
	for c.memoryUsed > c.memoryLimit && c.order.Len() > 0 {
		c.evictOne()
	}
}

// evictUntilEnough drops least-recently-used entries until an incoming entry
// of incomingSize bytes would fit without exceeding memoryLimit.
func (c *BlockCache) evictUntilEnough(incomingSize int) {
	for c.memoryUsed+incomingSize > c.memoryLimit && c.order.Len() > 0 {
		c.evictOne()
	}
}

func (c *BlockCache) evictOne() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.memoryUsed -= e.size()
	delete(c.index, e.key)
	c.order.Remove(back)
}
