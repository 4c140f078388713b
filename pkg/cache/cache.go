// Package cache provides a thread-safe LRU cache for compiled gocalc programs.
//
// The evaluator uses it when caching is enabled, and the REPL and the WASI
// entrypoint share one across inputs so that a line typed twice, or the same
// request source sent repeatedly, is tokenized and parsed only once.
//
// Compiled programs are immutable, so a cached *types.Expression can be
// evaluated by many goroutines at once against different environments.
//
// # Example
//
//	c := cache.New(128)
//	prog, err := c.GetOrCompile("[x = 2; x * x]", func() (*types.Expression, error) {
//	    return parser.Compile("[x = 2; x * x]")
//	})
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/gocalc/pkg/types"
)

// DefaultCapacity is used by New when given a non-positive capacity.
const DefaultCapacity = 256

type entry struct {
	source string
	prog   *types.Expression
}

// Cache is an LRU cache of compiled programs keyed by source text.
// Once the capacity is reached, the least recently used program is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List
	items    map[string]*list.Element

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Len      int
	Capacity int
}

// New creates a cache holding up to capacity programs.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the program compiled from source, marking it most recently used.
func (c *Cache) Get(source string) (*types.Expression, bool) {
	c.mu.RLock()
	el, ok := c.items[source]
	atFront := ok && c.order.Front() == el
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if !atFront {
		// Re-check under the write lock: the entry may have been evicted meanwhile.
		c.mu.Lock()
		el, ok = c.items[source]
		if ok {
			c.order.MoveToFront(el)
		}
		c.mu.Unlock()
		if !ok {
			c.misses.Add(1)
			return nil, false
		}
	}

	c.hits.Add(1)
	return el.Value.(*entry).prog, true
}

// Set stores prog under source, evicting the least recently used program
// when the cache is full.
func (c *Cache) Set(source string, prog *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[source]; ok {
		el.Value.(*entry).prog = prog
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictLocked()
	}
	c.items[source] = c.order.PushFront(&entry{source: source, prog: prog})
}

// GetOrCompile returns the cached program for source or calls compile and
// caches its result. Failed compilations are not cached.
func (c *Cache) GetOrCompile(source string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if prog, ok := c.Get(source); ok {
		return prog, nil
	}
	prog, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(source, prog)
	return prog, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Capacity returns the maximum number of cached programs.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Len:      c.Len(),
		Capacity: c.capacity,
	}
}

// Invalidate removes the program compiled from source, if present.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[source]; ok {
		c.order.Remove(el)
		delete(c.items, source)
	}
}

// Clear removes every program and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
	c.hits.Store(0)
	c.misses.Store(0)
}

// evictLocked drops the least recently used program. c.mu must be held.
func (c *Cache) evictLocked() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).source)
}
