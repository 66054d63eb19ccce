package util

import (
	"container/list"
	"sync"
)

type (
	// LRUCache holds at most maxSize values, evicting the least recently
	// used entry first. A maxSize of zero or less disables caching
	LRUCache[K comparable, V any] struct {
		cache   map[K]*list.Element
		fills   map[K]*cacheFill
		lru     *list.List
		maxSize int
		mu      sync.Mutex
	}

	// cacheFill tracks constructions in flight for a key. A Remove during
	// the fill marks it stale so its result is returned but never cached
	cacheFill struct {
		pending int
		stale   bool
	}

	// Constructor produces a value for a cache miss
	Constructor[V any] func() (V, error)

	cacheEntry[K comparable, V any] struct {
		key   K
		value V
	}
)

func NewLRUCache[K comparable, V any](maxSize int) *LRUCache[K, V] {
	return &LRUCache[K, V]{
		cache:   map[K]*list.Element{},
		fills:   map[K]*cacheFill{},
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached value for key, calling create on a miss. Failed
// constructions are not cached, nor are those overlapped by a Remove of
// the same key
func (c *LRUCache[K, V]) Get(key K, create Constructor[V]) (V, error) {
	if c.maxSize <= 0 {
		return create()
	}

	c.mu.Lock()
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		c.mu.Unlock()
		return elem.Value.(*cacheEntry[K, V]).value, nil
	}
	fill := c.startFill(key)
	c.mu.Unlock()

	value, err := create()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endFill(key, fill)

	if err != nil {
		var zero V
		return zero, err
	}
	if fill.stale {
		return value, nil
	}

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry[K, V]).value, nil
	}

	elem := c.lru.PushFront(&cacheEntry[K, V]{key: key, value: value})
	c.cache[key] = elem
	if c.lru.Len() > c.maxSize {
		c.evictLast()
	}
	return value, nil
}

// Remove drops key from the cache, reporting whether it was present. Any
// construction for key still in flight will not be cached
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fill, ok := c.fills[key]; ok {
		fill.stale = true
		delete(c.fills, key)
	}

	elem, ok := c.cache[key]
	if !ok {
		return false
	}
	c.lru.Remove(elem)
	delete(c.cache, key)
	return true
}

func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *LRUCache[K, V]) startFill(key K) *cacheFill {
	fill, ok := c.fills[key]
	if !ok {
		fill = &cacheFill{}
		c.fills[key] = fill
	}
	fill.pending++
	return fill
}

func (c *LRUCache[K, V]) endFill(key K, fill *cacheFill) {
	fill.pending--
	if fill.pending == 0 && c.fills[key] == fill {
		delete(c.fills, key)
	}
}

func (c *LRUCache[K, V]) evictLast() {
	back := c.lru.Back()
	if back != nil {
		c.lru.Remove(back)
		delete(c.cache, back.Value.(*cacheEntry[K, V]).key)
	}
}
