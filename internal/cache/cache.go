// Package cache provides a generic value cache bounded by a total cost
// budget. It memoizes derived byproducts (resolved poster URLs) that are
// cheap to hold but wasteful to rederive on every access.
package cache

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int
}

// Cache is a key/value cache with a total-cost limit and LRU eviction.
// Eviction is transparent: callers only ever observe Get misses.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	maxCost int
	cost    int
	order   *list.List
	items   map[K]*list.Element
}

// New creates a cache that never holds more than maxCost total cost.
func New[K comparable, V any](maxCost int) *Cache[K, V] {
	return &Cache[K, V]{
		maxCost: maxCost,
		order:   list.New(),
		items:   make(map[K]*list.Element),
	}
}

// Get returns the cached value for key, if present.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Put stores value under key with the given cost, evicting least recently
// used entries until the budget holds. A value whose cost alone exceeds the
// budget is silently not stored.
func (c *Cache[K, V]) Put(key K, value V, cost int) {
	if cost > c.maxCost {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		c.cost += cost - e.cost
		e.value = value
		e.cost = cost
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&entry[K, V]{key: key, value: value, cost: cost})
		c.items[key] = el
		c.cost += cost
	}

	for c.cost > c.maxCost {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		e := oldest.Value.(*entry[K, V])
		c.order.Remove(oldest)
		delete(c.items, e.key)
		c.cost -= e.cost
	}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cost returns the summed cost of all cached entries.
func (c *Cache[K, V]) Cost() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cost
}
