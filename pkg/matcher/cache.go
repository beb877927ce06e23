// ------------------------------------------------------
// FuzzKit - Ranking Cache
// LRU cache for repeated needle rankings
// ------------------------------------------------------

package matcher

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache of ranked matches keyed by algorithm, needle,
// and candidate pool. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
}

// cacheEntry holds one cached ranking along with the prefilter count
// recorded when it was produced, so cache hits report it faithfully.
type cacheEntry struct {
	key         string
	matches     []Match
	prefiltered int
}

// NewCache creates a new LRU cache holding at most maxSize rankings.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Cache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get retrieves the cached ranking for a key. The boolean reports
// whether the key was present; a hit promotes the entry to most
// recently used and also returns the ranking's prefilter count.
func (c *Cache) Get(key string) ([]Match, int, bool) {
	// Misses are the common case; check them under the read lock first.
	c.mu.RLock()
	_, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check: the entry may have been evicted between the locks.
	elem, ok := c.items[key]
	if !ok {
		return nil, 0, false
	}

	c.lru.MoveToFront(elem)

	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry

	// Return a copy so callers cannot mutate the cached ranking.
	return copyMatches(entry.matches), entry.prefiltered, true
}

// Set stores a ranking for a key, evicting the least recently used
// entry when the cache is full.
func (c *Cache) Set(key string, matches []Match, prefiltered int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
		entry.matches = copyMatches(matches)
		entry.prefiltered = prefiltered
		return
	}

	if c.lru.Len() >= c.maxSize {
		c.evictOldest()
	}

	elem := c.lru.PushFront(&cacheEntry{
		key:         key,
		matches:     copyMatches(matches),
		prefiltered: prefiltered,
	})
	c.items[key] = elem
}

// Delete removes a specific key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached rankings.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// evictOldest removes the least recently used entry.
// Must be called with the write lock held.
func (c *Cache) evictOldest() {
	if elem := c.lru.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// removeElement removes an element from both the list and the index.
// Must be called with the write lock held.
func (c *Cache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
	delete(c.items, entry.key)
}

// copyMatches creates an independent copy of a ranking.
func copyMatches(matches []Match) []Match {
	copied := make([]Match, len(matches))
	copy(copied, matches)
	return copied
}
