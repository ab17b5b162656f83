package bulletin

import "sync"

type cacheEntry struct {
	data Data
	// doc is the parsed tree, kept so an explicit composition can be
	// validated on a hit without reading the file again. It is never handed
	// out.
	doc           map[string]any
	compositionID string
}

// Cache memoises successful loads by logical path. It never evicts; call
// Reset to clear it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	e.data = e.data.Clone()
	return e, true
}

func (c *Cache) put(key string, doc map[string]any, data Data, compositionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{data: data.Clone(), doc: doc, compositionID: compositionID}
}

// Len reports the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

var sharedCache = NewCache()

// ResetCache clears the process-wide cache shared by loaders that were not
// given their own.
func ResetCache() {
	sharedCache.Reset()
}
