package containers

import "sync"

// Cache memoizes container handles by name. There is no size bound or
// per-entry expiry; the cache is bounded by the tenant's container count
// and emptied only by an explicit Reset.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Container
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*Container),
	}
}

// Get returns the cached handle for name, or nil when absent.
func (c *Cache) Get(name string) *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[name]
}

// GetOrLoad returns the cached handle for name, running loader and storing
// its result on a miss. When two callers race on the same name the second
// one wins the map slot last written; both observe a handle for the name.
func (c *Cache) GetOrLoad(name string, loader func() (*Container, error)) (*Container, error) {
	if cached := c.Get(name); cached != nil {
		return cached, nil
	}

	loaded, err := loader()
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = loaded
	return loaded, nil
}

// Put stores a handle unconditionally.
func (c *Cache) Put(container *Container) {
	if container == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[container.Name] = container
}

// Reset clears all entries unconditionally. Used after structural changes
// that would otherwise serve stale handles.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Container)
}

// Len returns the number of cached handles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
