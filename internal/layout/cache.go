package layout

// cacheKey is the C spelling of a type. Types sharing a spelling share a
// layout.
type cacheKey string

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

type cache struct {
	byKey map[cacheKey]*cacheEntry
}

func newCache() *cache {
	return &cache{byKey: make(map[cacheKey]*cacheEntry, 64)}
}

func (c *cache) get(k cacheKey) (*cacheEntry, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.byKey[k]
	return e, ok
}

func (c *cache) put(k cacheKey, e *cacheEntry) {
	if c == nil {
		return
	}
	if e == nil {
		delete(c.byKey, k)
		return
	}
	c.byKey[k] = e
}
