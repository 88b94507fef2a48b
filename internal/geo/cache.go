package geo

import "context"

// Cache memoizes a GeocodeFunc for the lifetime of the process. Keys are the
// exact input text; entries are never evicted and failed lookups are not
// stored. A Cache is not safe for concurrent use.
type Cache struct {
	geocode GeocodeFunc
	entries map[string]string
	hits    int
	misses  int
}

// NewCache wraps geocode with memoization.
func NewCache(geocode GeocodeFunc) *Cache {
	return &Cache{
		geocode: geocode,
		entries: make(map[string]string),
	}
}

// Geocode returns the memoized description of text, calling the wrapped
// provider only on a miss. It satisfies GeocodeFunc.
func (c *Cache) Geocode(ctx context.Context, text string) (string, error) {
	if description, ok := c.entries[text]; ok {
		c.hits++
		return description, nil
	}
	c.misses++

	description, err := c.geocode(ctx, text)
	if err != nil {
		return "", err
	}
	c.entries[text] = description
	return description, nil
}

// Len returns the number of memoized entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
