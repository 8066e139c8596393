package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	link string
	ts   time.Time
}

// Cache remembers recently ingested canonical links so the polling loop can
// skip store lookups for entries it has just processed. It is advisory only:
// the store's link uniqueness remains the real duplicate guarantee.
type Cache struct {
	mu       sync.Mutex
	links    map[string]time.Time
	order    []entry
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache bounded by capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		links:    make(map[string]time.Time, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Seen reports whether the link was remembered inside the ttl window.
func (c *Cache) Seen(link string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ts, ok := c.links[link]
	return ok && now.Sub(ts) <= c.ttl
}

// Remember records that the link was just ingested.
func (c *Cache) Remember(link string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.links[link] = now
	c.order = append(c.order, entry{link: link, ts: now})
	c.compact(now)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.links) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if ts, ok := c.links[oldest.link]; ok && ts == oldest.ts {
			delete(c.links, oldest.link)
		}
	}
}
