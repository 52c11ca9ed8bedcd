// Package cache remembers the last payload published on every topic so that
// clients joining mid-game can fetch the current state.
// It uses patrickmn/go-cache for TTL-based expiry of topics that went quiet.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is the last payload of a topic.
type Entry struct {
	Code        int       `json:"code"`
	Data        any       `json:"data"`
	PublishedAt time.Time `json:"published_at"`
}

// Cache holds the last Entry per topic.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache. ttl is how long a topic is remembered after its last
// publish; cleanupInterval is how often expired topics are evicted.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(ttl, cleanupInterval),
	}
}

// Put records data as the latest payload of topic.
func (c *Cache) Put(topic string, code int, data any) {
	c.store.Set(topic, Entry{Code: code, Data: data, PublishedAt: time.Now()}, gocache.DefaultExpiration)
}

// Last returns the latest entry of topic.
func (c *Cache) Last(topic string) (Entry, bool) {
	v, ok := c.store.Get(topic)
	if !ok {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	return e, ok
}

// Forget drops a topic.
func (c *Cache) Forget(topic string) {
	c.store.Delete(topic)
}

// Clear drops every topic.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Topics returns the number of remembered topics.
func (c *Cache) Topics() int {
	return c.store.ItemCount()
}

// Stats is reported by the health endpoint.
type Stats struct {
	Topics int `json:"topics"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{Topics: c.store.ItemCount()}
}
