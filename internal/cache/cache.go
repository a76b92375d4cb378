// Package cache holds generated narratives so repeated requests within
// the TTL never re-invoke the generator. One mutex guards the backing
// map and the LRU list; the key space (region x month x horizon x mode)
// is small, so TTL expiry is the bound that matters in practice.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/droughtguard/droughtguard/internal/models"
)

// DefaultTTL is how long a narrative stays servable (24 hours).
const DefaultTTL = 86400 * time.Second

// Key identifies one generated narrative.
type Key struct {
	Region  string
	Month   string // "YYYY/MM"
	Horizon int
	Mode    string // "explain" or "brief"
}

type entry struct {
	key       Key
	payload   models.NarrativePayload
	expiresAt time.Time

	prev *entry
	next *entry
}

// Cache is a thread-safe TTL cache with an optional entry-count bound
// evicted least-recently-used. Expired entries are dropped lazily on
// the access that observes them.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
	maxEntries int    // 0 means unbounded
	clock      clockwork.Clock
}

func New(maxEntries int) *Cache {
	return NewWithClock(maxEntries, clockwork.NewRealClock())
}

// NewWithClock injects the time source so expiry is testable without
// sleeping.
func NewWithClock(maxEntries int, clock clockwork.Clock) *Cache {
	return &Cache{
		entries:    make(map[Key]*entry),
		maxEntries: maxEntries,
		clock:      clock,
	}
}

// Get returns the payload for key, or ok=false if unseen or expired.
// An expired entry is evicted on this observation.
func (c *Cache) Get(key Key) (models.NarrativePayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return models.NarrativePayload{}, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.remove(e)
		delete(c.entries, key)
		return models.NarrativePayload{}, false
	}
	c.moveToFront(e)
	return e.payload, true
}

// Set stores payload under key with the default TTL, overwriting any
// existing entry unconditionally.
func (c *Cache) Set(key Key, payload models.NarrativePayload) {
	c.SetTTL(key, payload, DefaultTTL)
}

// SetTTL stores payload with an explicit TTL.
func (c *Cache) SetTTL(key Key, payload models.NarrativePayload, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(ttl)

	if e, ok := c.entries[key]; ok {
		e.payload = payload
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, payload: payload, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

// Size returns the number of stored entries, expired or not.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
	c.head = nil
	c.tail = nil
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *Cache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *Cache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
