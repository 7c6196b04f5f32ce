package memoize

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity is the number of entries a Cache holds when no
// WithCapacity option is given. The rewriter lowers this to 1 for
// functions whose key is the unit key (a zero-argument function has
// exactly one possible entry).
const DefaultCapacity = 1000

// config holds the resolved configuration for a Cache.
type config struct {
	capacity int
	ttl      time.Duration
}

// Option configures a Cache.
type Option func(*config)

func defaultConfig() config {
	return config{capacity: DefaultCapacity}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCapacity sets the maximum number of entries the cache holds. When
// full, the least recently used entry is evicted. Defaults to
// DefaultCapacity.
func WithCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// WithTTL sets the time-to-live for cached values. Entries older than d
// are treated as absent. A zero or negative d means no expiration, which
// is also the default.
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

// flight is one in-progress computation for a key. done is closed when
// the computation finishes (or unwinds); waiters read the other fields
// only after done is closed.
type flight[V any] struct {
	done     chan struct{}
	val      V
	present  bool
	err      error
	resolved bool
}

// Cache is a bounded, time-aware, single-flight memoization cache.
//
// Storage is an expirable LRU; eviction by capacity and expiration by TTL
// are entirely its concern. On top of it the Cache guarantees that at most
// one computation per key is in flight at a time: concurrent callers for
// the same missing key wait for the first caller's computation and observe
// its outcome. Failures and absences are delivered to the waiters of that
// flight but are never stored, so a later call computes again.
//
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mutex   sync.Mutex
	entries *expirable.LRU[K, V]
	flights map[K]*flight[V]
}

// New returns a new Cache.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	cfg := applyOptions(opts)
	return &Cache[K, V]{
		entries: expirable.NewLRU[K, V](cfg.capacity, nil, cfg.ttl),
		flights: make(map[K]*flight[V]),
	}
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.entries.Len()
}

// Contains reports whether a live (non-expired) entry exists for key. It
// does not count as a use for LRU ordering.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.entries.Contains(key)
}

// Purge removes all stored entries. In-flight computations are unaffected.
func (c *Cache[K, V]) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries.Purge()
}

// lookup returns the cached value for key, or registers a new flight for
// it. Exactly one of the returns is meaningful: if hit is true the value
// was cached; otherwise if existing is non-nil the caller must wait on it;
// otherwise created is the caller's own flight and the caller must run the
// computation and resolve it.
func (c *Cache[K, V]) lookup(key K) (val V, hit bool, existing, created *flight[V]) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if v, ok := c.entries.Get(key); ok {
		return v, true, nil, nil
	}
	if f, ok := c.flights[key]; ok {
		return val, false, f, nil
	}
	f := &flight[V]{done: make(chan struct{})}
	c.flights[key] = f
	return val, false, nil, f
}

// finish removes the flight and, when store is true, stores f.val. The
// compute paths defer it so that a panicking computation never strands its
// waiters on an unclosed channel; in that case the flight stays unresolved
// and each waiter starts over.
func (c *Cache[K, V]) finish(key K, f *flight[V], store bool) {
	c.mutex.Lock()
	if store {
		c.entries.Add(key, f.val)
	}
	delete(c.flights, key)
	c.mutex.Unlock()
	close(f.done)
}
