package readcache

import (
	"context"
	"errors"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// Keyspace groups cache entries that are invalidated together.
type Keyspace string

// The keyspaces of the library application.
const (
	KeyspaceBooks        Keyspace = "books"
	KeyspaceUsers        Keyspace = "users"
	KeyspaceReservations Keyspace = "reservations"
)

const (
	// DefaultSize is the number of entries kept when no size is configured.
	DefaultSize = 1024

	// MetricHits counts cache hits, labeled by query_type.
	MetricHits = "readcache_hits_total"

	// MetricMisses counts cache misses, labeled by query_type.
	MetricMisses = "readcache_misses_total"

	// MetricInvalidations counts keyspace invalidations, labeled by keyspace.
	MetricInvalidations = "readcache_invalidations_total"

	labelQueryType = "query_type"
	labelKeyspace  = "keyspace"

	logMsgDecodeFailed = "readcache: decoding cached value failed, dropping entry"
	logMsgEncodeFailed = "readcache: encoding value failed, not caching"
	logAttrKey         = "key"
	logAttrError       = "error"
)

var (
	// ErrInvalidSize is returned when the cache size is not positive.
	ErrInvalidSize = errors.New("cache size must be positive")

	// ErrNoKeyspaces is returned when a wrapper is created without any keyspace.
	ErrNoKeyspaces = errors.New("at least one keyspace is required")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type entry struct {
	generations map[Keyspace]uint64
	data        []byte
}

// Cache is a size-bounded LRU of encoded query results.
type Cache struct {
	mu               sync.Mutex
	entries          *lru.Cache
	generations      map[Keyspace]uint64
	metricsCollector reservations.MetricsCollector
	logger           reservations.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithMetrics sets the metrics collector for hit, miss, and invalidation counters.
func WithMetrics(collector reservations.MetricsCollector) Option {
	return func(c *Cache) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithLogger sets the logger for encoding problems.
func WithLogger(logger reservations.Logger) Option {
	return func(c *Cache) error {
		c.logger = logger
		return nil
	}
}

// New creates a Cache holding at most size entries.
func New(size int, options ...Option) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	cache := &Cache{
		entries:     entries,
		generations: make(map[Keyspace]uint64),
	}

	for _, option := range options {
		if err = option(cache); err != nil {
			return nil, err
		}
	}

	return cache, nil
}

// Invalidate drops every entry that depends on one of the keyspaces and bumps their generations.
func (c *Cache) Invalidate(ctx context.Context, keyspaces ...Keyspace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, keyspace := range keyspaces {
		c.generations[keyspace]++
		reservations.IncrementCounter(ctx, c.metricsCollector, MetricInvalidations, map[string]string{
			labelKeyspace: string(keyspace),
		})
	}

	for _, key := range c.entries.Keys() {
		value, ok := c.entries.Peek(key)
		if !ok {
			continue
		}

		if c.isStale(value.(entry)) { //nolint:forcetypeassert // only entry values are added
			c.entries.Remove(key)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// snapshot returns the current generations of the keyspaces.
func (c *Cache) snapshot(keyspaces []Keyspace) map[Keyspace]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	generations := make(map[Keyspace]uint64, len(keyspaces))
	for _, keyspace := range keyspaces {
		generations[keyspace] = c.generations[keyspace]
	}

	return generations
}

// load decodes the entry stored under key into target.
func (c *Cache) load(key string, target any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries.Get(key)
	if !ok {
		return false
	}

	cached := value.(entry) //nolint:forcetypeassert // only entry values are added
	if c.isStale(cached) {
		c.entries.Remove(key)
		return false
	}

	if err := json.Unmarshal(cached.data, target); err != nil {
		c.logWarn(logMsgDecodeFailed, logAttrKey, key, logAttrError, err.Error())
		c.entries.Remove(key)

		return false
	}

	return true
}

// store encodes value under key unless one of the keyspaces moved past generations.
func (c *Cache) store(key string, generations map[Keyspace]uint64, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logWarn(logMsgEncodeFailed, logAttrKey, key, logAttrError, err.Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cached := entry{generations: generations, data: data}
	if c.isStale(cached) {
		return
	}

	c.entries.Add(key, cached)
}

// isStale must be called with mu held.
func (c *Cache) isStale(cached entry) bool {
	for keyspace, generation := range cached.generations {
		if c.generations[keyspace] != generation {
			return true
		}
	}

	return false
}

func (c *Cache) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func cacheKey(queryType string, parts string) string {
	return strings.Join([]string{queryType, parts}, "|")
}
