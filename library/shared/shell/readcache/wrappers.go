package readcache

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// CacheableQuery is a query whose parameters can be rendered as a cache key.
type CacheableQuery interface {
	shell.Query
	CacheKey() string
}

// QueryWrapper serves query results from a Cache and fills it on misses.
type QueryWrapper[Q CacheableQuery, R any] struct {
	coreHandler shell.QueryHandler[Q, R]
	cache       *Cache
	keyspaces   []Keyspace
	queryType   string
}

// NewQueryWrapper caches the results of coreHandler.
// keyspaces names every keyspace the result depends on.
func NewQueryWrapper[Q CacheableQuery, R any](
	coreHandler shell.QueryHandler[Q, R],
	cache *Cache,
	keyspaces ...Keyspace,
) (*QueryWrapper[Q, R], error) {
	if len(keyspaces) == 0 {
		return nil, ErrNoKeyspaces
	}

	var zeroQuery Q

	return &QueryWrapper[Q, R]{
		coreHandler: coreHandler,
		cache:       cache,
		keyspaces:   keyspaces,
		queryType:   zeroQuery.QueryType(),
	}, nil
}

// Handle returns the cached result for query or delegates to the wrapped handler.
// Errors are never cached.
func (w *QueryWrapper[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	key := cacheKey(w.queryType, query.CacheKey())
	labels := map[string]string{labelQueryType: w.queryType}

	var cached R
	if w.cache.load(key, &cached) {
		reservations.IncrementCounter(ctx, w.cache.metricsCollector, MetricHits, labels)
		return cached, nil
	}

	reservations.IncrementCounter(ctx, w.cache.metricsCollector, MetricMisses, labels)

	generations := w.cache.snapshot(w.keyspaces)

	result, err := w.coreHandler.Handle(ctx, query)
	if err != nil {
		return result, err
	}

	w.cache.store(key, generations, result)

	return result, nil
}

// InvalidatingCommandWrapper invalidates keyspaces after every command that changed state.
type InvalidatingCommandWrapper[C shell.Command, R any] struct {
	coreHandler shell.CommandHandler[C, R]
	cache       *Cache
	keyspaces   []Keyspace
}

// NewInvalidatingCommandWrapper wraps coreHandler so that its writes invalidate keyspaces.
func NewInvalidatingCommandWrapper[C shell.Command, R any](
	coreHandler shell.CommandHandler[C, R],
	cache *Cache,
	keyspaces ...Keyspace,
) (*InvalidatingCommandWrapper[C, R], error) {
	if len(keyspaces) == 0 {
		return nil, ErrNoKeyspaces
	}

	return &InvalidatingCommandWrapper[C, R]{
		coreHandler: coreHandler,
		cache:       cache,
		keyspaces:   keyspaces,
	}, nil
}

// Handle delegates to the wrapped handler and invalidates after it returned.
// Failed commands invalidate as well: a partially failed sweep has still committed some transitions.
func (w *InvalidatingCommandWrapper[C, R]) Handle(ctx context.Context, command C) (R, shell.HandlerResult, error) {
	result, handlerResult, err := w.coreHandler.Handle(ctx, command)

	if !handlerResult.Idempotent || err != nil {
		w.cache.Invalidate(ctx, w.keyspaces...)
	}

	return result, handlerResult, err
}
