package readcache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/readcache"
	"github.com/AntonStoeckl/book-reservations-go/testutil/helper/spies"
)

type listQuery struct{ Page int }

func (listQuery) QueryType() string { return "ListTitles" }

func (q listQuery) CacheKey() string { return string(rune('0' + q.Page)) }

type listResult struct {
	Titles []string `json:"titles"`
}

// countingHandler returns the current titles and counts how often it was called.
type countingHandler struct {
	calls  atomic.Int32
	titles []string
	err    error

	// during runs inside Handle after the titles were read, to simulate a racing write.
	during func()
}

func (h *countingHandler) Handle(_ context.Context, _ listQuery) (listResult, error) {
	h.calls.Add(1)

	if h.err != nil {
		return listResult{}, h.err
	}

	result := listResult{Titles: append([]string(nil), h.titles...)}
	if h.during != nil {
		h.during()
	}

	return result, nil
}

type addTitle struct{ Title string }

func (addTitle) CommandType() string { return "AddTitle" }

type addTitleHandler struct {
	target *countingHandler
	result shell.HandlerResult
}

func (h addTitleHandler) Handle(_ context.Context, command addTitle) (int, shell.HandlerResult, error) {
	h.target.titles = append(h.target.titles, command.Title)
	return len(h.target.titles), h.result, nil
}

func newCache(t *testing.T, options ...readcache.Option) *readcache.Cache {
	t.Helper()

	cache, err := readcache.New(16, options...)
	require.NoError(t, err)

	return cache
}

func Test_QueryWrapper_ServesRepeatedQueriesFromCache(t *testing.T) {
	// setup
	metricsSpy := spies.NewMetricsCollectorSpy()
	cache := newCache(t, readcache.WithMetrics(metricsSpy))

	// arrange
	core := &countingHandler{titles: []string{"Dune"}}
	wrapper, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	// act
	first, err1 := wrapper.Handle(context.Background(), listQuery{Page: 0})
	second, err2 := wrapper.Handle(context.Background(), listQuery{Page: 0})

	// assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), core.calls.Load(), "the second query should be a cache hit")
	assert.Equal(t, 1, metricsSpy.CountCounterRecords(readcache.MetricHits, nil))
	assert.Equal(t, 1, metricsSpy.CountCounterRecords(readcache.MetricMisses, nil))
}

func Test_QueryWrapper_KeysByQueryParameters(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{titles: []string{"Dune"}}
	wrapper, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	// act
	_, _ = wrapper.Handle(context.Background(), listQuery{Page: 0})
	_, _ = wrapper.Handle(context.Background(), listQuery{Page: 1})

	// assert
	assert.Equal(t, int32(2), core.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func Test_QueryWrapper_ReturnsIndependentCopies(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{titles: []string{"Dune"}}
	wrapper, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	first, _ := wrapper.Handle(context.Background(), listQuery{})
	first.Titles[0] = "mutated by caller"

	// act
	second, err := wrapper.Handle(context.Background(), listQuery{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, second.Titles, "callers must not be able to mutate cached values")
}

func Test_QueryWrapper_DoesNotCacheErrors(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{err: errors.New("store down")}
	wrapper, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	// act
	_, err1 := wrapper.Handle(context.Background(), listQuery{})
	_, err2 := wrapper.Handle(context.Background(), listQuery{})

	// assert
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, int32(2), core.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func Test_InvalidatingCommandWrapper_InvalidatesTouchedKeyspaces(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{titles: []string{"Dune"}}
	query, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	command, err := readcache.NewInvalidatingCommandWrapper[addTitle, int](
		addTitleHandler{target: core}, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	_, _ = query.Handle(context.Background(), listQuery{})

	// act
	_, _, err = command.Handle(context.Background(), addTitle{Title: "Emma"})
	require.NoError(t, err)
	result, err := query.Handle(context.Background(), listQuery{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Emma"}, result.Titles, "a write must never leave a stale read behind")
	assert.Equal(t, int32(2), core.calls.Load())
}

func Test_InvalidatingCommandWrapper_LeavesOtherKeyspacesAlone(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{titles: []string{"Dune"}}
	query, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	command, err := readcache.NewInvalidatingCommandWrapper[addTitle, int](
		addTitleHandler{target: &countingHandler{}}, cache, readcache.KeyspaceUsers)
	require.NoError(t, err)

	_, _ = query.Handle(context.Background(), listQuery{})

	// act
	_, _, _ = command.Handle(context.Background(), addTitle{Title: "x"})
	_, _ = query.Handle(context.Background(), listQuery{})

	// assert
	assert.Equal(t, int32(1), core.calls.Load(), "the books entry should survive a users invalidation")
}

func Test_InvalidatingCommandWrapper_IdempotentCommandKeepsEntries(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{titles: []string{"Dune"}}
	query, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	command, err := readcache.NewInvalidatingCommandWrapper[addTitle, int](
		addTitleHandler{target: &countingHandler{}, result: shell.HandlerResult{Idempotent: true}},
		cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	_, _ = query.Handle(context.Background(), listQuery{})

	// act
	_, _, _ = command.Handle(context.Background(), addTitle{})
	_, _ = query.Handle(context.Background(), listQuery{})

	// assert
	assert.Equal(t, int32(1), core.calls.Load())
}

func Test_QueryWrapper_RacingWriteDoesNotRepopulateStaleValue(t *testing.T) {
	// arrange
	cache := newCache(t)
	core := &countingHandler{titles: []string{"Dune"}}
	query, err := readcache.NewQueryWrapper[listQuery, listResult](core, cache, readcache.KeyspaceBooks)
	require.NoError(t, err)

	// the write commits after the query read its data but before the result is stored
	core.during = func() {
		core.titles = append(core.titles, "Emma")
		cache.Invalidate(context.Background(), readcache.KeyspaceBooks)
	}

	// act
	stale, err := query.Handle(context.Background(), listQuery{})
	require.NoError(t, err)
	core.during = nil
	fresh, err := query.Handle(context.Background(), listQuery{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, stale.Titles)
	assert.Equal(t, []string{"Dune", "Emma"}, fresh.Titles)
	assert.Equal(t, int32(2), core.calls.Load())
}

func Test_New_RejectsInvalidConfiguration(t *testing.T) {
	_, err := readcache.New(0)
	assert.ErrorIs(t, err, readcache.ErrInvalidSize)

	cache := newCache(t)
	_, err = readcache.NewQueryWrapper[listQuery, listResult](&countingHandler{}, cache)
	assert.ErrorIs(t, err, readcache.ErrNoKeyspaces)

	_, err = readcache.NewInvalidatingCommandWrapper[addTitle, int](addTitleHandler{}, cache)
	assert.ErrorIs(t, err, readcache.ErrNoKeyspaces)
}
