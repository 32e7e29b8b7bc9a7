package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(0)
	require.NoError(t, err)
	return c
}

func constLoader(calls *atomic.Int32, v any) Loader {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestCache_FetchOrUseCachesValue(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	v, err := c.FetchOrUse(ctx, ListKey(TagProducts), constLoader(&calls, "first"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = c.FetchOrUse(ctx, ListKey(TagProducts), constLoader(&calls, "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.EqualValues(t, 1, calls.Load())

	got, ok := c.Get(ListKey(TagProducts))
	assert.True(t, ok)
	assert.Equal(t, "first", got)

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 1, stats.Fetches)
}

func TestCache_InvalidateListAndRecord(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	for _, key := range []CacheKey{ListKey(TagUsers), RecordKey(TagUsers, "1"), RecordKey(TagUsers, "2"), ListKey(TagProducts)} {
		_, err := c.FetchOrUse(ctx, key, constLoader(&calls, key.String()))
		require.NoError(t, err)
	}
	require.Equal(t, 4, c.Len())

	// Create: only the list entry goes.
	c.Invalidate(TagUsers, "")
	_, ok := c.Get(ListKey(TagUsers))
	assert.False(t, ok)
	_, ok = c.Get(RecordKey(TagUsers, "1"))
	assert.True(t, ok)

	// Update or delete: the list and that record go.
	c.Invalidate(TagUsers, "1")
	_, ok = c.Get(RecordKey(TagUsers, "1"))
	assert.False(t, ok)
	_, ok = c.Get(RecordKey(TagUsers, "2"))
	assert.True(t, ok)

	// Other tags are untouched.
	_, ok = c.Get(ListKey(TagProducts))
	assert.True(t, ok)
}

func TestCache_InvalidateTagAndPurge(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	for _, key := range []CacheKey{ListKey(TagUsers), RecordKey(TagUsers, "1"), ListKey(TagProducts)} {
		_, err := c.FetchOrUse(ctx, key, constLoader(&calls, key.String()))
		require.NoError(t, err)
	}

	c.InvalidateTag(TagUsers)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.FetchOrUse(ctx, ListKey(TagProducts), func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get(ListKey(TagProducts))
	assert.False(t, ok)

	var calls atomic.Int32
	v, err := c.FetchOrUse(ctx, ListKey(TagProducts), constLoader(&calls, "ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	load := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const callers = 20
	var started, done sync.WaitGroup
	results := make([]any, callers)
	started.Add(callers)
	done.Add(callers)
	for i := range callers {
		go func() {
			defer done.Done()
			started.Done()
			v, err := c.FetchOrUse(ctx, ListKey(TagProducts), load)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	started.Wait()
	// Let every goroutine reach the flight before it completes.
	require.Eventually(t, func() bool { return c.Stats().Misses == callers }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, "value", v)
	}
}

func TestCache_InvalidationDuringFetchDiscardsResult(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	inFlight := make(chan struct{})
	stale := func(context.Context) (any, error) {
		close(inFlight)
		<-release
		return "stale", nil
	}

	staleDone := make(chan any, 1)
	go func() {
		v, _ := c.FetchOrUse(ctx, ListKey(TagProducts), stale)
		staleDone <- v
	}()
	<-inFlight

	// A mutation completes while the old read is still outstanding.
	c.Invalidate(TagProducts, "")

	// A read issued after the mutation must not join the stale flight.
	var calls atomic.Int32
	v, err := c.FetchOrUse(ctx, ListKey(TagProducts), constLoader(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.EqualValues(t, 1, calls.Load())

	close(release)
	assert.Equal(t, "stale", <-staleDone)

	// The overtaken result never replaces the fresh entry.
	got, ok := c.Get(ListKey(TagProducts))
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func trackedKeys(c *Cache) (generations, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.generations), len(c.pending)
}

func TestCache_GenerationsOnlyKeptWhileFetching(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := range 1000 {
		c.Invalidate(TagUsers, fmt.Sprint(i))
	}
	gens, pending := trackedKeys(c)
	assert.Zero(t, gens)
	assert.Zero(t, pending)

	release := make(chan struct{})
	inFlight := make(chan struct{})
	done := make(chan any, 1)
	go func() {
		v, _ := c.FetchOrUse(ctx, RecordKey(TagUsers, "7"), func(context.Context) (any, error) {
			close(inFlight)
			<-release
			return "old", nil
		})
		done <- v
	}()
	<-inFlight

	c.Invalidate(TagUsers, "7")
	gens, pending = trackedKeys(c)
	assert.Equal(t, 1, gens)
	assert.Equal(t, 1, pending)

	close(release)
	assert.Equal(t, "old", <-done)
	require.Eventually(t, func() bool {
		gens, pending := trackedKeys(c)
		return gens == 0 && pending == 0
	}, time.Second, time.Millisecond)

	// The overtaken result was still discarded.
	_, ok := c.Get(RecordKey(TagUsers, "7"))
	assert.False(t, ok)
}

func TestCache_PurgeDuringFetchDiscardsResult(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	inFlight := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.FetchOrUse(ctx, RecordKey(TagUsers, "1"), func(context.Context) (any, error) {
			close(inFlight)
			<-release
			return "old identity", nil
		})
	}()
	<-inFlight
	c.Purge()
	close(release)
	<-done

	_, ok := c.Get(RecordKey(TagUsers, "1"))
	assert.False(t, ok)
}

func TestCache_CancelledWaiterDoesNotFailOthers(t *testing.T) {
	c := newTestCache(t)

	release := make(chan struct{})
	inFlight := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		close(inFlight)
		<-release
		return "value", ctx.Err()
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.FetchOrUse(cancelCtx, ListKey(TagUsers), load)
		first <- err
	}()
	<-inFlight

	second := make(chan any, 1)
	go func() {
		v, _ := c.FetchOrUse(context.Background(), ListKey(TagUsers), load)
		second <- v
	}()
	require.Eventually(t, func() bool { return c.Stats().Misses == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	assert.Equal(t, "value", <-second)
}

func TestCacheKey_String(t *testing.T) {
	assert.Equal(t, "Products/*", ListKey(TagProducts).String())
	assert.Equal(t, "Users/7", RecordKey(TagUsers, "7").String())
}
