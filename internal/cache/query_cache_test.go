package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache_GetOrLoad_Memoizes(t *testing.T) {
	c := NewQueryCache[[]int](4, 0)
	var calls atomic.Int32
	load := func(ctx context.Context) ([]int, error) {
		calls.Add(1)
		return []int{1, 2, 3}, nil
	}

	v, hit, err := c.GetOrLoad(context.Background(), "q1", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int{1, 2, 3}, v)

	v, hit, err = c.GetOrLoad(context.Background(), "q1", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{1, 2, 3}, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueryCache_KeysAreIndependent(t *testing.T) {
	c := NewQueryCache[string](4, 0)

	a, _, err := c.GetOrLoad(context.Background(), "all", func(context.Context) (string, error) { return "all", nil })
	require.NoError(t, err)
	b, _, err := c.GetOrLoad(context.Background(), "complete", func(context.Context) (string, error) { return "complete", nil })
	require.NoError(t, err)

	assert.Equal(t, "all", a)
	assert.Equal(t, "complete", b)
	assert.Equal(t, 2, c.Len())
}

func TestQueryCache_ErrorsAreNotCached(t *testing.T) {
	c := NewQueryCache[int](4, 0)
	boom := errors.New("warehouse unreachable")

	_, _, err := c.GetOrLoad(context.Background(), "q", func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, hit, err := c.GetOrLoad(context.Background(), "q", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestQueryCache_PurgeAndRemove(t *testing.T) {
	c := NewQueryCache[int](4, 0)
	c.Add("a", 1)
	c.Add("b", 2)

	c.Remove("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestQueryCache_TTLExpiry(t *testing.T) {
	c := NewQueryCache[int](4, 50*time.Millisecond)
	c.Add("q", 1)

	_, ok := c.Get("q")
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)

	_, ok = c.Get("q")
	assert.False(t, ok, "entry should expire after ttl")
}

func TestQueryCache_CollapsesConcurrentLoads(t *testing.T) {
	c := NewQueryCache[int](4, 0)
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrLoad(context.Background(), "q", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestQueryCache_ContextCancelled(t *testing.T) {
	c := NewQueryCache[int](4, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)

	_, _, err := c.GetOrLoad(ctx, "q", func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueryCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewQueryCache[int](4, 0)
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (int, error) {
		close(started)
		select {
		case <-release:
			return 7, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrLoad(first, "q", load)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, _, err := c.GetOrLoad(context.Background(), "q", load)
		second <- result{v, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 7, res.v)

	v, hit, err := c.GetOrLoad(context.Background(), "q", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, v)
}
