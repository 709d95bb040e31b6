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
	"golang.org/x/sync/errgroup"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCoordinator[V any](t *testing.T, opts Options) *Coordinator[V] {
	t.Helper()
	c, err := New[V](opts)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	const callers = 50

	c := newCoordinator[string](t, Options{})
	gate := make(chan struct{})
	var runs atomic.Int32

	compute := func(ctx context.Context) (string, error) {
		runs.Add(1)
		<-gate
		return "value", nil
	}

	var g errgroup.Group
	got := make([]string, callers)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			v, err := c.GetOrCompute(context.Background(), "k", time.Minute, compute)
			got[i] = v
			return err
		})
	}

	require.Eventually(t, func() bool {
		s := c.Stats()
		return s.Misses+s.Shared == callers
	}, 5*time.Second, time.Millisecond)
	close(gate)

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), runs.Load())
	for _, v := range got {
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, c.Len())
}

func TestGetOrComputeSharesFailure(t *testing.T) {
	c := newCoordinator[int](t, Options{})
	gate := make(chan struct{})
	boom := errors.New("boom")

	compute := func(ctx context.Context) (int, error) {
		<-gate
		return 0, boom
	}

	var g errgroup.Group
	errs := make([]error, 10)
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = c.GetOrCompute(context.Background(), "k", time.Minute, compute)
			return nil
		})
	}
	require.Eventually(t, func() bool {
		s := c.Stats()
		return s.Misses+s.Shared == 10
	}, 5*time.Second, time.Millisecond)
	close(gate)
	require.NoError(t, g.Wait())

	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}
	assert.Zero(t, c.Len(), "failures are not stored")
}

func TestGetOrComputeTTL(t *testing.T) {
	clock := &testClock{now: time.Unix(1700000000, 0)}
	c := newCoordinator[int](t, Options{Now: clock.Now})

	var runs int
	compute := func(ctx context.Context) (int, error) {
		runs++
		return runs, nil
	}

	v, res, err := c.Fetch(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, ResultMiss, res)

	clock.Advance(59 * time.Second)
	v, res, err = c.Fetch(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, ResultHit, res)

	clock.Advance(time.Second)
	v, res, err = c.Fetch(context.Background(), "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "an entry is dead at its expiry instant")
	assert.Equal(t, ResultMiss, res)
}

func TestGetOrComputeZeroTTLDoesNotStore(t *testing.T) {
	c := newCoordinator[int](t, Options{})

	runs := 0
	for i := 0; i < 3; i++ {
		_, err := c.GetOrCompute(context.Background(), "k", 0, func(ctx context.Context) (int, error) {
			runs++
			return runs, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, runs)
	assert.Zero(t, c.Len())
}

func TestGetOrComputeRetriesAfterFailure(t *testing.T) {
	c := newCoordinator[string](t, Options{})

	_, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (string, error) {
		return "", errors.New("transient")
	})
	require.Error(t, err)

	v, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestGetOrComputePanic(t *testing.T) {
	c := newCoordinator[string](t, Options{})

	_, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (string, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	v, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestLeaderCancellationDoesNotAbortComputation(t *testing.T) {
	c := newCoordinator[string](t, Options{})
	gate := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) (string, error) {
			<-gate
			// the computation context is detached from the leader
			return "survived", ctx.Err()
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return c.Stats().Misses == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(gate)
	require.Eventually(t, func() bool { return c.Len() == 1 }, 5*time.Second, time.Millisecond)

	v, res, err := c.Fetch(context.Background(), "k", time.Minute, func(ctx context.Context) (string, error) {
		return "recomputed", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "survived", v)
	assert.Equal(t, ResultHit, res)
}

func TestDistinctKeysRunIndependently(t *testing.T) {
	c := newCoordinator[string](t, Options{})

	a, err := c.GetOrCompute(context.Background(), "a", time.Minute, func(context.Context) (string, error) { return "A", nil })
	require.NoError(t, err)
	b, err := c.GetOrCompute(context.Background(), "b", time.Minute, func(context.Context) (string, error) { return "B", nil })
	require.NoError(t, err)

	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
	assert.Equal(t, 2, c.Len())

	c.Delete("a")
	assert.Equal(t, 1, c.Len())
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestMaxEntriesEvictsLeastRecentlyUsed(t *testing.T) {
	c := newCoordinator[int](t, Options{MaxEntries: 2})
	put := func(k string, v int) {
		_, err := c.GetOrCompute(context.Background(), k, time.Minute, func(context.Context) (int, error) { return v, nil })
		require.NoError(t, err)
	}

	put("a", 1)
	put("b", 2)
	put("a", 1) // touch a
	put("c", 3)

	assert.Equal(t, 2, c.Len())
	_, res, err := c.Fetch(context.Background(), "a", time.Minute, func(context.Context) (int, error) { return -1, nil })
	require.NoError(t, err)
	assert.Equal(t, ResultHit, res)
	_, res, err = c.Fetch(context.Background(), "b", time.Minute, func(context.Context) (int, error) { return -1, nil })
	require.NoError(t, err)
	assert.Equal(t, ResultMiss, res)
}

func TestJanitorRemovesExpired(t *testing.T) {
	clock := &testClock{now: time.Unix(1700000000, 0)}
	c := newCoordinator[int](t, Options{Now: clock.Now, CleanupInterval: 5 * time.Millisecond})

	_, err := c.GetOrCompute(context.Background(), "k", time.Second, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return c.Len() == 0 }, 5*time.Second, 5*time.Millisecond)

	c.Stop()
	c.Stop()
}
