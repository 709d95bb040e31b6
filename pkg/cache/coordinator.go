// Package cache coalesces concurrent identical lookups and keeps their
// results for a bounded time in a size-bounded LRU.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMaxEntries bounds the number of stored values.
	DefaultMaxEntries = 1000
	// DefaultTTL is how long values live when the caller has no preference.
	DefaultTTL = 5 * time.Minute
)

// Result says how a lookup was served.
type Result string

const (
	ResultHit    Result = "hit"
	ResultMiss   Result = "miss"
	ResultShared Result = "shared"
)

// Options configures a Coordinator.
type Options struct {
	// MaxEntries bounds the store; least recently used values go first.
	MaxEntries int
	// CleanupInterval runs a janitor that drops expired values. Zero
	// disables it; expired values are still never served.
	CleanupInterval time.Duration
	// Now is the clock used for expiry.
	Now func() time.Time
}

// Stats counts lookups since creation.
type Stats struct {
	Hits   uint64
	Misses uint64
	Shared uint64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// call is the handle of an in-flight computation.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Coordinator is a TTL cache that runs at most one computation per key at a
// time. Callers that arrive while a computation is in flight wait for it and
// share its outcome. Only successes are stored.
type Coordinator[V any] struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, entry[V]]
	inflight map[string]*call[V]
	now      func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
	shared atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Coordinator and starts its janitor when configured.
func New[V any](opts Options) (*Coordinator[V], error) {
	size := opts.MaxEntries
	if size <= 0 {
		size = DefaultMaxEntries
	}
	entries, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}

	c := &Coordinator[V]{
		entries:  entries,
		inflight: make(map[string]*call[V]),
		now:      opts.Now,
		stop:     make(chan struct{}),
	}
	if c.now == nil {
		c.now = time.Now
	}

	if opts.CleanupInterval > 0 {
		go c.janitor(opts.CleanupInterval)
	}

	return c, nil
}

// GetOrCompute returns the live value for key, or joins the in-flight
// computation for key, or runs fn. Successful results are stored for ttl;
// a non-positive ttl shares the result without storing it.
func (c *Coordinator[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (V, error)) (V, error) {
	v, _, err := c.Fetch(ctx, key, ttl, fn)
	return v, err
}

// Fetch is GetOrCompute that also reports how the lookup was served.
//
// fn runs with a context detached from the caller's cancellation, so a
// leader that gives up does not fail the waiters. Every caller, leader
// included, stops waiting when its own ctx is done.
func (c *Coordinator[V]) Fetch(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (V, error)) (V, Result, error) {
	c.mu.Lock()
	if e, ok := c.entries.Get(key); ok {
		if c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			c.hits.Add(1)
			return e.value, ResultHit, nil
		}
		c.entries.Remove(key)
	}

	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.shared.Add(1)
		v, err := wait(ctx, cl)
		return v, ResultShared, err
	}

	cl := &call[V]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()
	c.misses.Add(1)

	go c.run(context.WithoutCancel(ctx), key, ttl, cl, fn)

	v, err := wait(ctx, cl)
	return v, ResultMiss, err
}

func (c *Coordinator[V]) run(ctx context.Context, key string, ttl time.Duration, cl *call[V], fn func(context.Context) (V, error)) {
	defer func() {
		if r := recover(); r != nil {
			cl.err = fmt.Errorf("cache: computation for %q panicked: %v", key, r)
		}

		c.mu.Lock()
		if cl.err == nil && ttl > 0 {
			c.entries.Add(key, entry[V]{value: cl.val, expiresAt: c.now().Add(ttl)})
		}
		delete(c.inflight, key)
		c.mu.Unlock()

		close(cl.done)
	}()

	cl.val, cl.err = fn(ctx)
}

func wait[V any](ctx context.Context, cl *call[V]) (V, error) {
	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Delete removes the stored value for key. An in-flight computation is not
// affected.
func (c *Coordinator[V]) Delete(key string) {
	c.mu.Lock()
	c.entries.Remove(key)
	c.mu.Unlock()
}

// Purge removes every stored value.
func (c *Coordinator[V]) Purge() {
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()
}

// Len returns the number of stored values, expired ones included until the
// janitor or a lookup drops them.
func (c *Coordinator[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns lookup counters.
func (c *Coordinator[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Shared: c.shared.Load(),
	}
}

// Stop ends the janitor. It is safe to call more than once.
func (c *Coordinator[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Coordinator[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Coordinator[V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, k := range c.entries.Keys() {
		if e, ok := c.entries.Peek(k); ok && !now.Before(e.expiresAt) {
			c.entries.Remove(k)
		}
	}
}
