package roomapi

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached query. Keys are hierarchical: invalidating ["schedules"] also
// invalidates ["schedules", "my", "1"].
type Key []string

func (k Key) String() string { return strings.Join(k, "\x1f") }

func (k Key) hasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type QueryOptions struct {
	// StaleTime is how long a successful result is served without refetching.
	StaleTime time.Duration
	// Retry is how many extra attempts a network-kind failure gets.
	Retry      int
	RetryDelay time.Duration
}

type cacheEntry struct {
	key       Key
	value     any
	fetchedAt time.Time
	stale     bool
}

// QueryCache memoises reads and collapses concurrent fetches of one key.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	gen     uint64
	group   singleflight.Group
	now     func() time.Time
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: map[string]*cacheEntry{},
		now:     time.Now,
	}
}

// Fetch returns the cached value for key while it is fresh, otherwise runs fetch once for all
// concurrent callers and caches a successful result.
func Fetch[T any](ctx context.Context, c *QueryCache, key Key, opts QueryOptions, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](c, key, opts.StaleTime); ok {
		return v, nil
	}

	id := key.String()
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	res, err, _ := c.group.Do(id, func() (any, error) {
		v, err := withRetry(ctx, opts, fetch)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.entries[id] = &cacheEntry{
			key:       append(Key(nil), key...),
			value:     v,
			fetchedAt: c.now(),
			// Invalidated while in flight: serve this result once, refetch next time.
			stale: c.gen != gen,
		}
		c.mu.Unlock()
		return v, nil
	})
	v, _ := res.(T)
	return v, err
}

func lookup[T any](c *QueryCache, key Key, staleTime time.Duration) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || e.stale || c.now().Sub(e.fetchedAt) >= staleTime {
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

func withRetry[T any](ctx context.Context, opts QueryOptions, fetch func(context.Context) (T, error)) (T, error) {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	var (
		v   T
		err error
	)
	for attempt := 0; attempt <= opts.Retry; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return v, err
			case <-t.C:
			}
		}
		v, err = fetch(ctx)
		if err == nil || !IsNetwork(err) {
			return v, err
		}
	}
	return v, err
}

// Set stores v under key as freshly fetched, for mutations that return the new value.
func (c *QueryCache) Set(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &cacheEntry{key: append(Key(nil), key...), value: v, fetchedAt: c.now()}
}

// Invalidate marks every entry under prefix stale and returns how many there were.
func (c *QueryCache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.hasPrefix(prefix) {
			e.stale = true
			n++
		}
	}
	c.gen++
	return n
}

// Reset drops everything, e.g. on logout.
func (c *QueryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cacheEntry{}
	c.gen++
}
