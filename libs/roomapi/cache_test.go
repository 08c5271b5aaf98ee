package roomapi

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchServesFreshValue(t *testing.T) {
	c := NewQueryCache()
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	var calls int
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	opts := QueryOptions{StaleTime: time.Minute}
	key := Key{"users"}

	v, _ := Fetch(context.Background(), c, key, opts, fetch)
	v2, _ := Fetch(context.Background(), c, key, opts, fetch)
	if v != 1 || v2 != 1 || calls != 1 {
		t.Fatalf("expected cached value, got %d %d calls=%d", v, v2, calls)
	}

	now = now.Add(2 * time.Minute)
	v3, _ := Fetch(context.Background(), c, key, opts, fetch)
	if v3 != 2 {
		t.Fatalf("expected refetch after stale time, got %d", v3)
	}
}

func TestInvalidateByPrefix(t *testing.T) {
	c := NewQueryCache()
	opts := QueryOptions{StaleTime: time.Hour}
	calls := map[string]int{}
	fetcher := func(name string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls[name]++
			return name, nil
		}
	}

	_, _ = Fetch(context.Background(), c, Key{"schedules", "my"}, opts, fetcher("my"))
	_, _ = Fetch(context.Background(), c, Key{"schedules", "all", "1"}, opts, fetcher("all"))
	_, _ = Fetch(context.Background(), c, Key{"rooms"}, opts, fetcher("rooms"))

	if n := c.Invalidate(Key{"schedules"}); n != 2 {
		t.Fatalf("expected 2 invalidated, got %d", n)
	}
	_, _ = Fetch(context.Background(), c, Key{"schedules", "my"}, opts, fetcher("my"))
	_, _ = Fetch(context.Background(), c, Key{"rooms"}, opts, fetcher("rooms"))
	if calls["my"] != 2 || calls["rooms"] != 1 {
		t.Fatalf("unexpected fetch counts %v", calls)
	}
}

func TestFetchDeduplicatesConcurrentCalls(t *testing.T) {
	c := NewQueryCache()
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Fetch(context.Background(), c, Key{"rooms"}, QueryOptions{StaleTime: time.Minute}, fetch)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
	for _, r := range results {
		if r != 7 {
			t.Fatalf("unexpected results %v", results)
		}
	}
}

func TestFetchRetriesNetworkErrorsOnly(t *testing.T) {
	c := NewQueryCache()
	opts := QueryOptions{Retry: 1, RetryDelay: time.Millisecond}

	calls := 0
	_, err := Fetch(context.Background(), c, Key{"users"}, opts, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, &APIError{Kind: KindNetwork, Err: errors.New("reset")}
		}
		return 3, nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on retry, err=%v calls=%d", err, calls)
	}

	calls = 0
	_, err = Fetch(context.Background(), c, Key{"users", "conflict"}, opts, func(context.Context) (int, error) {
		calls++
		return 0, &APIError{Kind: KindConflict, Status: 403}
	})
	if !IsConflict(err) || calls != 1 {
		t.Fatalf("expected single attempt for conflict, err=%v calls=%d", err, calls)
	}

	calls = 0
	_, err = Fetch(context.Background(), c, Key{"users", "down"}, opts, func(context.Context) (int, error) {
		calls++
		return 0, &APIError{Kind: KindNetwork, Status: 503}
	})
	if !IsNetwork(err) || calls != 2 {
		t.Fatalf("expected one retry then failure, err=%v calls=%d", err, calls)
	}
}

func TestFailedFetchIsNotCached(t *testing.T) {
	c := NewQueryCache()
	opts := QueryOptions{StaleTime: time.Hour}
	_, _ = Fetch(context.Background(), c, Key{"rooms"}, opts, func(context.Context) (int, error) {
		return 0, &APIError{Kind: KindConflict}
	})
	v, err := Fetch(context.Background(), c, Key{"rooms"}, opts, func(context.Context) (int, error) {
		return 4, nil
	})
	if err != nil || v != 4 {
		t.Fatalf("expected fresh fetch after failure, got %d %v", v, err)
	}
}

func TestSetAndReset(t *testing.T) {
	c := NewQueryCache()
	opts := QueryOptions{StaleTime: time.Hour}
	c.Set(Key{"profile"}, "ana")
	v, _ := Fetch(context.Background(), c, Key{"profile"}, opts, func(context.Context) (string, error) {
		return "fetched", nil
	})
	if v != "ana" {
		t.Fatalf("expected seeded value, got %q", v)
	}
	c.Reset()
	v, _ = Fetch(context.Background(), c, Key{"profile"}, opts, func(context.Context) (string, error) {
		return "fetched", nil
	})
	if v != "fetched" {
		t.Fatalf("expected refetch after reset, got %q", v)
	}
}
