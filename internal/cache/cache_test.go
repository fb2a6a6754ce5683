package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGet_ReadThroughAndFreshness(t *testing.T) {
	t.Parallel()

	c := New()
	fetches := 0
	fetch := func(context.Context) (any, error) {
		fetches++
		return fetches, nil
	}

	v, err := c.Get(context.Background(), "projects", time.Minute, fetch)
	if err != nil || v != 1 {
		t.Fatalf("first get: %v %v", v, err)
	}
	// fresh: served from cache
	v, _ = c.Get(context.Background(), "projects", time.Minute, fetch)
	if v != 1 || fetches != 1 {
		t.Fatalf("fresh entry refetched (fetches=%d)", fetches)
	}

	c.Invalidate("projects")
	v, _ = c.Get(context.Background(), "projects", time.Minute, fetch)
	if v != 2 || fetches != 2 {
		t.Fatalf("invalidated entry not refetched (v=%v fetches=%d)", v, fetches)
	}
}

func TestGet_ZeroMaxAgeAlwaysFetches(t *testing.T) {
	t.Parallel()

	c := New()
	fetches := 0
	fetch := func(context.Context) (any, error) { fetches++; return fetches, nil }

	c.Get(context.Background(), "k", 0, fetch)
	c.Get(context.Background(), "k", 0, fetch)
	if fetches != 2 {
		t.Fatalf("maxAge 0 must refetch on every Get, got %d", fetches)
	}
}

func TestGet_ErrorKeepsPriorValue(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("k", "old")
	c.Invalidate("k")

	_, err := c.Get(context.Background(), "k", time.Minute, func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("want fetch error")
	}
	if v, ok := c.Peek("k"); !ok || v != "old" {
		t.Fatalf("failed fetch must not clobber cached value: %v %v", v, ok)
	}
}

func TestGet_ConcurrentReadersShareOneFetch(t *testing.T) {
	t.Parallel()

	c := New()
	release := make(chan struct{})
	var fetches int
	var mu sync.Mutex

	fetch := func(context.Context) (any, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := c.Get(context.Background(), "k", time.Minute, fetch)
			results[i] = v
		}(i)
	}

	// let the goroutines reach the fetch/join point
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if fetches != 1 {
		t.Fatalf("fetches=%d, want shared single fetch", fetches)
	}
	for i, v := range results {
		if v != "v" {
			t.Fatalf("reader %d got %v", i, v)
		}
	}
}

func TestCancelNamespace_DiscardsInFlightResult(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("translation-keys/p1", "optimistic-will-replace-me")

	started := make(chan struct{})
	canceled := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.Get(context.Background(), "translation-keys/p1", 0, func(ctx context.Context) (any, error) {
			close(started)
			<-canceled
			// fetch "succeeds" despite cancellation: response already arrived
			return "stale-from-server", nil
		})
	}()

	<-started
	c.CancelNamespace("translation-keys/")
	c.Set("translation-keys/p1", "optimistic")
	close(canceled)
	<-done

	if v, _ := c.Peek("translation-keys/p1"); v != "optimistic" {
		t.Fatalf("discarded fetch clobbered the cache: %v", v)
	}
}

func TestSnapshotRestore_Verbatim(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("translation-keys/p1", "page-a")
	c.Set("translation-keys/p1?search=x", "page-b")
	c.Set("translation-key/k1", "detail")

	snap := c.SnapshotNamespace("translation-keys/")
	if len(snap) != 2 {
		t.Fatalf("snapshot size=%d, want 2 (detail namespace excluded)", len(snap))
	}

	c.MutateNamespace("translation-keys/", func(any) any { return "patched" })
	if v, _ := c.Peek("translation-keys/p1"); v != "patched" {
		t.Fatalf("mutate did not apply")
	}

	c.RestoreSnapshot(snap)
	if v, _ := c.Peek("translation-keys/p1"); v != "page-a" {
		t.Fatalf("restore: %v", v)
	}
	if v, _ := c.Peek("translation-keys/p1?search=x"); v != "page-b" {
		t.Fatalf("restore second entry: %v", v)
	}
	if v, _ := c.Peek("translation-key/k1"); v != "detail" {
		t.Fatalf("unrelated namespace touched: %v", v)
	}
}

func TestInvalidateNamespace(t *testing.T) {
	t.Parallel()

	c := New()
	fetches := 0
	fetch := func(context.Context) (any, error) { fetches++; return fetches, nil }

	c.Get(context.Background(), "translation-keys/p1", time.Minute, fetch)
	c.Get(context.Background(), "translation-keys/p2", time.Minute, fetch)
	c.InvalidateNamespace("translation-keys/")

	c.Get(context.Background(), "translation-keys/p1", time.Minute, fetch)
	c.Get(context.Background(), "translation-keys/p2", time.Minute, fetch)
	if fetches != 4 {
		t.Fatalf("fetches=%d, want all entries refetched", fetches)
	}
}

func TestMutateNamespace_SkipsEmptyEntries(t *testing.T) {
	t.Parallel()

	c := New()
	c.Invalidate("translation-keys/p1") // creates nothing
	c.MutateNamespace("translation-keys/", func(any) any { return "x" })
	if _, ok := c.Peek("translation-keys/p1"); ok {
		t.Fatalf("mutate must not materialize values for empty entries")
	}
}
