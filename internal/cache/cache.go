// Package cache implements the keyed query cache behind the service
// layer: read-through fetches with de-duplication, staleness-based
// invalidation, and the namespace-wide snapshot/restore and cancellation
// primitives the optimistic update protocol is built from.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// entry holds the last successful response for one key. Values are
// immutable: every write replaces the value wholesale, so a snapshot is a
// plain copy of the value reference.
type entry struct {
	value     any
	hasValue  bool
	fetchedAt time.Time
	stale     bool
	inflight  *inflight
}

// inflight tracks one running fetch so concurrent readers join it instead
// of fetching twice. A discarded fetch completes without writing back.
type inflight struct {
	cancel  context.CancelFunc
	done    chan struct{}
	value   any
	err     error
	discard bool
}

// Cache is a process-local query cache shared by all subscribers.
// Entries are mutated only through the documented operations.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{entries: map[string]*entry{}}
}

func (c *Cache) ensure(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Get returns the cached value for key when it is present, not
// invalidated and younger than maxAge; otherwise it runs fetch and caches
// the result. maxAge <= 0 means a cached value is only served while
// fresh-by-invalidation within the same Get-free window, i.e. every Get
// after an invalidation (or with no prior success) fetches. Concurrent
// Gets for the same key share a single fetch.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	e := c.ensure(key)

	if e.hasValue && !e.stale && maxAge > 0 && time.Since(e.fetchedAt) < maxAge {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}

	if fl := e.inflight; fl != nil {
		c.mu.Unlock()
		<-fl.done
		if fl.err != nil {
			return nil, fl.err
		}
		return fl.value, nil
	}

	fctx, cancel := context.WithCancel(ctx)
	fl := &inflight{cancel: cancel, done: make(chan struct{})}
	e.inflight = fl
	c.mu.Unlock()

	v, err := fetch(fctx)
	cancel()

	c.mu.Lock()
	if e.inflight == fl {
		e.inflight = nil
	}
	if err == nil && !fl.discard {
		e.value = v
		e.hasValue = true
		e.fetchedAt = time.Now()
		e.stale = false
	}
	c.mu.Unlock()

	fl.value, fl.err = v, err
	close(fl.done)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Peek returns the cached value without triggering a fetch.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Set writes a value directly, marking the entry fresh.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ensure(key)
	e.value = value
	e.hasValue = true
	e.fetchedAt = time.Now()
	e.stale = false
}

// Invalidate marks one entry stale; the cached value stays readable via
// Peek but the next Get refetches.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// InvalidateNamespace marks every entry under the prefix stale.
func (c *Cache) InvalidateNamespace(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.stale = true
		}
	}
}

// CancelNamespace cancels and discards every in-flight fetch under the
// prefix. A discarded fetch still reports its result to joined readers
// but never writes into the cache, so a racing refetch cannot clobber a
// value written after the cancellation.
func (c *Cache) CancelNamespace(prefix string) {
	c.mu.Lock()
	var cancels []context.CancelFunc
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) && e.inflight != nil {
			e.inflight.discard = true
			cancels = append(cancels, e.inflight.cancel)
			e.inflight = nil
		}
	}
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// SnapshotNamespace captures the current value of every populated entry
// under the prefix, verbatim, for a later RestoreSnapshot.
func (c *Cache) SnapshotNamespace(prefix string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := map[string]any{}
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) && e.hasValue {
			snap[key] = e.value
		}
	}
	return snap
}

// RestoreSnapshot writes snapshotted values back, undoing any wholesale
// value replacement made since the snapshot was taken.
func (c *Cache) RestoreSnapshot(snap map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, v := range snap {
		e := c.ensure(key)
		e.value = v
		e.hasValue = true
	}
}

// MutateNamespace replaces the value of every populated entry under the
// prefix with fn(value). fn must return a new value rather than mutate
// the old one, or return its argument unchanged to pass through.
func (c *Cache) MutateNamespace(prefix string, fn func(any) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) && e.hasValue {
			e.value = fn(e.value)
		}
	}
}
