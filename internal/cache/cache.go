package cache

import (
	"context"
	"sync"

	"github.com/bizhub/portal-client/pkg/logger"
	"github.com/bizhub/portal-client/pkg/metrics"
)

// Origin tags where a cached record came from. OPTIMISTIC records are
// provisional local edits awaiting server confirmation and are never
// treated as durable truth: revalidation skips them, invalidation
// spares them.
type Origin int

const (
	OriginServer Origin = iota
	OriginOptimistic
)

// Lister fetches the authoritative rows for one query key.
type Lister[T any] func(ctx context.Context, key string) ([]T, error)

type record[T any] struct {
	value  T
	origin Origin
}

// listView is one cached query result: an ordered id list plus a
// generation counter. Responses are applied only when the generation
// they were issued under still matches, which is how an abandoned or
// superseded revalidation gets discarded instead of clobbering newer
// state.
type listView struct {
	ids        []string
	generation uint64
	warm       bool
}

// Cache is a keyed read model for one entity collection with
// stale-while-revalidate reads and optimistic mutations. One instance
// per collection; all methods are safe for concurrent use. Network
// calls are always made outside the lock.
type Cache[T any] struct {
	id    func(T) string
	setID func(*T, string)
	list  Lister[T]

	mu      sync.Mutex
	records map[string]record[T]
	lists   map[string]*listView
	pending map[string]struct{}
}

// New builds a cache for one collection. id extracts a record's id,
// setID writes one (used for the temporary-id swap on create), list
// fetches a query key's rows from the server.
func New[T any](id func(T) string, setID func(*T, string), list Lister[T]) *Cache[T] {
	return &Cache[T]{
		id:      id,
		setID:   setID,
		list:    list,
		records: make(map[string]record[T]),
		lists:   make(map[string]*listView),
		pending: make(map[string]struct{}),
	}
}

// Fetch returns the rows for key. A warm key returns the cached rows
// immediately and revalidates in the background (stale-while-
// revalidate); fromCache is true. A cold key blocks on the network
// fill. The returned slice is a copy.
func (c *Cache[T]) Fetch(ctx context.Context, key string) (rows []T, fromCache bool, err error) {
	c.mu.Lock()
	lv := c.lists[key]
	if lv != nil && lv.warm {
		rows = c.materializeLocked(lv)
		gen := lv.generation
		c.mu.Unlock()
		metrics.CacheFetches.WithLabelValues("hit").Inc()
		// The caller may go away before the refresh lands; the call is
		// allowed to finish and its result is dropped on a generation
		// mismatch, so detach from the caller's cancellation.
		go func(ctx context.Context) {
			if _, err := c.revalidate(ctx, key, gen); err != nil {
				logger.Debugf("cache: background revalidation of %q failed: %v", key, err)
			}
		}(context.WithoutCancel(ctx))
		return rows, true, nil
	}
	var gen uint64
	if lv != nil {
		gen = lv.generation
	}
	c.mu.Unlock()

	metrics.CacheFetches.WithLabelValues("miss").Inc()
	rows, err = c.revalidate(ctx, key, gen)
	return rows, false, err
}

// Revalidate forces a synchronous refresh of key and returns the
// resulting rows.
func (c *Cache[T]) Revalidate(ctx context.Context, key string) ([]T, error) {
	c.mu.Lock()
	var gen uint64
	if lv := c.lists[key]; lv != nil {
		gen = lv.generation
	}
	c.mu.Unlock()
	return c.revalidate(ctx, key, gen)
}

// revalidate fetches key from the server and applies the response if
// the view's generation still matches gen.
func (c *Cache[T]) revalidate(ctx context.Context, key string, gen uint64) ([]T, error) {
	fresh, err := c.list(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	lv := c.lists[key]
	if lv == nil {
		lv = &listView{}
		c.lists[key] = lv
	}
	if lv.generation != gen {
		// Superseded by an invalidation while in flight; serve what the
		// cache holds now rather than applying a stale response.
		return c.materializeLocked(lv), nil
	}

	ids := make([]string, 0, len(fresh))
	for _, item := range fresh {
		id := c.id(item)
		ids = append(ids, id)
		if _, inFlight := c.pending[id]; inFlight {
			// An optimistic edit owns this record until it resolves.
			continue
		}
		c.records[id] = record[T]{value: item, origin: OriginServer}
	}
	lv.ids = ids
	lv.warm = true
	return c.materializeLocked(lv), nil
}

// Record returns the cached value for id, if any.
func (c *Cache[T]) Record(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	return rec.value, ok
}

// Invalidate drops the SERVER-origin data cached under key, forcing
// the next Fetch to treat it as cold. Records owned by an in-flight
// optimistic mutation survive: an unrelated invalidation must not
// destroy the provisional state a pending mutation will resolve.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lv := c.lists[key]
	if lv == nil {
		return
	}
	lv.generation++
	lv.warm = false
	for _, id := range lv.ids {
		if _, inFlight := c.pending[id]; inFlight {
			continue
		}
		if c.referencedElsewhereLocked(key, id) {
			continue
		}
		delete(c.records, id)
	}
	lv.ids = nil
}

func (c *Cache[T]) referencedElsewhereLocked(key, id string) bool {
	for k, lv := range c.lists {
		if k == key || !lv.warm {
			continue
		}
		for _, other := range lv.ids {
			if other == id {
				return true
			}
		}
	}
	return false
}

func (c *Cache[T]) materializeLocked(lv *listView) []T {
	rows := make([]T, 0, len(lv.ids))
	for _, id := range lv.ids {
		if rec, ok := c.records[id]; ok {
			rows = append(rows, rec.value)
		}
	}
	return rows
}
