package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bizhub/portal-client/pkg/metrics"
)

// ErrMutationConflict rejects a mutation issued against a record that
// already has one in flight. Rejected before any network call: with
// two pending edits there would be two candidate pre-mutation states
// and rollback becomes ambiguous, so the caller waits instead.
var ErrMutationConflict = errors.New("cache: record already has a mutation in flight")

// ServerCall performs the server side of a mutation and returns the
// authoritative record.
type ServerCall[T any] func(ctx context.Context) (T, error)

// snapshot is the pre-mutation state of the affected record and of
// every list view that held it, captured immediately before the
// optimistic apply and discarded once the mutation resolves. Rollback
// restores it exactly; no partial merge.
type snapshot[T any] struct {
	id      string
	rec     record[T]
	existed bool
	lists   map[string][]string
}

// Create applies value locally under a temporary id, then calls the
// server. On success the temporary id is swapped for the server's id
// in every list view that held it and the server row replaces the
// optimistic one; on failure the record and every touched list revert
// exactly.
func (c *Cache[T]) Create(ctx context.Context, value T, call ServerCall[T]) (T, error) {
	tempID := "tmp-" + uuid.NewString()
	c.setID(&value, tempID)

	c.mu.Lock()
	snap := c.captureLocked(tempID)
	c.records[tempID] = record[T]{value: value, origin: OriginOptimistic}
	// A new row belongs in every warm view of the collection until the
	// server says otherwise.
	for key, lv := range c.lists {
		if !lv.warm {
			continue
		}
		snap.lists[key] = append([]string(nil), lv.ids...)
		lv.ids = append(lv.ids, tempID)
	}
	c.pending[tempID] = struct{}{}
	c.mu.Unlock()

	created, err := call(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer delete(c.pending, tempID)
	if err != nil {
		c.rollbackLocked(snap)
		var zero T
		return zero, err
	}

	realID := c.id(created)
	delete(c.records, tempID)
	c.records[realID] = record[T]{value: created, origin: OriginServer}
	for _, lv := range c.lists {
		for i, id := range lv.ids {
			if id == tempID {
				lv.ids[i] = realID
			}
		}
	}
	return created, nil
}

// Update applies value over the cached record for id, then calls the
// server. Success installs the server's authoritative row; failure
// restores the exact pre-mutation state and propagates the error.
func (c *Cache[T]) Update(ctx context.Context, id string, value T, call ServerCall[T]) (T, error) {
	var zero T

	c.mu.Lock()
	if _, inFlight := c.pending[id]; inFlight {
		c.mu.Unlock()
		return zero, ErrMutationConflict
	}
	snap := c.captureLocked(id)
	c.setID(&value, id)
	c.records[id] = record[T]{value: value, origin: OriginOptimistic}
	c.pending[id] = struct{}{}
	c.mu.Unlock()

	updated, err := call(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer delete(c.pending, id)
	if err != nil {
		c.rollbackLocked(snap)
		return zero, err
	}
	c.records[id] = record[T]{value: updated, origin: OriginServer}
	return updated, nil
}

// Delete removes id from the cache and every list view, then calls
// the server. The snapshot retains the removed record so a failed
// delete puts it back exactly where it was.
func (c *Cache[T]) Delete(ctx context.Context, id string, call func(ctx context.Context) error) error {
	c.mu.Lock()
	if _, inFlight := c.pending[id]; inFlight {
		c.mu.Unlock()
		return ErrMutationConflict
	}
	snap := c.captureLocked(id)
	delete(c.records, id)
	for key, lv := range c.lists {
		if !containsID(lv.ids, id) {
			continue
		}
		snap.lists[key] = append([]string(nil), lv.ids...)
		kept := make([]string, 0, len(lv.ids)-1)
		for _, other := range lv.ids {
			if other != id {
				kept = append(kept, other)
			}
		}
		lv.ids = kept
	}
	c.pending[id] = struct{}{}
	c.mu.Unlock()

	err := call(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer delete(c.pending, id)
	if err != nil {
		c.rollbackLocked(snap)
		return err
	}
	return nil
}

// captureLocked snapshots the record for id and primes an empty list
// map; callers record the id orders of the views they touch.
func (c *Cache[T]) captureLocked(id string) snapshot[T] {
	rec, ok := c.records[id]
	return snapshot[T]{
		id:      id,
		rec:     rec,
		existed: ok,
		lists:   make(map[string][]string),
	}
}

// rollbackLocked restores the snapshot exactly: the affected record
// and the full id order of every touched list view.
func (c *Cache[T]) rollbackLocked(snap snapshot[T]) {
	if snap.existed {
		c.records[snap.id] = snap.rec
	} else {
		delete(c.records, snap.id)
	}
	for key, ids := range snap.lists {
		if lv := c.lists[key]; lv != nil {
			lv.ids = append([]string(nil), ids...)
		}
	}
	metrics.CacheRollbacks.Inc()
}

func containsID(ids []string, id string) bool {
	for _, other := range ids {
		if other == id {
			return true
		}
	}
	return false
}
