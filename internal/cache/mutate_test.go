package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizhub/portal-client/internal/transport"
)

func warmCache(t *testing.T, srv *fakeServer, keys ...string) *Cache[item] {
	t.Helper()
	c := newItemCache(srv.List)
	for _, key := range keys {
		_, _, err := c.Fetch(context.Background(), key)
		require.NoError(t, err)
	}
	return c
}

func (c *Cache[T]) idsOf(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	lv := c.lists[key]
	if lv == nil {
		return nil
	}
	return append([]string(nil), lv.ids...)
}

func TestCreateSwapsTemporaryID(t *testing.T) {
	srv := newFakeServer()
	srv.set("all", item{ID: "p-1", Name: "Acme"})
	c := warmCache(t, srv, "all")

	var tempID string
	created, err := c.Create(context.Background(), item{Name: "Initech"}, func(context.Context) (item, error) {
		// while the call is in flight the new row is visible under a
		// provisional id in the warm view
		c.mu.Lock()
		ids := c.lists["all"].ids
		tempID = ids[len(ids)-1]
		rec := c.records[tempID]
		c.mu.Unlock()
		require.True(t, strings.HasPrefix(tempID, "tmp-"))
		require.Equal(t, OriginOptimistic, rec.origin)
		require.Equal(t, "Initech", rec.value.Name)
		return item{ID: "p-9", Name: "Initech"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "p-9", created.ID)

	// the provisional id is gone, the server id took its list position
	require.Equal(t, []string{"p-1", "p-9"}, c.idsOf("all"))
	_, ok := c.Record(tempID)
	require.False(t, ok)
	rec, ok := c.Record("p-9")
	require.True(t, ok)
	require.Equal(t, "Initech", rec.Name)
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	srv := newFakeServer()
	srv.set("all", item{ID: "p-1", Name: "Acme"}, item{ID: "p-2", Name: "Globex"})
	c := warmCache(t, srv, "all")

	serverErr := transport.NewError(transport.KindValidation, "partner name is required", nil)
	_, err := c.Create(context.Background(), item{Name: ""}, func(context.Context) (item, error) {
		return item{}, serverErr
	})
	require.Error(t, err)
	require.True(t, transport.IsValidation(err))
	// the server's message reaches the caller untouched
	require.Equal(t, "partner name is required", err.Error())

	require.Equal(t, []string{"p-1", "p-2"}, c.idsOf("all"))
	for _, id := range c.idsOf("all") {
		rec, ok := c.Record(id)
		require.True(t, ok)
		require.NotEmpty(t, rec.Name)
	}
}

func TestUpdateRollsBackExactly(t *testing.T) {
	srv := newFakeServer()
	srv.set("all",
		item{ID: "p-1", Name: "Acme"},
		item{ID: "p-2", Name: "Globex"},
		item{ID: "p-3", Name: "Initech"},
	)
	c := warmCache(t, srv, "all")

	var sawOptimistic bool
	_, err := c.Update(context.Background(), "p-2", item{Name: "Renamed"}, func(context.Context) (item, error) {
		rec, ok := c.Record("p-2")
		sawOptimistic = ok && rec.Name == "Renamed"
		return item{}, transport.NewError(transport.KindNetwork, "", context.DeadlineExceeded)
	})
	require.Error(t, err)
	require.True(t, sawOptimistic)

	// the pre-mutation record and the full list order are back
	rec, ok := c.Record("p-2")
	require.True(t, ok)
	require.Equal(t, "Globex", rec.Name)
	require.Equal(t, []string{"p-1", "p-2", "p-3"}, c.idsOf("all"))

	// the resolved record accepts a new mutation
	updated, err := c.Update(context.Background(), "p-2", item{Name: "Globex II"}, func(context.Context) (item, error) {
		return item{ID: "p-2", Name: "Globex II"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "Globex II", updated.Name)
}

func TestUpdateInstallsServerRow(t *testing.T) {
	srv := newFakeServer()
	srv.set("all", item{ID: "p-1", Name: "Acme"})
	c := warmCache(t, srv, "all")

	// the server may normalize the payload; its row wins over the
	// optimistic one
	updated, err := c.Update(context.Background(), "p-1", item{Name: "acme corp"}, func(context.Context) (item, error) {
		return item{ID: "p-1", Name: "Acme Corp"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", updated.Name)
	rec, _ := c.Record("p-1")
	require.Equal(t, "Acme Corp", rec.Name)
}

func TestConcurrentMutationsOnSameRecordConflict(t *testing.T) {
	srv := newFakeServer()
	srv.set("all", item{ID: "p-1", Name: "Acme"})
	c := warmCache(t, srv, "all")
	ctx := context.Background()

	gate := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Update(ctx, "p-1", item{Name: "First"}, func(context.Context) (item, error) {
			<-gate
			return item{ID: "p-1", Name: "First"}, nil
		})
	}()
	require.Eventually(t, func() bool {
		rec, ok := c.Record("p-1")
		return ok && rec.Name == "First"
	}, time.Second, time.Millisecond)

	serverCalls := 0
	_, err := c.Update(ctx, "p-1", item{Name: "Second"}, func(context.Context) (item, error) {
		serverCalls++
		return item{}, nil
	})
	require.ErrorIs(t, err, ErrMutationConflict)
	err = c.Delete(ctx, "p-1", func(context.Context) error {
		serverCalls++
		return nil
	})
	require.ErrorIs(t, err, ErrMutationConflict)
	// the conflict is decided before any network call
	require.Zero(t, serverCalls)

	close(gate)
	<-done

	// once the first mutation resolves the record is mutable again
	_, err = c.Update(ctx, "p-1", item{Name: "Second"}, func(context.Context) (item, error) {
		return item{ID: "p-1", Name: "Second"}, nil
	})
	require.NoError(t, err)
}

func TestDeleteRemovesFromEveryView(t *testing.T) {
	srv := newFakeServer()
	shared := item{ID: "p-1", Name: "Acme"}
	srv.set("all", shared, item{ID: "p-2", Name: "Globex"})
	srv.set("active", shared)
	c := warmCache(t, srv, "all", "active")

	err := c.Delete(context.Background(), "p-1", func(context.Context) error { return nil })
	require.NoError(t, err)

	require.Equal(t, []string{"p-2"}, c.idsOf("all"))
	require.Empty(t, c.idsOf("active"))
	_, ok := c.Record("p-1")
	require.False(t, ok)
}

func TestDeleteRollbackRestoresEveryView(t *testing.T) {
	srv := newFakeServer()
	shared := item{ID: "p-2", Name: "Globex"}
	srv.set("all", item{ID: "p-1", Name: "Acme"}, shared, item{ID: "p-3", Name: "Initech"})
	srv.set("active", shared)
	c := warmCache(t, srv, "all", "active")

	err := c.Delete(context.Background(), "p-2", func(context.Context) error {
		return transport.NewError(transport.KindNetwork, "", context.DeadlineExceeded)
	})
	require.Error(t, err)

	// original positions, not an append at the end
	require.Equal(t, []string{"p-1", "p-2", "p-3"}, c.idsOf("all"))
	require.Equal(t, []string{"p-2"}, c.idsOf("active"))
	rec, ok := c.Record("p-2")
	require.True(t, ok)
	require.Equal(t, "Globex", rec.Name)
}

func TestInvalidateSparesPendingOptimisticRecord(t *testing.T) {
	srv := newFakeServer()
	srv.set("all", item{ID: "p-1", Name: "Acme"}, item{ID: "p-2", Name: "Globex"})
	c := warmCache(t, srv, "all")
	ctx := context.Background()

	gate := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Update(ctx, "p-1", item{Name: "Renamed"}, func(context.Context) (item, error) {
			<-gate
			return item{ID: "p-1", Name: "Renamed"}, nil
		})
	}()
	require.Eventually(t, func() bool {
		rec, ok := c.Record("p-1")
		return ok && rec.Name == "Renamed"
	}, time.Second, time.Millisecond)

	c.Invalidate("all")

	// the record owned by the in-flight mutation survives the flush
	rec, ok := c.Record("p-1")
	require.True(t, ok)
	require.Equal(t, "Renamed", rec.Name)
	// the purely server-owned record does not
	_, ok = c.Record("p-2")
	require.False(t, ok)

	close(gate)
	<-done
}
