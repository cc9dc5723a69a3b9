package session

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/bizhub/portal-client/internal/kvstore"
	"github.com/bizhub/portal-client/internal/models"
)

// brokenReadBackend fails every read.
type brokenReadBackend struct {
	*kvstore.MemoryBackend
}

func (b *brokenReadBackend) Read(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

func TestBootstrapEmptyStore(t *testing.T) {
	tr := &fakeTransport{}
	h := newHarness(tr)
	b := NewBootstrap(h.mgr)

	ses, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusUnauthenticated, ses.Status)
	require.True(t, b.Done())
	require.NoError(t, b.Err())
	require.Zero(t, tr.refreshCalls)
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	tr := &fakeTransport{
		refresh: func(rt string) (models.TokenPair, error) {
			require.Equal(t, "r-old", rt)
			return models.TokenPair{AccessToken: "a-new", RefreshToken: "r-new"}, nil
		},
	}
	h := newHarness(tr)
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, kvstore.KeyAccessToken, "a-old"))
	require.NoError(t, h.store.Set(ctx, kvstore.KeyRefreshToken, "r-old"))

	ses, err := NewBootstrap(h.mgr).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, ses.Status)
	require.Equal(t, "a-new", ses.AccessToken)
}

func TestBootstrapFailsClosedOnStoreError(t *testing.T) {
	tr := &fakeTransport{}
	h := newHarnessWithBackends(tr,
		&brokenReadBackend{MemoryBackend: kvstore.NewMemoryBackend()},
		kvstore.NewMemoryBackend())

	ses, err := NewBootstrap(h.mgr).Run(context.Background())
	require.Error(t, err)
	require.Equal(t, StatusUnauthenticated, ses.Status)
	require.False(t, h.mgr.IsAuthenticated())
}

func TestBootstrapFailsClosedOnPanic(t *testing.T) {
	tr := &fakeTransport{
		refresh: func(string) (models.TokenPair, error) {
			panic("corrupt persisted state")
		},
	}
	h := newHarness(tr)
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, kvstore.KeyAccessToken, "a-old"))
	require.NoError(t, h.store.Set(ctx, kvstore.KeyRefreshToken, "r-old"))

	b := NewBootstrap(h.mgr)
	ses, err := b.Run(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked")
	require.Equal(t, StatusUnauthenticated, ses.Status)
	h.requireStores(t, kvstore.KeyAccessToken, "")
	h.requireStores(t, kvstore.KeyRefreshToken, "")
}

func TestBootstrapRunsRestoreOnce(t *testing.T) {
	inRefresh := make(chan struct{})
	release := make(chan struct{})
	tr := &fakeTransport{
		refresh: func(string) (models.TokenPair, error) {
			close(inRefresh)
			<-release
			return models.TokenPair{AccessToken: "a-new", RefreshToken: "r-new"}, nil
		},
	}
	h := newHarness(tr)
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, kvstore.KeyAccessToken, "a-old"))
	require.NoError(t, h.store.Set(ctx, kvstore.KeyRefreshToken, "r-old"))

	b := NewBootstrap(h.mgr)
	const callers = 3
	var wg sync.WaitGroup
	results := make([]Session, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ses, err := b.Run(ctx)
			require.NoError(t, err)
			results[i] = ses
		}(i)
	}

	<-inRefresh
	require.False(t, b.Done())
	close(release)
	wg.Wait()

	require.True(t, b.Done())
	for i := 0; i < callers; i++ {
		require.Equal(t, StatusAuthenticated, results[i].Status)
		require.Equal(t, "a-new", results[i].AccessToken)
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Equal(t, 1, tr.refreshCalls)
}

func TestBootstrapMarksRestoring(t *testing.T) {
	inRefresh := make(chan struct{})
	release := make(chan struct{})
	tr := &fakeTransport{
		refresh: func(string) (models.TokenPair, error) {
			close(inRefresh)
			<-release
			return models.TokenPair{AccessToken: "a-new", RefreshToken: "r-new"}, nil
		},
	}
	h := newHarness(tr)
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, kvstore.KeyAccessToken, "a-old"))
	require.NoError(t, h.store.Set(ctx, kvstore.KeyRefreshToken, "r-old"))

	b := NewBootstrap(h.mgr)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Run(ctx)
	}()
	<-inRefresh

	// while restoration is validating the pair the UI sees a transitional
	// status, not a premature logged-in or logged-out answer
	require.NotEqual(t, StatusUnauthenticated, h.mgr.Current().Status)
	require.False(t, b.Done())
	close(release)
	<-done
	require.Equal(t, StatusAuthenticated, h.mgr.Current().Status)

	// a later Run is a cheap replay of the resolved result
	ses, err := b.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, ses.Status)
}
