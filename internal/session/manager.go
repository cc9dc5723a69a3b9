package session

import (
	"context"
	"sync"

	"github.com/bizhub/portal-client/internal/kvstore"
	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/transport"
	"github.com/bizhub/portal-client/pkg/logger"
	"github.com/bizhub/portal-client/pkg/metrics"
)

// flight is one in-progress refresh. Followers hold a pointer to it,
// wait on done and read the leader's result, so N concurrent Refresh
// calls produce exactly one network call.
type flight struct {
	done chan struct{}
	ses  Session
	err  error
}

// Manager owns the access/refresh token pair: it persists the pair
// through the dual store, refreshes it against the server and tears it
// down on failure. All methods are safe for concurrent use.
type Manager struct {
	tr    transport.Transport
	store *kvstore.Dual

	mu       sync.Mutex
	status   Status
	access   string
	refresh  string
	user     *models.User
	inflight *flight
	// epoch increments on every local teardown. A refresh that was in
	// flight when a sign-out happened sees the bump and discards its
	// result instead of resurrecting the cleared session.
	epoch uint64
}

func NewManager(tr transport.Transport, store *kvstore.Dual) *Manager {
	return &Manager{tr: tr, store: store, status: StatusUninitialized}
}

// Current returns a copy of the session state.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionLocked()
}

func (m *Manager) sessionLocked() Session {
	var u *models.User
	if m.user != nil {
		cp := *m.user
		u = &cp
	}
	return Session{AccessToken: m.access, RefreshToken: m.refresh, User: u, Status: m.status}
}

// AccessToken returns the current access token, empty when logged out.
// Transports use this as their bearer source.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

// IsAuthenticated reports whether a validated token pair is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusAuthenticated
}

// SignIn exchanges credentials for a token pair, persists the pair and
// fetches the profile. A failed profile fetch is not a failed sign-in:
// token validity and profile availability are independent facts, so
// the session comes back authenticated with a nil User and the profile
// is re-fetched lazily by CurrentUser.
func (m *Manager) SignIn(ctx context.Context, creds models.Credentials) (Session, error) {
	pair, err := m.tr.SignIn(ctx, creds)
	if err != nil {
		// Credential failure leaves the machine in LOGGED_OUT untouched.
		return m.Current(), err
	}

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()
	installed, err := m.adopt(ctx, pair, epoch)
	if err != nil {
		return m.Current(), err
	}
	if !installed {
		return m.Current(), nil
	}

	if user, err := m.tr.Me(ctx); err != nil {
		logger.Warnf("session: profile fetch after sign-in failed: %v", err)
	} else {
		m.mu.Lock()
		if m.status == StatusAuthenticated {
			m.user = user
		}
		m.mu.Unlock()
	}

	return m.Current(), nil
}

// SignUp creates the account and signs it in.
func (m *Manager) SignUp(ctx context.Context, signup models.Signup) (Session, error) {
	if err := m.tr.CreateAccount(ctx, signup); err != nil {
		return m.Current(), err
	}
	return m.SignIn(ctx, models.Credentials{Username: signup.Username, Password: signup.Password})
}

// Refresh validates the held refresh token against the server. With no
// refresh token it is a no-op success (already logged out). Any
// failure, network or rejection, clears the session unconditionally;
// a refresh is never retried. Concurrent callers coalesce onto the
// first in-flight refresh and share its result.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if f := m.inflight; f != nil {
		m.mu.Unlock()
		metrics.SessionRefreshCoalesced.Inc()
		<-f.done
		return f.ses, f.err
	}
	if m.refresh == "" {
		m.status = StatusUnauthenticated
		ses := m.sessionLocked()
		m.mu.Unlock()
		return ses, nil
	}
	f := &flight{done: make(chan struct{})}
	m.inflight = f
	refreshToken := m.refresh
	epoch := m.epoch
	m.mu.Unlock()

	pair, err := m.tr.RefreshToken(ctx, refreshToken)

	m.mu.Lock()
	if m.epoch != epoch {
		// A sign-out landed while the call was in flight; it wins.
		f.ses = m.sessionLocked()
		f.err = nil
		m.finishLocked(f)
		m.mu.Unlock()
		return f.ses, f.err
	}
	m.mu.Unlock()

	if err != nil {
		logger.Infof("session: refresh rejected, clearing session: %v", err)
		metrics.SessionRefreshes.WithLabelValues("failure").Inc()
		m.teardown(ctx)
		m.mu.Lock()
		f.ses = m.sessionLocked()
		f.err = err
		m.finishLocked(f)
		m.mu.Unlock()
		return f.ses, f.err
	}

	installed, err := m.adopt(ctx, pair, epoch)
	if err != nil {
		metrics.SessionRefreshes.WithLabelValues("failure").Inc()
		m.mu.Lock()
		f.ses = m.sessionLocked()
		f.err = err
		m.finishLocked(f)
		m.mu.Unlock()
		return f.ses, f.err
	}

	if installed {
		metrics.SessionRefreshes.WithLabelValues("success").Inc()
	}
	m.mu.Lock()
	f.ses = m.sessionLocked()
	m.finishLocked(f)
	m.mu.Unlock()
	return f.ses, nil
}

func (m *Manager) finishLocked(f *flight) {
	if m.inflight == f {
		m.inflight = nil
	}
	close(f.done)
}

// SignOut logs out best-effort on the server, then unconditionally
// clears local state. The user must always be able to leave a session
// locally even with the network down, so a failed server logout is
// logged and swallowed.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.tr.Logout(ctx); err != nil {
		logger.Warnf("session: server logout failed (ignored): %v", err)
	}
	m.teardown(ctx)
}

// Restore loads persisted tokens, trusts them optimistically and
// immediately validates them via Refresh. Invalid tokens fall through
// to the logged-out state on Refresh's own failure path.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	access, okA, err := m.store.Get(ctx, kvstore.KeyAccessToken)
	if err != nil {
		m.teardown(ctx)
		return m.Current(), err
	}
	refresh, okR, err := m.store.Get(ctx, kvstore.KeyRefreshToken)
	if err != nil {
		m.teardown(ctx)
		return m.Current(), err
	}
	if !okA || !okR {
		if okA || okR {
			// A lone token is a half-written pair; clear it rather than
			// letting the mismatch persist across restarts.
			m.store.Wipe(ctx, kvstore.KeyAccessToken, kvstore.KeyRefreshToken)
		}
		m.mu.Lock()
		m.status = StatusUnauthenticated
		ses := m.sessionLocked()
		m.mu.Unlock()
		return ses, nil
	}

	m.mu.Lock()
	m.access = access
	m.refresh = refresh
	m.status = StatusAuthenticated
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// CurrentUser returns the profile, lazily re-fetching it when the
// session is authenticated but the profile is missing (for example
// because the fetch after sign-in failed). A failed re-fetch leaves
// the profile nil; the next call tries again.
func (m *Manager) CurrentUser(ctx context.Context) *models.User {
	m.mu.Lock()
	if m.status != StatusAuthenticated {
		m.mu.Unlock()
		return nil
	}
	if m.user != nil {
		cp := *m.user
		m.mu.Unlock()
		return &cp
	}
	m.mu.Unlock()

	user, err := m.tr.Me(ctx)
	if err != nil {
		logger.Debugf("session: lazy profile fetch failed: %v", err)
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusAuthenticated {
		return nil
	}
	m.user = user
	cp := *m.user
	return &cp
}

// markRestoring moves an uninitialized session into StatusRestoring.
// Only Bootstrap calls this, and only once.
func (m *Manager) markRestoring() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusUninitialized {
		m.status = StatusRestoring
	}
}

// adopt persists a freshly issued pair and installs it in memory. The
// store writes are suspension points, so the epoch captured before the
// network call is re-checked under the lock before install: a sign-out
// that completed while the pair was being written wins, and the
// just-written keys are wiped again. installed reports whether the
// pair took effect. Both stores hold the pair after an installed
// return; after any failure, including a partial write, neither store
// nor memory has it.
func (m *Manager) adopt(ctx context.Context, pair models.TokenPair, epoch uint64) (installed bool, err error) {
	if err := m.persist(ctx, pair); err != nil {
		m.teardown(ctx)
		return false, err
	}
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		logger.Infof("session: sign-out landed while persisting tokens, discarding pair")
		m.store.Wipe(ctx, kvstore.KeyAccessToken, kvstore.KeyRefreshToken)
		return false, nil
	}
	m.access = pair.AccessToken
	m.refresh = pair.RefreshToken
	m.status = StatusAuthenticated
	m.mu.Unlock()
	return true, nil
}

func (m *Manager) persist(ctx context.Context, pair models.TokenPair) error {
	if err := m.store.Set(ctx, kvstore.KeyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	return m.store.Set(ctx, kvstore.KeyRefreshToken, pair.RefreshToken)
}

// teardown clears memory and both physical stores. Wipe is best
// effort: a store that cannot even delete leaves nothing worse than a
// token the server already refuses.
func (m *Manager) teardown(ctx context.Context) {
	m.mu.Lock()
	m.epoch++
	m.access = ""
	m.refresh = ""
	m.user = nil
	m.status = StatusUnauthenticated
	m.mu.Unlock()
	m.store.Wipe(ctx, kvstore.KeyAccessToken, kvstore.KeyRefreshToken)
}
