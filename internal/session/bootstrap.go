package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/bizhub/portal-client/pkg/logger"
)

// Bootstrap runs the startup restoration exactly once. UI code gates
// protected rendering on Run (or Done); a second Run while the first
// is pending blocks on the same restoration and returns its result
// rather than restarting it. Every failure mode, including a panic
// inside restore, resolves to StatusUnauthenticated: ambiguous startup
// fails closed, never open.
type Bootstrap struct {
	mgr  *Manager
	once sync.Once
	done chan struct{}
	ses  Session
	err  error
}

func NewBootstrap(mgr *Manager) *Bootstrap {
	return &Bootstrap{mgr: mgr, done: make(chan struct{})}
}

// Run restores the persisted session. Safe to call any number of
// times from any goroutine; all callers observe the first run's
// outcome.
func (b *Bootstrap) Run(ctx context.Context) (Session, error) {
	b.once.Do(func() { b.runOnce(ctx) })
	<-b.done
	return b.ses, b.err
}

func (b *Bootstrap) runOnce(ctx context.Context) {
	defer close(b.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("session: bootstrap panicked, failing closed: %v", r)
			b.mgr.teardown(context.Background())
			b.ses = b.mgr.Current()
			b.err = fmt.Errorf("session restore panicked: %v", r)
		}
	}()

	b.mgr.markRestoring()
	ses, err := b.mgr.Restore(ctx)
	if err != nil {
		// Restore's own failure paths already cleared state; make the
		// terminal status explicit regardless of which path fired.
		b.mgr.teardown(context.Background())
		ses = b.mgr.Current()
	}
	b.ses = ses
	b.err = err
}

// Done reports whether bootstrap has resolved.
func (b *Bootstrap) Done() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Err returns the terminal bootstrap error, nil before resolution.
func (b *Bootstrap) Err() error {
	if !b.Done() {
		return nil
	}
	return b.err
}
