package portal

import (
	"context"
	"sync"

	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/session"
	"github.com/bizhub/portal-client/internal/transport"
)

// Client is the surface handed to UI code: the session API plus one
// service per entity collection. One Client per process, created at
// startup and injected wherever needed; Bootstrap (via Start) gates
// protected rendering.
type Client struct {
	mgr      *session.Manager
	boot     *session.Bootstrap
	users    *Users
	partners *Partners

	mu      sync.Mutex
	lastErr error
}

func NewClient(tr transport.Transport, mgr *session.Manager) *Client {
	return &Client{
		mgr:      mgr,
		boot:     session.NewBootstrap(mgr),
		users:    NewUsers(tr),
		partners: NewPartners(tr),
	}
}

// Start restores any persisted session. Idempotent; concurrent calls
// share the first restoration's outcome.
func (c *Client) Start(ctx context.Context) (session.Session, error) {
	ses, err := c.boot.Run(ctx)
	c.record(err)
	return ses, err
}

// IsLoading reports whether startup restoration is still pending.
func (c *Client) IsLoading() bool { return !c.boot.Done() }

func (c *Client) SignIn(ctx context.Context, creds models.Credentials) (session.Session, error) {
	ses, err := c.mgr.SignIn(ctx, creds)
	c.record(err)
	return ses, err
}

func (c *Client) SignUp(ctx context.Context, signup models.Signup) (session.Session, error) {
	ses, err := c.mgr.SignUp(ctx, signup)
	c.record(err)
	return ses, err
}

// SignOut never fails from the caller's perspective and clears any
// remembered error: the session always ends cleanly terminated.
func (c *Client) SignOut(ctx context.Context) {
	c.mgr.SignOut(ctx)
	c.record(nil)
}

func (c *Client) IsAuthenticated() bool { return c.mgr.IsAuthenticated() }

func (c *Client) Session() session.Session { return c.mgr.Current() }

func (c *Client) CurrentUser(ctx context.Context) *models.User {
	return c.mgr.CurrentUser(ctx)
}

// LastError returns the human-readable message of the most recent
// failed session operation, empty when the last operation succeeded.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return ""
	}
	return c.lastErr.Error()
}

func (c *Client) record(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// Users is the user-collection service.
func (c *Client) Users() *Users { return c.users }

// Partners is the partner-collection service.
func (c *Client) Partners() *Partners { return c.partners }
