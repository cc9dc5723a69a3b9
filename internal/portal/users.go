package portal

import (
	"context"

	"github.com/bizhub/portal-client/internal/cache"
	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/transport"
)

const usersKey = "users"

// Users exposes the user admin table's read model: cached listing
// with background revalidation, and optimistic create/update/remove
// that roll back on server rejection.
type Users struct {
	tr    transport.Transport
	cache *cache.Cache[models.User]
}

func NewUsers(tr transport.Transport) *Users {
	return &Users{
		tr: tr,
		cache: cache.New(
			func(u models.User) string { return u.ID },
			func(u *models.User, id string) { u.ID = id },
			func(ctx context.Context, _ string) ([]models.User, error) { return tr.ListUsers(ctx) },
		),
	}
}

// List returns the user rows; fromCache is true when served stale
// while a background revalidation runs.
func (s *Users) List(ctx context.Context) (rows []models.User, fromCache bool, err error) {
	return s.cache.Fetch(ctx, usersKey)
}

// Refresh forces a synchronous revalidation against the server,
// bypassing the stale-while-revalidate read path.
func (s *Users) Refresh(ctx context.Context) ([]models.User, error) {
	return s.cache.Revalidate(ctx, usersKey)
}

// Get returns the cached record for id, if present.
func (s *Users) Get(id string) (models.User, bool) {
	return s.cache.Record(id)
}

func (s *Users) Create(ctx context.Context, input models.User) (models.User, error) {
	return s.cache.Create(ctx, input, func(ctx context.Context) (models.User, error) {
		return s.tr.CreateUser(ctx, input)
	})
}

func (s *Users) Update(ctx context.Context, id string, value models.User) (models.User, error) {
	return s.cache.Update(ctx, id, value, func(ctx context.Context) (models.User, error) {
		return s.tr.UpdateUser(ctx, id, value)
	})
}

func (s *Users) Remove(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		return s.tr.DeleteUser(ctx, id)
	})
}

// Invalidate drops the cached listing so the next List hits the server.
func (s *Users) Invalidate() { s.cache.Invalidate(usersKey) }
