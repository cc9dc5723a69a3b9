package portal

import (
	"context"

	"github.com/bizhub/portal-client/internal/cache"
	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/transport"
)

const partnersKey = "partners"

// Partners mirrors Users for the partner admin table.
type Partners struct {
	tr    transport.Transport
	cache *cache.Cache[models.Partner]
}

func NewPartners(tr transport.Transport) *Partners {
	return &Partners{
		tr: tr,
		cache: cache.New(
			func(p models.Partner) string { return p.ID },
			func(p *models.Partner, id string) { p.ID = id },
			func(ctx context.Context, _ string) ([]models.Partner, error) { return tr.ListPartners(ctx) },
		),
	}
}

func (s *Partners) List(ctx context.Context) (rows []models.Partner, fromCache bool, err error) {
	return s.cache.Fetch(ctx, partnersKey)
}

// Refresh forces a synchronous revalidation against the server,
// bypassing the stale-while-revalidate read path.
func (s *Partners) Refresh(ctx context.Context) ([]models.Partner, error) {
	return s.cache.Revalidate(ctx, partnersKey)
}

func (s *Partners) Get(id string) (models.Partner, bool) {
	return s.cache.Record(id)
}

func (s *Partners) Create(ctx context.Context, input models.Partner) (models.Partner, error) {
	return s.cache.Create(ctx, input, func(ctx context.Context) (models.Partner, error) {
		return s.tr.CreatePartner(ctx, input)
	})
}

func (s *Partners) Update(ctx context.Context, id string, value models.Partner) (models.Partner, error) {
	return s.cache.Update(ctx, id, value, func(ctx context.Context) (models.Partner, error) {
		return s.tr.UpdatePartner(ctx, id, value)
	})
}

func (s *Partners) Remove(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		return s.tr.DeletePartner(ctx, id)
	})
}

func (s *Partners) Invalidate() { s.cache.Invalidate(partnersKey) }
