package repository

import (
	"context"
	"time"

	"feedhistd/internal/domain/entity"
)

// SourceRepository persists the source catalog: the feed URLs this service
// knows to reconstruct history for. Just the CRUD surface a catalog needs —
// no crawl bookkeeping, since feedhistd does not crawl on its own schedule.
type SourceRepository interface {
	Get(ctx context.Context, id string) (*entity.TrackedSource, error)
	List(ctx context.Context) ([]*entity.TrackedSource, error)
	ListActive(ctx context.Context) ([]*entity.TrackedSource, error)
	Search(ctx context.Context, keyword string) ([]*entity.TrackedSource, error)
	Create(ctx context.Context, source *entity.TrackedSource) error
	Update(ctx context.Context, source *entity.TrackedSource) error
	Delete(ctx context.Context, id string) error
	TouchRequestedAt(ctx context.Context, id string, t time.Time) error
}
