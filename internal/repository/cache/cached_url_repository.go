package cache

import (
	"context"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"
)

// Compile-time interface check
var _ usecase.URLRepository = (*CachedURLRepository)(nil)

// CachedURLRepository decorates a URLRepository with a URLCache. Lookups by
// short code hit the cache first; mutations that address URLs by id only
// (deletes and the batch primitives) cannot name the cached key, so their
// entries age out with the TTL instead of being invalidated.
type CachedURLRepository struct {
	repo  usecase.URLRepository
	cache URLCache
}

// NewCachedURLRepository wraps repo with cache.
func NewCachedURLRepository(repo usecase.URLRepository, cache URLCache) *CachedURLRepository {
	return &CachedURLRepository{repo: repo, cache: cache}
}

func (r *CachedURLRepository) Create(ctx context.Context, u *domain.URL) (*domain.URL, error) {
	created, err := r.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, created)
	return created, nil
}

func (r *CachedURLRepository) FindByShortCode(ctx context.Context, code string) (*domain.URL, error) {
	if cached, err := r.cache.Get(ctx, code); err == nil && cached != nil {
		return cached, nil
	}

	u, err := r.repo.FindByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, u)
	return u, nil
}

func (r *CachedURLRepository) FindByUserID(ctx context.Context, userID string) ([]domain.URL, error) {
	return r.repo.FindByUserID(ctx, userID)
}

// ExistsByShortCode is never served from cache; collision probing needs the
// authoritative answer.
func (r *CachedURLRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	return r.repo.ExistsByShortCode(ctx, code)
}

func (r *CachedURLRepository) Update(ctx context.Context, u *domain.URL) error {
	if err := r.repo.Update(ctx, u); err != nil {
		return err
	}
	_ = r.cache.Invalidate(ctx, u.ShortCode)
	return nil
}

func (r *CachedURLRepository) Delete(ctx context.Context, id int64) error {
	return r.repo.Delete(ctx, id)
}

func (r *CachedURLRepository) BatchDeactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.repo.BatchDeactivate(ctx, ids, userID)
}

func (r *CachedURLRepository) BatchReactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.repo.BatchReactivate(ctx, ids, userID)
}

func (r *CachedURLRepository) BatchDelete(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.repo.BatchDelete(ctx, ids, userID)
}

func (r *CachedURLRepository) BatchUpdateStatus(ctx context.Context, ids []int64, userID string, active bool) (*domain.BatchResult, error) {
	return r.repo.BatchUpdateStatus(ctx, ids, userID, active)
}

func (r *CachedURLRepository) BatchUpdateExpiration(ctx context.Context, ids []int64, userID string, expiresAt *time.Time) (*domain.BatchResult, error) {
	return r.repo.BatchUpdateExpiration(ctx, ids, userID, expiresAt)
}
