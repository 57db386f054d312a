package usecase

import (
	"context"
	"time"

	"shortlink/internal/domain"
)

// URLRepository is the persistence contract for shortened URLs.
//
// The batch primitives mutate many rows in one call and report per-item
// outcomes. They must only touch rows owned by userID; ids belonging to
// other users (or missing entirely) are reported as failed items, not
// errors. Short-code uniqueness is enforced here by a storage constraint;
// Create returns domain.ErrShortCodeExists when it is violated.
type URLRepository interface {
	Create(ctx context.Context, u *domain.URL) (*domain.URL, error)
	FindByShortCode(ctx context.Context, code string) (*domain.URL, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.URL, error)
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, u *domain.URL) error
	Delete(ctx context.Context, id int64) error

	BatchDeactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error)
	BatchReactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error)
	BatchDelete(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error)
	BatchUpdateStatus(ctx context.Context, ids []int64, userID string, active bool) (*domain.BatchResult, error)
	BatchUpdateExpiration(ctx context.Context, ids []int64, userID string, expiresAt *time.Time) (*domain.BatchResult, error)
}
