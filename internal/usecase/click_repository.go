package usecase

import (
	"context"
	"time"

	"shortlink/internal/domain"
)

// ClickRepository is the persistence contract for click events and their
// aggregations. All writes go through the ClickRecorder's single consumer;
// implementations only need to be safe for concurrent reads alongside it.
type ClickRepository interface {
	RecordClick(ctx context.Context, click domain.ClickEvent) error
	ClickCount(ctx context.Context, urlID int64) (int64, error)
	URLClickStats(ctx context.Context, urlID int64, from, to time.Time) (*domain.URLClickStats, error)
	UserClickStats(ctx context.Context, userID string, from, to time.Time) (*domain.UserClickStats, error)
	ClicksInRange(ctx context.Context, urlID int64, from, to time.Time) ([]domain.ClickEvent, error)
	DeleteOldClicks(ctx context.Context, olderThan time.Time) (int64, error)
}
