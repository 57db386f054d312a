package mocks

import (
	"context"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockClickRepository is a testify mock for usecase.ClickRepository.
type MockClickRepository struct {
	mock.Mock
}

var _ usecase.ClickRepository = (*MockClickRepository)(nil)

func (m *MockClickRepository) RecordClick(ctx context.Context, click domain.ClickEvent) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockClickRepository) ClickCount(ctx context.Context, urlID int64) (int64, error) {
	args := m.Called(ctx, urlID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClickRepository) URLClickStats(ctx context.Context, urlID int64, from, to time.Time) (*domain.URLClickStats, error) {
	args := m.Called(ctx, urlID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URLClickStats), args.Error(1)
}

func (m *MockClickRepository) UserClickStats(ctx context.Context, userID string, from, to time.Time) (*domain.UserClickStats, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserClickStats), args.Error(1)
}

func (m *MockClickRepository) ClicksInRange(ctx context.Context, urlID int64, from, to time.Time) ([]domain.ClickEvent, error) {
	args := m.Called(ctx, urlID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClickEvent), args.Error(1)
}

func (m *MockClickRepository) DeleteOldClicks(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}
