package mocks

import (
	"context"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockURLRepository is a testify mock for usecase.URLRepository.
type MockURLRepository struct {
	mock.Mock
}

var _ usecase.URLRepository = (*MockURLRepository)(nil)

func (m *MockURLRepository) Create(ctx context.Context, u *domain.URL) (*domain.URL, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URL), args.Error(1)
}

func (m *MockURLRepository) FindByShortCode(ctx context.Context, code string) (*domain.URL, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URL), args.Error(1)
}

func (m *MockURLRepository) FindByUserID(ctx context.Context, userID string) ([]domain.URL, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.URL), args.Error(1)
}

func (m *MockURLRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockURLRepository) Update(ctx context.Context, u *domain.URL) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockURLRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockURLRepository) BatchDeactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	args := m.Called(ctx, ids, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockURLRepository) BatchReactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	args := m.Called(ctx, ids, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockURLRepository) BatchDelete(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	args := m.Called(ctx, ids, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockURLRepository) BatchUpdateStatus(ctx context.Context, ids []int64, userID string, active bool) (*domain.BatchResult, error) {
	args := m.Called(ctx, ids, userID, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockURLRepository) BatchUpdateExpiration(ctx context.Context, ids []int64, userID string, expiresAt *time.Time) (*domain.BatchResult, error) {
	args := m.Called(ctx, ids, userID, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}
