package usecase_test

import (
	"context"
	"testing"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/repository/memory"
	"shortlink/internal/testutil/mocks"
	"shortlink/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func idRange(from, to int64) []int64 {
	ids := make([]int64, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}

func okBatch(n int) *domain.BatchResult {
	return &domain.BatchResult{TotalProcessed: n, Successful: n}
}

func waitTerminal(t *testing.T, tracker *usecase.ProgressTracker, id string) domain.OperationProgress {
	t.Helper()
	require.Eventually(t, func() bool {
		op, err := tracker.Progress(id)
		return err == nil && op.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	op, err := tracker.Progress(id)
	require.NoError(t, err)
	return op
}

// TestProcess_MiddleChunkFails_CountsWholeChunkFailed tests the coarse
// failure accounting: 25 ids in chunks of 10, the repository rejects the
// second chunk, and all 10 of its ids count as failed.
func TestProcess_MiddleChunkFails_CountsWholeChunkFailed(t *testing.T) {
	// Setup
	repo := new(mocks.MockURLRepository)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), zap.NewNop(), time.Hour)
	processor := usecase.NewBulkOperationProcessor(repo, nil, tracker, zap.NewNop(), 0)

	ids := idRange(1, 25)
	repo.On("BatchDeactivate", mock.Anything, idRange(1, 10), "user-1").Return(okBatch(10), nil)
	repo.On("BatchDeactivate", mock.Anything, idRange(11, 20), "user-1").Return(nil, assert.AnError)
	repo.On("BatchDeactivate", mock.Anything, idRange(21, 25), "user-1").Return(okBatch(5), nil)

	opID := tracker.CreateOperation("user-1", domain.BulkDeactivate, len(ids))

	// Act
	require.NoError(t, processor.Process(context.Background(), opID, domain.BulkDeactivate, ids, domain.BulkParams{}, "user-1"))
	op := waitTerminal(t, tracker, opID)

	// Assert
	assert.Equal(t, domain.StatusCompleted, op.Status)
	assert.Equal(t, 25, op.ProcessedItems)
	assert.Equal(t, 15, op.SuccessfulItems)
	assert.Equal(t, 10, op.FailedItems)
	assert.Equal(t, 100.0, op.ProgressPercentage)
	repo.AssertExpectations(t)
}

// TestProcess_CancelBetweenChunks_StopsAtBoundary tests cooperative
// cancellation: the in-flight chunk finishes, the rest never run.
func TestProcess_CancelBetweenChunks_StopsAtBoundary(t *testing.T) {
	// Setup
	repo := new(mocks.MockURLRepository)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), zap.NewNop(), time.Hour)
	processor := usecase.NewBulkOperationProcessor(repo, nil, tracker, zap.NewNop(), 0)

	ids := idRange(1, 30)
	opID := tracker.CreateOperation("user-1", domain.BulkDelete, len(ids))

	// Cancel while the first chunk is inside the repository call, so the
	// worker sees it at the next chunk boundary.
	repo.On("BatchDelete", mock.Anything, idRange(1, 10), "user-1").
		Run(func(args mock.Arguments) {
			assert.NoError(t, tracker.Cancel(opID))
		}).
		Return(okBatch(10), nil)

	// Act
	require.NoError(t, processor.Process(context.Background(), opID, domain.BulkDelete, ids, domain.BulkParams{}, "user-1"))

	// The status flips to Cancelled inside the chunk call; wait until the
	// chunk's counters are flushed as well.
	require.Eventually(t, func() bool {
		op, err := tracker.Progress(opID)
		return err == nil && op.Status == domain.StatusCancelled && op.ProcessedItems == 10
	}, 2*time.Second, 5*time.Millisecond)

	op, err := tracker.Progress(opID)
	require.NoError(t, err)

	// Assert: cancelled, first chunk's counters flushed, no further calls.
	assert.Equal(t, 10, op.SuccessfulItems)
	repo.AssertNumberOfCalls(t, "BatchDelete", 1)
}

// TestProcess_StatusUpdateWithoutValue_FailsAllItems tests that a
// status-update submission missing its status value fails every unit without
// touching the repository.
func TestProcess_StatusUpdateWithoutValue_FailsAllItems(t *testing.T) {
	// Setup
	repo := new(mocks.MockURLRepository)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), zap.NewNop(), time.Hour)
	processor := usecase.NewBulkOperationProcessor(repo, nil, tracker, zap.NewNop(), 0)

	ids := idRange(1, 5)
	opID := tracker.CreateOperation("user-1", domain.BulkUpdateStatus, len(ids))

	// Act
	require.NoError(t, processor.Process(context.Background(), opID, domain.BulkUpdateStatus, ids, domain.BulkParams{}, "user-1"))
	op := waitTerminal(t, tracker, opID)

	// Assert
	assert.Equal(t, domain.StatusFailed, op.Status)
	assert.Equal(t, 5, op.ProcessedItems)
	assert.Equal(t, 5, op.FailedItems)
	repo.AssertNotCalled(t, "BatchUpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestProcess_UpdateExpiration_PassesValueThrough tests the parameterized
// expiration mutation path.
func TestProcess_UpdateExpiration_PassesValueThrough(t *testing.T) {
	// Setup
	repo := new(mocks.MockURLRepository)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), zap.NewNop(), time.Hour)
	processor := usecase.NewBulkOperationProcessor(repo, nil, tracker, zap.NewNop(), 0)

	expires := time.Now().UTC().Add(24 * time.Hour)
	ids := idRange(1, 3)
	repo.On("BatchUpdateExpiration", mock.Anything, ids, "user-1", &expires).Return(okBatch(3), nil)

	opID := tracker.CreateOperation("user-1", domain.BulkUpdateExpiration, len(ids))

	// Act
	require.NoError(t, processor.Process(context.Background(), opID, domain.BulkUpdateExpiration, ids, domain.BulkParams{ExpiresAt: &expires}, "user-1"))
	op := waitTerminal(t, tracker, opID)

	// Assert
	assert.Equal(t, domain.StatusCompleted, op.Status)
	repo.AssertExpectations(t)
}

// TestProcess_UnknownKind_Rejected tests submission-time validation.
func TestProcess_UnknownKind_Rejected(t *testing.T) {
	// Setup
	repo := new(mocks.MockURLRepository)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), zap.NewNop(), time.Hour)
	processor := usecase.NewBulkOperationProcessor(repo, nil, tracker, zap.NewNop(), 0)
	opID := tracker.CreateOperation("user-1", domain.BulkDelete, 1)

	// Act + Assert
	assert.Error(t, processor.Process(context.Background(), opID, domain.BulkOperationKind("shred"), []int64{1}, domain.BulkParams{}, "user-1"))
	assert.Error(t, processor.Process(context.Background(), opID, domain.BulkCreate, []int64{1}, domain.BulkParams{}, "user-1"))
}

// TestProcessCreation_MixedItems_CountsPerItem tests bulk creation: items
// run one at a time and a bad destination URL fails only its own item.
func TestProcessCreation_MixedItems_CountsPerItem(t *testing.T) {
	// Setup
	repo := new(mocks.MockURLRepository)
	repo.On("ExistsByShortCode", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(&domain.URL{ID: 1, ShortCode: "abc123"}, nil)

	logger := zap.NewNop()
	generator := usecase.NewShortCodeGenerator(repo, logger)
	urls := usecase.NewURLService(repo, generator, nil, logger)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), logger, time.Hour)
	processor := usecase.NewBulkOperationProcessor(repo, urls, tracker, logger, 0)

	requests := []domain.BulkCreateRequest{
		{OriginalURL: "https://example.com/one"},
		{OriginalURL: "not a url"},
		{OriginalURL: "https://example.com/two"},
	}
	opID := tracker.CreateOperation("user-1", domain.BulkCreate, len(requests))

	// Act
	require.NoError(t, processor.ProcessCreation(context.Background(), opID, requests, "user-1"))
	op := waitTerminal(t, tracker, opID)

	// Assert
	assert.Equal(t, domain.StatusCompleted, op.Status)
	assert.Equal(t, 3, op.ProcessedItems)
	assert.Equal(t, 2, op.SuccessfulItems)
	assert.Equal(t, 1, op.FailedItems)
	repo.AssertNumberOfCalls(t, "Create", 2)
}
