package usecase

import (
	"sync"
	"time"

	"shortlink/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultOperationRetention is how long terminal operations stay queryable
// before cleanup evicts them.
const DefaultOperationRetention = 24 * time.Hour

// ProgressStore is the key-value store backing the tracker. Implementations
// must be safe for concurrent access across operation ids and must store and
// return records by value so no live reference escapes.
type ProgressStore interface {
	Put(op domain.OperationProgress)
	Get(id string) (domain.OperationProgress, bool)
	Delete(id string)
	ByUser(userID string) []domain.OperationProgress
	All() []domain.OperationProgress
}

// ProgressTracker is the ledger of bulk-operation state. One background
// worker drives each operation's counters; cancellation arrives out of band,
// so every read-modify-write below runs under the tracker mutex.
type ProgressTracker struct {
	store     ProgressStore
	logger    *zap.Logger
	retention time.Duration

	mu sync.Mutex
}

// NewProgressTracker creates a tracker over store. A non-positive retention
// falls back to DefaultOperationRetention.
func NewProgressTracker(store ProgressStore, logger *zap.Logger, retention time.Duration) *ProgressTracker {
	if retention <= 0 {
		retention = DefaultOperationRetention
	}
	return &ProgressTracker{store: store, logger: logger, retention: retention}
}

// CreateOperation allocates a Pending record and returns its id.
func (t *ProgressTracker) CreateOperation(userID string, kind domain.BulkOperationKind, total int) string {
	id := uuid.NewString()
	t.store.Put(domain.NewOperationProgress(id, userID, kind, total))
	return id
}

// Start moves a Pending operation to Processing.
func (t *ProgressTracker) Start(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.store.Get(id)
	if !ok {
		return domain.ErrOperationNotFound
	}
	if op.Status.Terminal() {
		return domain.ErrOperationFinished
	}
	op.Status = domain.StatusProcessing
	op.UpdatedAt = time.Now().UTC()
	t.store.Put(op)
	return nil
}

// UpdateProgress records the accumulated counters and derives the status:
// Processing while processed < total, then Completed unless every item
// failed, in which case Failed. A zero-total operation completes vacuously
// on its first update. A Cancelled status is sticky; counter updates never
// overwrite it, so a cancellation observed by the worker stays authoritative.
func (t *ProgressTracker) UpdateProgress(id string, processed, successful, failed int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.store.Get(id)
	if !ok {
		return domain.ErrOperationNotFound
	}

	if processed > op.TotalItems {
		processed = op.TotalItems
	}
	op.ProcessedItems = processed
	op.SuccessfulItems = successful
	op.FailedItems = failed
	if op.TotalItems > 0 {
		op.ProgressPercentage = float64(processed) / float64(op.TotalItems) * 100
	} else {
		op.ProgressPercentage = 0
	}

	if op.Status != domain.StatusCancelled {
		switch {
		case op.ProcessedItems < op.TotalItems:
			op.Status = domain.StatusProcessing
		case op.FailedItems == 0 || op.SuccessfulItems > 0:
			op.Status = domain.StatusCompleted
		default:
			op.Status = domain.StatusFailed
		}
	}

	op.UpdatedAt = time.Now().UTC()
	t.store.Put(op)
	return nil
}

// Cancel marks an operation Cancelled. The actual stop is cooperative: the
// worker checks for it between chunks. Cancelling an operation that already
// Completed or Failed is refused; cancelling twice is a no-op.
func (t *ProgressTracker) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.store.Get(id)
	if !ok {
		return domain.ErrOperationNotFound
	}
	if op.Status == domain.StatusCancelled {
		return nil
	}
	if op.Status.Terminal() {
		return domain.ErrOperationFinished
	}
	op.Status = domain.StatusCancelled
	op.UpdatedAt = time.Now().UTC()
	t.store.Put(op)
	return nil
}

// Progress returns a snapshot of one operation.
func (t *ProgressTracker) Progress(id string) (domain.OperationProgress, error) {
	op, ok := t.store.Get(id)
	if !ok {
		return domain.OperationProgress{}, domain.ErrOperationNotFound
	}
	return op, nil
}

// UserOperations returns snapshots of all operations submitted by a user.
func (t *ProgressTracker) UserOperations(userID string) []domain.OperationProgress {
	return t.store.ByUser(userID)
}

// CleanupOldOperations evicts terminal operations whose last update is older
// than the retention window and returns how many were removed. Live
// operations are never touched regardless of age.
func (t *ProgressTracker) CleanupOldOperations() int {
	cutoff := time.Now().UTC().Add(-t.retention)
	removed := 0
	for _, op := range t.store.All() {
		if op.Status.Terminal() && op.UpdatedAt.Before(cutoff) {
			t.store.Delete(op.ID)
			removed++
		}
	}
	if removed > 0 {
		t.logger.Info("evicted old operations", zap.Int("count", removed))
	}
	return removed
}

// StartCleanup runs CleanupOldOperations on a fixed interval until the
// returned stop function is called.
func (t *ProgressTracker) StartCleanup(interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.CleanupOldOperations()
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}
