package domain

import "time"

// OperationStatus is the lifecycle state of a bulk operation.
type OperationStatus string

const (
	StatusPending    OperationStatus = "pending"
	StatusProcessing OperationStatus = "processing"
	StatusCompleted  OperationStatus = "completed"
	StatusFailed     OperationStatus = "failed"
	StatusCancelled  OperationStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s OperationStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// OperationProgress is the bookkeeping record for one bulk operation.
// It is stored and returned by value; callers never share a live record.
type OperationProgress struct {
	ID                 string
	UserID             string
	Kind               BulkOperationKind
	Status             OperationStatus
	TotalItems         int
	ProcessedItems     int
	SuccessfulItems    int
	FailedItems        int
	ProgressPercentage float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewOperationProgress allocates a Pending record for a submitted operation.
func NewOperationProgress(id, userID string, kind BulkOperationKind, total int) OperationProgress {
	now := time.Now().UTC()
	return OperationProgress{
		ID:         id,
		UserID:     userID,
		Kind:       kind,
		Status:     StatusPending,
		TotalItems: total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
