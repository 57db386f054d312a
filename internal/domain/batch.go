package domain

import "time"

// BulkOperationKind selects the repository primitive a bulk operation runs.
type BulkOperationKind string

const (
	BulkDeactivate       BulkOperationKind = "deactivate"
	BulkReactivate       BulkOperationKind = "reactivate"
	BulkDelete           BulkOperationKind = "delete"
	BulkUpdateStatus     BulkOperationKind = "update_status"
	BulkUpdateExpiration BulkOperationKind = "update_expiration"
	BulkCreate           BulkOperationKind = "create"
)

// Valid reports whether the kind names a known bulk operation.
func (k BulkOperationKind) Valid() bool {
	switch k {
	case BulkDeactivate, BulkReactivate, BulkDelete, BulkUpdateStatus, BulkUpdateExpiration, BulkCreate:
		return true
	}
	return false
}

// BulkParams carries the optional values a bulk mutation may need.
// update_status requires Active, update_expiration requires ExpiresAt.
type BulkParams struct {
	Active    *bool
	ExpiresAt *time.Time
}

// BulkCreateRequest is one item of a bulk URL creation submission.
type BulkCreateRequest struct {
	OriginalURL string
	CustomCode  string
	ExpiresAt   *time.Time
}

// BatchItemResult is the outcome of one entity within a batch call.
type BatchItemResult struct {
	EntityID int64
	Success  bool
	Error    string
}

// BatchResult aggregates the per-item outcomes of one repository batch call.
type BatchResult struct {
	TotalProcessed int
	Successful     int
	Failed         int
	Results        []BatchItemResult
}
