// Package memory provides the in-process store backing the progress
// tracker. Operations do not survive a restart; that is an accepted
// property of the bulk pipeline, not a gap.
package memory

import (
	"sync"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"
)

// Compile-time interface check
var _ usecase.ProgressStore = (*ProgressStore)(nil)

// ProgressStore is a mutex-guarded map of operation records. Records are
// stored and returned by value, so callers never see a live reference.
type ProgressStore struct {
	mu  sync.RWMutex
	ops map[string]domain.OperationProgress
}

// NewProgressStore creates an empty store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{ops: make(map[string]domain.OperationProgress)}
}

func (s *ProgressStore) Put(op domain.OperationProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.ID] = op
}

func (s *ProgressStore) Get(id string) (domain.OperationProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.ops[id]
	return op, ok
}

func (s *ProgressStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, id)
}

func (s *ProgressStore) ByUser(userID string) []domain.OperationProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.OperationProgress
	for _, op := range s.ops {
		if op.UserID == userID {
			out = append(out, op)
		}
	}
	return out
}

func (s *ProgressStore) All() []domain.OperationProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.OperationProgress, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, op)
	}
	return out
}
