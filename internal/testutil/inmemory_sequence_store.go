package testutil

import (
	"context"
	"fmt"
	"sync"
)

// InMemorySequenceStore implements invoice.SequenceRepository
type InMemorySequenceStore struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewInMemorySequenceStore creates a new in-memory sequence repository
func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		values: make(map[string]int64),
	}
}

// NextSequence atomically increments and returns the next value for the
// tenant and month
func (s *InMemorySequenceStore) NextSequence(ctx context.Context, tenantID, yearMonth string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s:%s", tenantID, yearMonth)
	s.values[key]++
	return s.values[key], nil
}

// Clear resets all sequences
func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]int64)
}

// Snapshot captures the current sequence values
func (s *InMemorySequenceStore) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[string]int64, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	return snap
}

// Restore replaces the sequence values with a previously captured snapshot
func (s *InMemorySequenceStore) Restore(snapshot any) {
	snap, ok := snapshot.(map[string]int64)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]int64, len(snap))
	for k, v := range snap {
		s.values[k] = v
	}
}
