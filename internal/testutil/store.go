package testutil

import (
	"context"
	"fmt"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can capture and
// restore their full state, so the mock document client can roll a failed
// transaction back.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// InMemoryStore implements a generic in-memory store keyed by id.
// Typed stores built on it keep defensive copies of their records so a
// restored snapshot is unaffected by later mutation of returned documents.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewInMemoryStore creates a new InMemoryStore
func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items: make(map[string]T),
	}
}

// Create adds a new item to the store
func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return fmt.Errorf("item already exists")
	}

	s.items[id] = item
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return item, nil
	}

	var zero T
	return zero, fmt.Errorf("item not found")
}

// Update updates an existing item
func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("item not found")
	}

	s.items[id] = item
	return nil
}

// Delete removes an item from the store
func (s *InMemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("item not found")
	}

	delete(s.items, id)
	return nil
}

// All returns every stored item in unspecified order
func (s *InMemoryStore[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, item)
	}
	return result
}

// Clear removes all items from the store
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}

// Snapshot captures the current id set and record pointers
func (s *InMemoryStore[T]) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]T, len(s.items))
	for k, v := range s.items {
		snap[k] = v
	}
	return snap
}

// Restore replaces the store contents with a previously captured snapshot
func (s *InMemoryStore[T]) Restore(snapshot any) {
	snap, ok := snapshot.(map[string]T)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(snap))
	for k, v := range snap {
		s.items[k] = v
	}
}
