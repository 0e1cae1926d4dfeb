package testutil

import (
	"context"
	"sync"

	"github.com/lexcore/lexcore/internal/domain/auditlog"
	ierr "github.com/lexcore/lexcore/internal/errors"
)

// InMemoryAuditLogStore implements auditlog.Repository and keeps recorded
// entries in insertion order for assertions
type InMemoryAuditLogStore struct {
	mu      sync.Mutex
	entries []*auditlog.Entry
	err     error
}

// NewInMemoryAuditLogStore creates a new in-memory audit-log sink
func NewInMemoryAuditLogStore() *InMemoryAuditLogStore {
	return &InMemoryAuditLogStore{}
}

// Record persists one audit entry
func (s *InMemoryAuditLogStore) Record(ctx context.Context, entry *auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if entry == nil {
		return ierr.NewError("audit entry cannot be nil").
			WithHint("Audit entry cannot be nil").
			Mark(ierr.ErrValidation)
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns the recorded entries in insertion order
func (s *InMemoryAuditLogStore) Entries() []*auditlog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*auditlog.Entry(nil), s.entries...)
}

// SetError makes every subsequent Record call fail with err
func (s *InMemoryAuditLogStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Clear removes all recorded entries
func (s *InMemoryAuditLogStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.err = nil
}
