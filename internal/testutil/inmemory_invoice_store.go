package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/lexcore/lexcore/internal/domain/invoice"
	ierr "github.com/lexcore/lexcore/internal/errors"
)

// InMemoryInvoiceStore implements invoice.Repository. Individual operations
// can be primed to fail once, so transactional rollback paths are testable.
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu       sync.Mutex
	failNext map[string]error
}

// NewInMemoryInvoiceStore creates a new in-memory invoice repository
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		failNext:      make(map[string]error),
	}
}

// FailOnce makes the next call of the named operation ("create", "update")
// return err instead of executing
func (s *InMemoryInvoiceStore) FailOnce(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = err
}

func (s *InMemoryInvoiceStore) takeFailure(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.failNext[op]
	delete(s.failNext, op)
	return err
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	c := *inv
	c.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
	for i, line := range inv.LineItems {
		lineCopy := *line
		c.LineItems[i] = &lineCopy
	}
	c.Attachments = append([]string(nil), inv.Attachments...)
	return &c
}

// Create stores a new invoice
func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.takeFailure("create"); err != nil {
		return err
	}
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	if err := s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return ierr.WithError(err).
			WithHint("An invoice with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

// Get retrieves an invoice by ID
func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

// Update replaces an existing invoice
func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.takeFailure("update"); err != nil {
		return err
	}
	if err := s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return ierr.WithError(err).
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// ListByMatter returns the matter's non-deleted invoices ordered by creation
// time
func (s *InMemoryInvoiceStore) ListByMatter(ctx context.Context, matterID string) ([]*invoice.Invoice, error) {
	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.All() {
		if inv.MatterID != matterID || inv.IsDeleted {
			continue
		}
		result = append(result, copyInvoice(inv))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
