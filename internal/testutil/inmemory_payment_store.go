package testutil

import (
	"context"
	"sort"

	"github.com/lexcore/lexcore/internal/domain/payment"
	ierr "github.com/lexcore/lexcore/internal/errors"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	c := *p
	if p.InvoiceID != nil {
		invoiceID := *p.InvoiceID
		c.InvoiceID = &invoiceID
	}
	return &c
}

// Create stores a new payment
func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	if err := s.InMemoryStore.Create(ctx, p.ID, copyPayment(p)); err != nil {
		return ierr.WithError(err).
			WithHint("A payment with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

// Get retrieves a payment by ID
func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Payment with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

// Delete removes a payment record
func (s *InMemoryPaymentStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.WithError(err).
			WithHintf("Payment with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// ListByMatter returns the matter's non-deleted payments ordered by payment
// date
func (s *InMemoryPaymentStore) ListByMatter(ctx context.Context, matterID string) ([]*payment.Payment, error) {
	return s.list(func(p *payment.Payment) bool {
		return p.MatterID == matterID
	}), nil
}

// ListByInvoice returns the non-deleted payments linked to an invoice
func (s *InMemoryPaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	return s.list(func(p *payment.Payment) bool {
		return p.InvoiceID != nil && *p.InvoiceID == invoiceID
	}), nil
}

func (s *InMemoryPaymentStore) list(match func(*payment.Payment) bool) []*payment.Payment {
	result := make([]*payment.Payment, 0)
	for _, p := range s.All() {
		if p.IsDeleted || !match(p) {
			continue
		}
		result = append(result, copyPayment(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PaymentDate.Before(result[j].PaymentDate)
	})
	return result
}
