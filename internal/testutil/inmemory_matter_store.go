package testutil

import (
	"context"

	"github.com/lexcore/lexcore/internal/domain/matter"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/samber/lo"
)

// InMemoryMatterStore implements matter.Repository
type InMemoryMatterStore struct {
	*InMemoryStore[*matter.Matter]
}

// NewInMemoryMatterStore creates a new in-memory matter repository
func NewInMemoryMatterStore() *InMemoryMatterStore {
	return &InMemoryMatterStore{
		InMemoryStore: NewInMemoryStore[*matter.Matter](),
	}
}

func copyMatter(m *matter.Matter) *matter.Matter {
	c := *m
	c.TeamMemberIDs = append([]string(nil), m.TeamMemberIDs...)
	c.InvoiceIDs = append([]string(nil), m.InvoiceIDs...)
	c.PaymentIDs = append([]string(nil), m.PaymentIDs...)
	return &c
}

// Create stores a new matter
func (s *InMemoryMatterStore) Create(ctx context.Context, m *matter.Matter) error {
	if m == nil {
		return ierr.NewError("matter cannot be nil").
			WithHint("Matter cannot be nil").
			Mark(ierr.ErrValidation)
	}

	if err := s.InMemoryStore.Create(ctx, m.ID, copyMatter(m)); err != nil {
		return ierr.WithError(err).
			WithHint("A matter with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

// Get retrieves a matter by ID
func (s *InMemoryMatterStore) Get(ctx context.Context, id string) (*matter.Matter, error) {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Matter with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyMatter(m), nil
}

// Update replaces an existing matter
func (s *InMemoryMatterStore) Update(ctx context.Context, m *matter.Matter) error {
	if err := s.InMemoryStore.Update(ctx, m.ID, copyMatter(m)); err != nil {
		return ierr.WithError(err).
			WithHintf("Matter with ID %s was not found", m.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// AttachInvoice appends an invoice reference if it is not already present
func (s *InMemoryMatterStore) AttachInvoice(ctx context.Context, matterID, invoiceID string) error {
	m, err := s.Get(ctx, matterID)
	if err != nil {
		return err
	}
	if !lo.Contains(m.InvoiceIDs, invoiceID) {
		m.InvoiceIDs = append(m.InvoiceIDs, invoiceID)
	}
	return s.Update(ctx, m)
}

// AttachPayment appends a payment reference if it is not already present
func (s *InMemoryMatterStore) AttachPayment(ctx context.Context, matterID, paymentID string) error {
	m, err := s.Get(ctx, matterID)
	if err != nil {
		return err
	}
	if !lo.Contains(m.PaymentIDs, paymentID) {
		m.PaymentIDs = append(m.PaymentIDs, paymentID)
	}
	return s.Update(ctx, m)
}

// DetachPayment removes a payment reference from the matter's payment list
func (s *InMemoryMatterStore) DetachPayment(ctx context.Context, matterID, paymentID string) error {
	m, err := s.Get(ctx, matterID)
	if err != nil {
		return err
	}
	m.PaymentIDs = lo.Reject(m.PaymentIDs, func(id string, _ int) bool {
		return id == paymentID
	})
	return s.Update(ctx, m)
}

// UpdateFinancials writes the derived financial summary
func (s *InMemoryMatterStore) UpdateFinancials(ctx context.Context, matterID string, summary matter.FinancialSummary) error {
	m, err := s.Get(ctx, matterID)
	if err != nil {
		return err
	}
	m.Financials = summary
	return s.Update(ctx, m)
}
