package payment

import "context"

// Repository defines the interface for payment persistence operations
type Repository interface {
	// Create creates a new payment
	Create(ctx context.Context, payment *Payment) error

	// Get retrieves a payment by ID
	Get(ctx context.Context, id string) (*Payment, error)

	// Delete removes a payment record
	Delete(ctx context.Context, id string) error

	// ListByMatter retrieves all non-deleted payments for a matter
	ListByMatter(ctx context.Context, matterID string) ([]*Payment, error)

	// ListByInvoice retrieves all non-deleted payments linked to an invoice
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)
}
