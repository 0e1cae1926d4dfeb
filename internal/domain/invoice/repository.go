package invoice

import "context"

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create creates a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update updates an existing invoice
	Update(ctx context.Context, invoice *Invoice) error

	// ListByMatter retrieves all non-deleted invoices for a matter
	ListByMatter(ctx context.Context, matterID string) ([]*Invoice, error)
}
