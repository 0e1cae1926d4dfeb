package matter

import "context"

// Repository defines the interface for matter persistence operations
type Repository interface {
	// Create creates a new matter
	Create(ctx context.Context, matter *Matter) error

	// Get retrieves a matter by ID
	Get(ctx context.Context, id string) (*Matter, error)

	// Update updates an existing matter
	Update(ctx context.Context, matter *Matter) error

	// AttachInvoice appends an invoice reference to the matter's invoice list
	AttachInvoice(ctx context.Context, matterID, invoiceID string) error

	// AttachPayment appends a payment reference to the matter's payment list
	AttachPayment(ctx context.Context, matterID, paymentID string) error

	// DetachPayment removes a payment reference from the matter's payment list
	DetachPayment(ctx context.Context, matterID, paymentID string) error

	// UpdateFinancials writes the derived financial summary in one update
	UpdateFinancials(ctx context.Context, matterID string, summary FinancialSummary) error
}
