package notification

import "github.com/lexcore/lexcore/internal/types"

// Type categorizes a notification for client-side rendering/routing
type Type string

const (
	TypePaymentReceived Type = "payment_received"
	TypePaymentReversed Type = "payment_reversed"
	TypeInvoiceCreated  Type = "invoice_created"
	TypeInvoiceStatus   Type = "invoice_status_changed"
	TypeInvoiceVoided   Type = "invoice_voided"
)

// Notification is one message fanned out to a set of recipients after a
// successful mutation
type Notification struct {
	ID         string         `json:"id"`
	Recipients []string       `json:"recipients"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Type       Type           `json:"type"`
	RelatedID  string         `json:"related_id,omitempty"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

// New builds a notification with a generated id
func New(t Type, title, message, relatedID string, recipients []string) *Notification {
	return &Notification{
		ID:         types.GenerateUUIDWithPrefix(types.UUIDPrefixNotification),
		Recipients: recipients,
		Title:      title,
		Message:    message,
		Type:       t,
		RelatedID:  relatedID,
	}
}
