package payment

import (
	"time"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
)

// Payment represents a single money receipt tied to one matter, optionally
// one invoice, and one client. The invoice reference is weak: voiding or
// deleting the invoice nulls the link rather than blocking on the payment.
type Payment struct {
	ID          string              `bson:"_id" json:"id"`
	MatterID    string              `bson:"matter_id" json:"matter_id"`
	InvoiceID   *string             `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	ClientID    string              `bson:"client_id" json:"client_id"`
	Amount      decimal.Decimal     `bson:"amount" json:"amount"`
	Method      types.PaymentMethod `bson:"method" json:"method"`
	PaymentDate time.Time           `bson:"payment_date" json:"payment_date"`
	Reference   string              `bson:"reference,omitempty" json:"reference,omitempty"`
	Metadata    types.Metadata      `bson:"metadata,omitempty" json:"metadata,omitempty"`

	types.BaseModel `bson:",inline"`
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if p.MatterID == "" {
		return ierr.NewError("invalid matter id").
			WithHint("Payment must reference a matter").
			Mark(ierr.ErrValidation)
	}
	if p.ClientID == "" {
		return ierr.NewError("invalid client id").
			WithHint("Payment must reference a client").
			Mark(ierr.ErrValidation)
	}
	if err := p.Method.Validate(); err != nil {
		return err
	}
	if p.PaymentDate.IsZero() {
		return ierr.NewError("invalid payment date").
			WithHint("Payment date is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
