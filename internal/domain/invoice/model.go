package invoice

import (
	"time"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents a billable statement tied to one matter and one client.
// Subtotal, TaxAmount is caller-supplied; every other monetary field is
// derived and recomputed on every save via RecalculateTotals — caller-sent
// values for derived fields are never trusted.
type Invoice struct {
	ID            string              `bson:"_id" json:"id"`
	MatterID      string              `bson:"matter_id" json:"matter_id"`
	ClientID      string              `bson:"client_id" json:"client_id"`
	InvoiceNumber string              `bson:"invoice_number" json:"invoice_number"`
	LineItems     []*LineItem         `bson:"line_items" json:"line_items"`
	Subtotal      decimal.Decimal     `bson:"subtotal" json:"subtotal"`
	TaxAmount     decimal.Decimal     `bson:"tax_amount" json:"tax_amount"`
	TotalAmount   decimal.Decimal     `bson:"total_amount" json:"total_amount"`
	AmountPaid    decimal.Decimal     `bson:"amount_paid" json:"amount_paid"`
	BalanceDue    decimal.Decimal     `bson:"balance_due" json:"balance_due"`
	Status        types.InvoiceStatus `bson:"status" json:"status"`
	Currency      string              `bson:"currency" json:"currency"`
	IssueDate     time.Time           `bson:"issue_date" json:"issue_date"`
	DueDate       *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	PaidAt        *time.Time          `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	VoidedAt      *time.Time          `bson:"voided_at,omitempty" json:"voided_at,omitempty"`
	Attachments   []string            `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Metadata      types.Metadata      `bson:"metadata,omitempty" json:"metadata,omitempty"`

	types.BaseModel `bson:",inline"`
}

// LineItem is one billed line on an invoice. Total is derived.
type LineItem struct {
	ID          string                    `bson:"id" json:"id"`
	Description string                    `bson:"description" json:"description"`
	Quantity    decimal.Decimal           `bson:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal           `bson:"unit_price" json:"unit_price"`
	Total       decimal.Decimal           `bson:"total" json:"total"`
	Category    types.InvoiceLineCategory `bson:"category" json:"category"`
}

// RecalculateTotals derives every computed monetary field from the line
// items and the current amount paid. Each step rounds half-up to 2 places
// so stored values are exact at every stage, not just at output.
func (i *Invoice) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, line := range i.LineItems {
		line.Total = line.Quantity.Mul(line.UnitPrice).Round(2)
		subtotal = subtotal.Add(line.Total)
	}
	i.Subtotal = subtotal.Round(2)
	i.TaxAmount = i.TaxAmount.Round(2)
	i.TotalAmount = i.Subtotal.Add(i.TaxAmount).Round(2)
	i.AmountPaid = i.AmountPaid.Round(2)
	i.BalanceDue = i.TotalAmount.Sub(i.AmountPaid).Round(2)
}

// DeriveStatus applies the automatic status transitions: paid when the
// balance is settled, overdue when past due with a positive balance,
// otherwise the caller-set draft/issued value stands. Void is terminal and
// never recomputed.
func (i *Invoice) DeriveStatus(now time.Time) {
	if i.Status == types.InvoiceStatusVoid {
		return
	}

	switch {
	case !i.BalanceDue.IsPositive() && i.TotalAmount.IsPositive():
		if i.Status != types.InvoiceStatusPaid {
			i.PaidAt = types.ToNillableTime(now)
		}
		i.Status = types.InvoiceStatusPaid
	case i.DueDate != nil && i.DueDate.Before(now) && i.BalanceDue.IsPositive():
		i.Status = types.InvoiceStatusOverdue
		i.PaidAt = nil
	default:
		// a previously settled invoice whose payment was reversed goes
		// back to issued
		if i.Status == types.InvoiceStatusPaid || i.Status == types.InvoiceStatusOverdue {
			i.Status = types.InvoiceStatusIssued
		}
		i.PaidAt = nil
	}
}

// Validate validates the invoice
func (i *Invoice) Validate() error {
	if i.MatterID == "" {
		return ierr.NewError("invalid matter id").
			WithHint("Invoice must reference a matter").
			Mark(ierr.ErrValidation)
	}
	if i.ClientID == "" {
		return ierr.NewError("invalid client id").
			WithHint("Invoice must reference a client").
			Mark(ierr.ErrValidation)
	}
	if i.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Invoice currency is required").
			Mark(ierr.ErrValidation)
	}
	if err := i.Status.Validate(); err != nil {
		return err
	}
	if i.TaxAmount.IsNegative() {
		return ierr.NewError("invalid tax amount").
			WithHint("Tax amount must be non negative").
			Mark(ierr.ErrValidation)
	}
	if i.AmountPaid.IsNegative() {
		return ierr.NewError("invalid amount paid").
			WithHint("Amount paid must be non negative").
			Mark(ierr.ErrValidation)
	}
	for _, line := range i.LineItems {
		if err := line.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates a line item
func (l *LineItem) Validate() error {
	if l.Description == "" {
		return ierr.NewError("invalid line item description").
			WithHint("Line item description is required").
			Mark(ierr.ErrValidation)
	}
	if !l.Quantity.IsPositive() {
		return ierr.NewError("invalid line item quantity").
			WithHint("Line item quantity must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if l.UnitPrice.IsNegative() {
		return ierr.NewError("invalid line item unit price").
			WithHint("Line item unit price must be non negative").
			Mark(ierr.ErrValidation)
	}
	if err := l.Category.Validate(); err != nil {
		return err
	}
	return nil
}

// IsVoid reports whether the invoice has been voided
func (i *Invoice) IsVoid() bool {
	return i.Status == types.InvoiceStatusVoid
}
