package service

import (
	"context"
	"time"

	"github.com/lexcore/lexcore/internal/domain/invoice"
	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/domain/payment"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
)

// CreateMatterRequest carries the caller-supplied fields for a new matter
type CreateMatterRequest struct {
	Title           string         `json:"title"`
	ClientID        string         `json:"client_id"`
	BillingCurrency string         `json:"billing_currency"`
	TeamMemberIDs   []string       `json:"team_member_ids,omitempty"`
	Metadata        types.Metadata `json:"metadata,omitempty"`
}

// ToMatter builds the domain matter with a generated id, an empty financial
// rollup and audit fields from context
func (r CreateMatterRequest) ToMatter(ctx context.Context) *matter.Matter {
	return &matter.Matter{
		ID:              types.GenerateUUIDWithPrefix(types.UUIDPrefixMatter),
		Title:           r.Title,
		ClientID:        r.ClientID,
		BillingCurrency: r.BillingCurrency,
		TeamMemberIDs:   r.TeamMemberIDs,
		RetainerBalance: decimal.Zero,
		Financials:      matter.NewFinancialSummary(decimal.Zero, decimal.Zero),
		Metadata:        r.Metadata,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// CreatePaymentRequest carries the caller-supplied fields for a new payment
type CreatePaymentRequest struct {
	MatterID    string              `json:"matter_id"`
	InvoiceID   *string             `json:"invoice_id,omitempty"`
	ClientID    string              `json:"client_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Method      types.PaymentMethod `json:"method"`
	PaymentDate time.Time           `json:"payment_date"`
	Reference   string              `json:"reference,omitempty"`
	Metadata    types.Metadata      `json:"metadata,omitempty"`
}

// ToPayment builds the domain payment with a generated id and audit fields
// from context
func (r CreatePaymentRequest) ToPayment(ctx context.Context) *payment.Payment {
	paymentDate := r.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	reference := r.Reference
	if reference == "" {
		reference = types.GenerateShortIDWithPrefix("RCP")
	}

	return &payment.Payment{
		ID:          types.GenerateUUIDWithPrefix(types.UUIDPrefixPayment),
		MatterID:    r.MatterID,
		InvoiceID:   r.InvoiceID,
		ClientID:    r.ClientID,
		Amount:      r.Amount.Round(2),
		Method:      r.Method,
		PaymentDate: paymentDate,
		Reference:   reference,
		Metadata:    r.Metadata,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// CreateInvoiceLineItemRequest is one caller-supplied invoice line. The
// line total is always recomputed server-side.
type CreateInvoiceLineItemRequest struct {
	Description string                    `json:"description"`
	Quantity    decimal.Decimal           `json:"quantity"`
	UnitPrice   decimal.Decimal           `json:"unit_price"`
	Category    types.InvoiceLineCategory `json:"category"`
}

// CreateInvoiceRequest carries the caller-supplied fields for a new
// invoice. Subtotal, totals and balance are derived and never read from
// the request.
type CreateInvoiceRequest struct {
	MatterID    string                         `json:"matter_id"`
	ClientID    string                         `json:"client_id"`
	Currency    string                         `json:"currency"`
	LineItems   []CreateInvoiceLineItemRequest `json:"line_items"`
	TaxAmount   decimal.Decimal                `json:"tax_amount"`
	Status      types.InvoiceStatus            `json:"status,omitempty"`
	IssueDate   time.Time                      `json:"issue_date,omitempty"`
	DueDate     *time.Time                     `json:"due_date,omitempty"`
	Attachments []string                       `json:"attachments,omitempty"`
	Metadata    types.Metadata                 `json:"metadata,omitempty"`
}

// ToInvoice builds the domain invoice. New invoices start in draft unless
// the caller explicitly creates them issued; paid, overdue and void are
// derived or action-driven states and are rejected here.
func (r CreateInvoiceRequest) ToInvoice(ctx context.Context) (*invoice.Invoice, error) {
	status := r.Status
	if status == "" {
		status = types.InvoiceStatusDraft
	}
	if status != types.InvoiceStatusDraft && status != types.InvoiceStatusIssued {
		return nil, ierr.NewError("invalid initial invoice status").
			WithHint("New invoices can only be created as draft or issued").
			WithReportableDetails(map[string]any{
				"status": status,
			}).
			Mark(ierr.ErrValidation)
	}

	issueDate := r.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now().UTC()
	}

	lineItems := make([]*invoice.LineItem, len(r.LineItems))
	for i, line := range r.LineItems {
		category := line.Category
		if category == "" {
			category = types.InvoiceLineCategoryService
		}
		lineItems[i] = &invoice.LineItem{
			ID:          types.GenerateUUID(),
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Category:    category,
		}
	}

	return &invoice.Invoice{
		ID:          types.GenerateUUIDWithPrefix(types.UUIDPrefixInvoice),
		MatterID:    r.MatterID,
		ClientID:    r.ClientID,
		Currency:    r.Currency,
		LineItems:   lineItems,
		TaxAmount:   r.TaxAmount,
		Status:      status,
		IssueDate:   issueDate,
		DueDate:     r.DueDate,
		Attachments: r.Attachments,
		Metadata:    r.Metadata,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}, nil
}
