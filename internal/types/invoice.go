package types

import (
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle.
// Draft and issued are caller-controlled; paid and overdue are derived from
// the balance and due date on every save; void is terminal.
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice can still be modified or deleted
	InvoiceStatusDraft InvoiceStatus = "draft"
	// InvoiceStatusIssued indicates the invoice has been sent and is awaiting payment
	InvoiceStatusIssued InvoiceStatus = "issued"
	// InvoiceStatusPaid indicates the balance due has been fully settled
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusOverdue indicates the due date has passed with a positive balance
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	// InvoiceStatusVoid indicates the invoice has been cancelled and is excluded from billing totals
	InvoiceStatusVoid InvoiceStatus = "void"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusVoid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceLineCategory tags a line item with the kind of work billed
type InvoiceLineCategory string

const (
	InvoiceLineCategoryService InvoiceLineCategory = "service"
	InvoiceLineCategoryExpense InvoiceLineCategory = "expense"
	InvoiceLineCategoryFee     InvoiceLineCategory = "fee"
	InvoiceLineCategoryOther   InvoiceLineCategory = "other"
)

func (c InvoiceLineCategory) String() string {
	return string(c)
}

func (c InvoiceLineCategory) Validate() error {
	allowed := []InvoiceLineCategory{
		InvoiceLineCategoryService,
		InvoiceLineCategoryExpense,
		InvoiceLineCategoryFee,
		InvoiceLineCategoryOther,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid line item category").
			WithHint("Please provide a valid line item category").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
