package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lexcore/lexcore/internal/domain/auditlog"
	"github.com/lexcore/lexcore/internal/domain/invoice"
	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/domain/notification"
	"github.com/lexcore/lexcore/internal/domain/payment"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
)

// BillingService orchestrates payment and invoice mutations as atomic
// multi-document transactions, keeping invoice balances and matter-level
// financial aggregates consistent under concurrent mutation.
type BillingService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error)
	IssueInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
	VoidInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
	RecalculateInvoiceStatus(ctx context.Context, id string) (*invoice.Invoice, bool, error)
	GetMatterFinancialSummary(ctx context.Context, matterID string) (*matter.FinancialSummary, error)
	RecomputeMatterFinancials(ctx context.Context, matterID string) (*matter.FinancialSummary, error)
}

type billingService struct {
	ServiceParams
}

// NewBillingService creates a new billing service
func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
	}
}

// CreatePayment persists a payment, links it to its matter and optional
// invoice, and recomputes the invoice balance and matter aggregate, all
// inside one transaction.
func (s *billingService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	p := req.ToPayment(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var m *matter.Matter
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.MatterRepo.Get(ctx, p.MatterID)
		if err != nil {
			return err
		}

		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}

		if err := s.MatterRepo.AttachPayment(ctx, m.ID, p.ID); err != nil {
			return err
		}

		if p.InvoiceID != nil {
			if err := s.applyPaymentToInvoice(ctx, p, *p.InvoiceID); err != nil {
				return err
			}
		}

		_, err = s.recomputeMatterFinancials(ctx, p.MatterID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, auditlog.NewEntry(ctx, mongodb.CollectionPayments, p.ID, auditlog.OperationCreate).
		WithChange("amount", nil, p.Amount.String()))
	s.notify(ctx, notification.New(
		notification.TypePaymentReceived,
		"Payment received",
		fmt.Sprintf("A payment of %s was recorded on matter %s", p.Amount.StringFixed(2), m.Title),
		p.ID,
		m.TeamMemberIDs,
	))

	return p, nil
}

// DeletePayment removes a payment and reverses all of its side effects:
// invoice balance and status, matter payment list, and the matter aggregate.
func (s *billingService) DeletePayment(ctx context.Context, id string) error {
	var p *payment.Payment
	var m *matter.Matter
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.PaymentRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if p.InvoiceID != nil {
			if err := s.reversePaymentFromInvoice(ctx, p, *p.InvoiceID); err != nil {
				return err
			}
		}

		if err := s.MatterRepo.DetachPayment(ctx, p.MatterID, p.ID); err != nil {
			return err
		}

		// delete before recomputing so the aggregate is derived from the
		// post-deletion payment set within this transaction's snapshot
		if err := s.PaymentRepo.Delete(ctx, p.ID); err != nil {
			return err
		}

		m, err = s.MatterRepo.Get(ctx, p.MatterID)
		if err != nil {
			return err
		}

		_, err = s.recomputeMatterFinancials(ctx, p.MatterID)
		return err
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, auditlog.NewEntry(ctx, mongodb.CollectionPayments, p.ID, auditlog.OperationDelete).
		WithChange("amount", p.Amount.String(), nil))
	s.notify(ctx, notification.New(
		notification.TypePaymentReversed,
		"Payment reversed",
		fmt.Sprintf("A payment of %s was removed from matter %s", p.Amount.StringFixed(2), m.Title),
		p.ID,
		m.TeamMemberIDs,
	))

	return nil
}

// CreateInvoice validates the invoice against its matter, derives every
// computed field server-side, assigns an invoice number and attaches the
// invoice to the matter in one transaction.
func (s *billingService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error) {
	inv, err := req.ToInvoice(ctx)
	if err != nil {
		return nil, err
	}

	var m *matter.Matter
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.MatterRepo.Get(ctx, inv.MatterID)
		if err != nil {
			return err
		}

		if !types.IsMatchingCurrency(inv.Currency, m.BillingCurrency) {
			return ierr.NewError("invoice currency does not match matter billing currency").
				WithHintf("The matter is billed in %s", m.BillingCurrency).
				WithReportableDetails(map[string]any{
					"invoice_currency": inv.Currency,
					"matter_currency":  m.BillingCurrency,
				}).
				Mark(ierr.ErrCurrencyMismatch)
		}

		yearMonth := invoice.FormatYearMonth(inv.IssueDate)
		seq, err := s.SequenceRepo.NextSequence(ctx, types.GetTenantID(ctx), yearMonth)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = invoice.FormatInvoiceNumber(yearMonth, seq)

		// derived fields are never trusted from input
		inv.AmountPaid = decimal.Zero
		inv.RecalculateTotals()
		inv.DeriveStatus(time.Now().UTC())
		if err := inv.Validate(); err != nil {
			return err
		}

		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			return err
		}

		if err := s.MatterRepo.AttachInvoice(ctx, m.ID, inv.ID); err != nil {
			return err
		}

		_, err = s.recomputeMatterFinancials(ctx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, auditlog.NewEntry(ctx, mongodb.CollectionInvoices, inv.ID, auditlog.OperationCreate).
		WithChange("total_amount", nil, inv.TotalAmount.String()))
	s.notify(ctx, notification.New(
		notification.TypeInvoiceCreated,
		"Invoice created",
		fmt.Sprintf("Invoice %s for %s was created on matter %s", inv.InvoiceNumber, inv.TotalAmount.StringFixed(2), m.Title),
		inv.ID,
		m.TeamMemberIDs,
	))

	return inv, nil
}

// IssueInvoice transitions a draft invoice to issued. Issuing is the only
// caller-driven forward transition; paid and overdue are always derived.
func (s *billingService) IssueInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if inv.Status != types.InvoiceStatusDraft {
			return ierr.NewError("only draft invoices can be issued").
				WithHintf("Invoice is currently %s", inv.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		now := time.Now().UTC()
		inv.Status = types.InvoiceStatusIssued
		if inv.IssueDate.IsZero() {
			inv.IssueDate = now
		}
		inv.RecalculateTotals()
		inv.DeriveStatus(now)

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, auditlog.NewEntry(ctx, mongodb.CollectionInvoices, inv.ID, auditlog.OperationUpdate).
		WithChange("status", types.InvoiceStatusDraft, inv.Status))

	return inv, nil
}

// VoidInvoice marks an invoice void (terminal) and recomputes the matter
// aggregate so the voided total stops counting toward totalBilled. Voiding
// an already-void invoice is a no-op.
func (s *billingService) VoidInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	var previous types.InvoiceStatus
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		previous = inv.Status
		if inv.IsVoid() {
			return nil
		}

		inv.Status = types.InvoiceStatusVoid
		inv.VoidedAt = types.ToNillableTime(time.Now().UTC())
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}

		_, err = s.recomputeMatterFinancials(ctx, inv.MatterID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if previous != types.InvoiceStatusVoid {
		s.recordAudit(ctx, auditlog.NewEntry(ctx, mongodb.CollectionInvoices, inv.ID, auditlog.OperationUpdate).
			WithChange("status", previous, inv.Status))
		s.notify(ctx, notification.New(
			notification.TypeInvoiceVoided,
			"Invoice voided",
			fmt.Sprintf("Invoice %s was voided", inv.InvoiceNumber),
			inv.ID,
			nil,
		))
	}

	return inv, nil
}

// RecalculateInvoiceStatus recomputes the invoice's amount paid from the
// live sum of its linked payments rather than the stored field, so drift
// self-heals. It reports whether the status actually changed.
func (s *billingService) RecalculateInvoiceStatus(ctx context.Context, id string) (*invoice.Invoice, bool, error) {
	var inv *invoice.Invoice
	var previous types.InvoiceStatus
	var changed bool
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		payments, err := s.PaymentRepo.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}

		paid := decimal.Zero
		for _, p := range payments {
			paid = paid.Add(p.Amount)
		}

		previous = inv.Status
		inv.AmountPaid = paid.Round(2)
		inv.RecalculateTotals()
		inv.DeriveStatus(time.Now().UTC())
		changed = inv.Status != previous

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}

		_, err = s.recomputeMatterFinancials(ctx, inv.MatterID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.recordAudit(ctx, auditlog.NewEntry(ctx, mongodb.CollectionInvoices, inv.ID, auditlog.OperationUpdate).
			WithChange("status", previous, inv.Status))
		s.notify(ctx, notification.New(
			notification.TypeInvoiceStatus,
			"Invoice status changed",
			fmt.Sprintf("Invoice %s moved from %s to %s", inv.InvoiceNumber, previous, inv.Status),
			inv.ID,
			nil,
		))
	}

	return inv, changed, nil
}

// GetMatterFinancialSummary recomputes and returns the matter's financial
// rollup from its current invoice and payment collections
func (s *billingService) GetMatterFinancialSummary(ctx context.Context, matterID string) (*matter.FinancialSummary, error) {
	return s.RecomputeMatterFinancials(ctx, matterID)
}

// RecomputeMatterFinancials re-derives the matter's financial aggregate
// from source documents and writes it in one update. The aggregate is a
// cache: it is always derived fresh, never incrementally adjusted.
func (s *billingService) RecomputeMatterFinancials(ctx context.Context, matterID string) (*matter.FinancialSummary, error) {
	var summary *matter.FinancialSummary
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.recomputeMatterFinancials(ctx, matterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// recomputeMatterFinancials runs inside an ambient transaction: reads must
// be fresh, never carried across the transaction boundary
func (s *billingService) recomputeMatterFinancials(ctx context.Context, matterID string) (*matter.FinancialSummary, error) {
	if _, err := s.MatterRepo.Get(ctx, matterID); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.ListByMatter(ctx, matterID)
	if err != nil {
		return nil, err
	}
	payments, err := s.PaymentRepo.ListByMatter(ctx, matterID)
	if err != nil {
		return nil, err
	}

	summary := computeFinancials(invoices, payments)
	if err := s.MatterRepo.UpdateFinancials(ctx, matterID, summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// computeFinancials derives the rollup: void invoices do not bill, every
// payment counts
func computeFinancials(invoices []*invoice.Invoice, payments []*payment.Payment) matter.FinancialSummary {
	totalBilled := decimal.Zero
	for _, inv := range invoices {
		if inv.IsVoid() {
			continue
		}
		totalBilled = totalBilled.Add(inv.TotalAmount)
	}

	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	return matter.NewFinancialSummary(totalBilled, totalPaid)
}

// applyPaymentToInvoice adds a payment onto its linked invoice and
// recomputes the derived fields
func (s *billingService) applyPaymentToInvoice(ctx context.Context, p *payment.Payment, invoiceID string) error {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return err
	}

	if inv.MatterID != p.MatterID {
		return ierr.NewError("invoice does not belong to the payment's matter").
			WithHint("The payment and invoice must reference the same matter").
			WithReportableDetails(map[string]any{
				"invoice_matter": inv.MatterID,
				"payment_matter": p.MatterID,
			}).
			Mark(ierr.ErrValidation)
	}
	if inv.IsVoid() {
		return ierr.NewError("cannot record a payment against a void invoice").
			WithHint("The invoice has been voided").
			Mark(ierr.ErrInvalidOperation)
	}

	inv.AmountPaid = inv.AmountPaid.Add(p.Amount)
	inv.RecalculateTotals()
	inv.DeriveStatus(time.Now().UTC())

	return s.InvoiceRepo.Update(ctx, inv)
}

// reversePaymentFromInvoice subtracts a deleted payment from its linked
// invoice. The invoice reference is weak: a missing invoice does not block
// the deletion.
func (s *billingService) reversePaymentFromInvoice(ctx context.Context, p *payment.Payment, invoiceID string) error {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if inv.IsVoid() {
		return nil
	}

	inv.AmountPaid = inv.AmountPaid.Sub(p.Amount)
	if inv.AmountPaid.IsNegative() {
		inv.AmountPaid = decimal.Zero
	}
	inv.RecalculateTotals()
	inv.DeriveStatus(time.Now().UTC())

	return s.InvoiceRepo.Update(ctx, inv)
}

// recordAudit writes an audit entry after a successful mutation. The sink
// is best-effort: a failure is logged, never surfaced to the caller.
func (s *billingService) recordAudit(ctx context.Context, entry *auditlog.Entry) {
	if s.AuditLogRepo == nil {
		return
	}
	if err := s.AuditLogRepo.Record(ctx, entry); err != nil {
		s.Logger.Warnw("failed to record audit entry",
			"collection", entry.Collection,
			"document_id", entry.DocumentID,
			"error", err,
		)
	}
}

// notify fans out a notification after a successful mutation, best-effort
func (s *billingService) notify(ctx context.Context, n *notification.Notification) {
	if s.Notifier == nil || n == nil {
		return
	}
	if err := s.Notifier.Dispatch(ctx, n); err != nil {
		s.Logger.Warnw("failed to dispatch notification",
			"type", n.Type,
			"related_id", n.RelatedID,
			"error", err,
		)
	}
}
