package service

import (
	"testing"
	"time"

	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/domain/notification"
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/testutil"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.service = NewBillingService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		MatterRepo:   stores.MatterRepo,
		InvoiceRepo:  stores.InvoiceRepo,
		SequenceRepo: stores.SequenceRepo,
		PaymentRepo:  stores.PaymentRepo,
		AuditLogRepo: stores.AuditLogRepo,
		Notifier:     stores.Notifier,
	})
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func (s *BillingServiceSuite) createTestMatter(currency string) *matter.Matter {
	m := &matter.Matter{
		ID:              types.GenerateUUIDWithPrefix(types.UUIDPrefixMatter),
		Title:           "Acme v. Blight",
		ClientID:        "cli_1",
		BillingCurrency: currency,
		TeamMemberIDs:   []string{"usr_1", "usr_2"},
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().MatterRepo.Create(s.GetContext(), m))
	return m
}

func (s *BillingServiceSuite) invoiceRequest(matterID string, amount string, dueDate *time.Time) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		MatterID: matterID,
		ClientID: "cli_1",
		Currency: "usd",
		Status:   types.InvoiceStatusIssued,
		DueDate:  dueDate,
		LineItems: []CreateInvoiceLineItemRequest{
			{Description: "Legal services", Quantity: dec("1"), UnitPrice: dec(amount), Category: types.InvoiceLineCategoryService},
		},
	}
}

func (s *BillingServiceSuite) TestCreateInvoiceCurrencyMismatch() {
	m := s.createTestMatter("eur")

	_, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))

	s.Error(err)
	s.True(ierr.IsCurrencyMismatch(err))

	// nothing was persisted
	invoices, listErr := s.GetStores().InvoiceRepo.ListByMatter(s.GetContext(), m.ID)
	s.NoError(listErr)
	s.Empty(invoices)

	stored, getErr := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(getErr)
	s.Empty(stored.InvoiceIDs)
}

func (s *BillingServiceSuite) TestCreateInvoiceCurrencyComparisonIsCaseInsensitive() {
	m := s.createTestMatter("USD")

	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "500", nil))

	s.NoError(err)
	s.NotNil(inv)
}

func (s *BillingServiceSuite) TestCreateInvoiceDerivesTotalsAndNumber() {
	m := s.createTestMatter("usd")

	req := s.invoiceRequest(m.ID, "1000", nil)
	req.TaxAmount = dec("80")
	first, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	s.True(first.Subtotal.Equal(dec("1000")))
	s.True(first.TotalAmount.Equal(dec("1080")))
	s.True(first.AmountPaid.IsZero())
	s.True(first.BalanceDue.Equal(dec("1080")))
	s.Equal(types.InvoiceStatusIssued, first.Status)

	ym := time.Now().UTC().Format("200601")
	s.Equal("INV-"+ym+"-00001", first.InvoiceNumber)

	second, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "200", nil))
	s.NoError(err)
	s.Equal("INV-"+ym+"-00002", second.InvoiceNumber)

	// the matter aggregate already reflects both invoices
	stored, err := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.Len(stored.InvoiceIDs, 2)
	s.True(stored.Financials.TotalBilled.Equal(dec("1280")))
	s.True(stored.Financials.Outstanding.Equal(dec("1280")))
}

func (s *BillingServiceSuite) TestCreateInvoiceRejectsDerivedInitialStatus() {
	m := s.createTestMatter("usd")

	req := s.invoiceRequest(m.ID, "100", nil)
	req.Status = types.InvoiceStatusPaid

	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestCreatePaymentSettlesInvoice() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	p, err := s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("1000"),
		Method:    types.PaymentMethodBankTransfer,
	})
	s.NoError(err)

	updated, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, updated.Status)
	s.True(updated.BalanceDue.IsZero())
	s.NotNil(updated.PaidAt)

	stored, err := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.Contains(stored.PaymentIDs, p.ID)
	s.True(stored.Financials.TotalPaid.Equal(dec("1000")))
	s.True(stored.Financials.Outstanding.IsZero())

	notifier := s.GetStores().Notifier.(*testutil.InMemoryNotifier)
	sent := notifier.Sent()
	s.NotEmpty(sent)
	last := sent[len(sent)-1]
	s.Equal(notification.TypePaymentReceived, last.Type)
	s.Equal(m.TeamMemberIDs, last.Recipients)
}

func (s *BillingServiceSuite) TestCreatePaymentPartialKeepsInvoiceOpen() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("400"),
		Method:    types.PaymentMethodCheck,
	})
	s.NoError(err)

	updated, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, updated.Status)
	s.True(updated.BalanceDue.Equal(dec("600")))
}

func (s *BillingServiceSuite) TestCreatePaymentUnlinkedStillCountsTowardMatter() {
	m := s.createTestMatter("usd")
	_, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID: m.ID,
		ClientID: "cli_1",
		Amount:   dec("300"),
		Method:   types.PaymentMethodCash,
	})
	s.NoError(err)

	stored, err := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.True(stored.Financials.TotalPaid.Equal(dec("300")))
	s.True(stored.Financials.Outstanding.Equal(dec("700")))
}

func (s *BillingServiceSuite) TestCreatePaymentUnknownMatter() {
	_, err := s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID: "mat_missing",
		ClientID: "cli_1",
		Amount:   dec("100"),
		Method:   types.PaymentMethodCash,
	})

	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestCreatePaymentRejectsCrossMatterInvoice() {
	m1 := s.createTestMatter("usd")
	m2 := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m1.ID, "500", nil))
	s.NoError(err)

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m2.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("500"),
		Method:    types.PaymentMethodCash,
	})

	s.Error(err)
	s.True(ierr.IsValidation(err))

	// the rejected payment left no trace on either matter
	stored, getErr := s.GetStores().MatterRepo.Get(s.GetContext(), m2.ID)
	s.NoError(getErr)
	s.Empty(stored.PaymentIDs)
}

func (s *BillingServiceSuite) TestCreatePaymentRollsBackWhenInvoiceUpdateFails() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	invoiceStore := s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore)
	invoiceStore.FailOnce("update", ierr.NewError("write conflict").Mark(ierr.ErrDatabase))

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("1000"),
		Method:    types.PaymentMethodCash,
	})

	s.Error(err)
	s.True(ierr.IsTransactionAborted(err))

	// the payment insert and matter attach were rolled back with it
	payments, listErr := s.GetStores().PaymentRepo.ListByMatter(s.GetContext(), m.ID)
	s.NoError(listErr)
	s.Empty(payments)

	stored, getErr := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(getErr)
	s.Empty(stored.PaymentIDs)
	s.True(stored.Financials.TotalPaid.IsZero())

	unchanged, getErr := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(getErr)
	s.True(unchanged.AmountPaid.IsZero())
	s.Equal(types.InvoiceStatusIssued, unchanged.Status)
}

func (s *BillingServiceSuite) TestDeletePaymentRevertsInvoiceByDueDate() {
	m := s.createTestMatter("usd")
	pastDue := time.Now().UTC().AddDate(0, 0, -5)
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", &pastDue))
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, inv.Status)

	p, err := s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("1000"),
		Method:    types.PaymentMethodOnline,
	})
	s.NoError(err)

	paid, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.Status)

	s.NoError(s.service.DeletePayment(s.GetContext(), p.ID))

	// with the payment gone and the due date in the past the invoice is
	// overdue again, not issued
	reverted, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, reverted.Status)
	s.True(reverted.BalanceDue.Equal(dec("1000")))
	s.Nil(reverted.PaidAt)

	stored, err := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.Empty(stored.PaymentIDs)
	s.True(stored.Financials.TotalPaid.IsZero())
	s.True(stored.Financials.Outstanding.Equal(dec("1000")))

	_, err = s.GetStores().PaymentRepo.Get(s.GetContext(), p.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestDeletePaymentMissingPayment() {
	err := s.service.DeletePayment(s.GetContext(), "pay_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestVoidInvoiceStopsBilling() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	voided, err := s.service.VoidInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoid, voided.Status)
	s.NotNil(voided.VoidedAt)

	stored, err := s.GetStores().MatterRepo.Get(s.GetContext(), m.ID)
	s.NoError(err)
	s.True(stored.Financials.TotalBilled.IsZero())
	s.True(stored.Financials.Outstanding.IsZero())

	// voiding again is a no-op and sends nothing new
	notifier := s.GetStores().Notifier.(*testutil.InMemoryNotifier)
	before := len(notifier.Sent())
	again, err := s.service.VoidInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoid, again.Status)
	s.Len(notifier.Sent(), before)
}

func (s *BillingServiceSuite) TestVoidInvoiceRejectsNewPayments() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)
	_, err = s.service.VoidInvoice(s.GetContext(), inv.ID)
	s.NoError(err)

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("1000"),
		Method:    types.PaymentMethodCash,
	})

	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *BillingServiceSuite) TestIssueInvoiceOnlyFromDraft() {
	m := s.createTestMatter("usd")

	req := s.invoiceRequest(m.ID, "500", nil)
	req.Status = types.InvoiceStatusDraft
	inv, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, inv.Status)

	issued, err := s.service.IssueInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, issued.Status)

	_, err = s.service.IssueInvoice(s.GetContext(), inv.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *BillingServiceSuite) TestRecalculateInvoiceStatusHealsDrift() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("1000"),
		Method:    types.PaymentMethodCash,
	})
	s.NoError(err)

	// simulate drift: the stored amount paid no longer matches the payments
	drifted, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	drifted.AmountPaid = decimal.Zero
	drifted.Status = types.InvoiceStatusIssued
	drifted.RecalculateTotals()
	s.NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), drifted))

	healed, changed, err := s.service.RecalculateInvoiceStatus(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(changed)
	s.Equal(types.InvoiceStatusPaid, healed.Status)
	s.True(healed.AmountPaid.Equal(dec("1000")))
	s.True(healed.BalanceDue.IsZero())

	// the status transition fans out a notification
	notifier := s.GetStores().Notifier.(*testutil.InMemoryNotifier)
	sent := notifier.Sent()
	s.NotEmpty(sent)
	last := sent[len(sent)-1]
	s.Equal(notification.TypeInvoiceStatus, last.Type)
	s.Equal(inv.ID, last.RelatedID)

	// a second pass is a no-op and sends nothing new
	before := len(notifier.Sent())
	_, changed, err = s.service.RecalculateInvoiceStatus(s.GetContext(), inv.ID)
	s.NoError(err)
	s.False(changed)
	s.Len(notifier.Sent(), before)
}

func (s *BillingServiceSuite) TestRecomputeMatterFinancialsIsIdempotent() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1500", nil))
	s.NoError(err)

	_, err = s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("2000"),
		Method:    types.PaymentMethodBankTransfer,
	})
	s.NoError(err)

	first, err := s.service.RecomputeMatterFinancials(s.GetContext(), m.ID)
	s.NoError(err)
	second, err := s.service.RecomputeMatterFinancials(s.GetContext(), m.ID)
	s.NoError(err)

	s.Equal(first, second)

	// overpayment floors outstanding at zero and surfaces as credit
	s.True(first.TotalBilled.Equal(dec("1500")))
	s.True(first.TotalPaid.Equal(dec("2000")))
	s.True(first.Outstanding.IsZero())
	s.True(first.CreditBalance.Equal(dec("500")))
}

func (s *BillingServiceSuite) TestGetMatterFinancialSummaryUnknownMatter() {
	_, err := s.service.GetMatterFinancialSummary(s.GetContext(), "mat_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestMutationsRecordAuditEntries() {
	m := s.createTestMatter("usd")
	inv, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	p, err := s.service.CreatePayment(s.GetContext(), CreatePaymentRequest{
		MatterID:  m.ID,
		InvoiceID: &inv.ID,
		ClientID:  "cli_1",
		Amount:    dec("1000"),
		Method:    types.PaymentMethodCash,
	})
	s.NoError(err)

	entries := s.GetStores().AuditLogRepo.(*testutil.InMemoryAuditLogStore).Entries()
	s.Len(entries, 2)
	s.Equal("invoices", entries[0].Collection)
	s.Equal(inv.ID, entries[0].DocumentID)
	s.Equal("payments", entries[1].Collection)
	s.Equal(p.ID, entries[1].DocumentID)
	s.Equal(types.DefaultUserID, entries[1].ChangedBy)
}

func (s *BillingServiceSuite) TestAuditFailureDoesNotFailMutation() {
	m := s.createTestMatter("usd")
	auditStore := s.GetStores().AuditLogRepo.(*testutil.InMemoryAuditLogStore)
	auditStore.SetError(ierr.NewError("sink down").Mark(ierr.ErrDatabase))

	_, err := s.service.CreateInvoice(s.GetContext(), s.invoiceRequest(m.ID, "1000", nil))
	s.NoError(err)

	invoices, err := s.GetStores().InvoiceRepo.ListByMatter(s.GetContext(), m.ID)
	s.NoError(err)
	s.Len(invoices, 1)
}
