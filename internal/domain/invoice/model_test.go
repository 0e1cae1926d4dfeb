package invoice

import (
	"testing"
	"time"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestRecalculateTotalsDerivesEveryField(t *testing.T) {
	inv := &Invoice{
		LineItems: []*LineItem{
			{Description: "Research", Quantity: dec("3"), UnitPrice: dec("150"), Category: types.InvoiceLineCategoryService},
			{Description: "Filing fee", Quantity: dec("1"), UnitPrice: dec("420.50"), Category: types.InvoiceLineCategoryFee},
		},
		TaxAmount:  dec("87.05"),
		AmountPaid: dec("100"),
	}

	inv.RecalculateTotals()

	assert.True(t, inv.LineItems[0].Total.Equal(dec("450")))
	assert.True(t, inv.LineItems[1].Total.Equal(dec("420.50")))
	assert.True(t, inv.Subtotal.Equal(dec("870.50")))
	assert.True(t, inv.TotalAmount.Equal(dec("957.55")))
	assert.True(t, inv.BalanceDue.Equal(dec("857.55")))
}

func TestRecalculateTotalsRoundsEachLine(t *testing.T) {
	inv := &Invoice{
		LineItems: []*LineItem{
			// 0.333 * 100 = 33.30 after per-line rounding
			{Description: "Partial hour", Quantity: dec("0.333"), UnitPrice: dec("100")},
			{Description: "Partial hour", Quantity: dec("0.333"), UnitPrice: dec("100")},
		},
	}

	inv.RecalculateTotals()

	// lines round before summing: 33.30 + 33.30, not round(66.6)
	assert.True(t, inv.Subtotal.Equal(dec("66.60")))
	assert.True(t, inv.TotalAmount.Equal(dec("66.60")))
}

func TestRecalculateTotalsOverridesCallerSentDerivedValues(t *testing.T) {
	inv := &Invoice{
		LineItems: []*LineItem{
			{Description: "Consult", Quantity: dec("1"), UnitPrice: dec("200")},
		},
		Subtotal:    dec("9999"),
		TotalAmount: dec("9999"),
		BalanceDue:  dec("-50"),
	}

	inv.RecalculateTotals()

	assert.True(t, inv.Subtotal.Equal(dec("200")))
	assert.True(t, inv.TotalAmount.Equal(dec("200")))
	assert.True(t, inv.BalanceDue.Equal(dec("200")))
}

func TestDeriveStatusMatrix(t *testing.T) {
	now := time.Date(2025, time.June, 11, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -10)
	future := now.AddDate(0, 0, 10)

	tests := []struct {
		name    string
		status  types.InvoiceStatus
		total   string
		paid    string
		dueDate *time.Time
		want    types.InvoiceStatus
	}{
		{"issued fully paid becomes paid", types.InvoiceStatusIssued, "100", "100", &future, types.InvoiceStatusPaid},
		{"overpaid still paid", types.InvoiceStatusIssued, "100", "150", &future, types.InvoiceStatusPaid},
		{"past due unpaid becomes overdue", types.InvoiceStatusIssued, "100", "0", &past, types.InvoiceStatusOverdue},
		{"past due but settled is paid", types.InvoiceStatusIssued, "100", "100", &past, types.InvoiceStatusPaid},
		{"future due stays issued", types.InvoiceStatusIssued, "100", "50", &future, types.InvoiceStatusIssued},
		{"no due date stays issued", types.InvoiceStatusIssued, "100", "50", nil, types.InvoiceStatusIssued},
		{"draft stays draft", types.InvoiceStatusDraft, "100", "0", nil, types.InvoiceStatusDraft},
		{"zero total never paid", types.InvoiceStatusIssued, "0", "0", &future, types.InvoiceStatusIssued},
		{"paid reverts to issued after reversal", types.InvoiceStatusPaid, "100", "50", &future, types.InvoiceStatusIssued},
		{"overdue reverts to issued when due moves out", types.InvoiceStatusOverdue, "100", "50", &future, types.InvoiceStatusIssued},
		{"void is terminal", types.InvoiceStatusVoid, "100", "100", &past, types.InvoiceStatusVoid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{
				Status:      tt.status,
				TotalAmount: dec(tt.total),
				AmountPaid:  dec(tt.paid),
				BalanceDue:  dec(tt.total).Sub(dec(tt.paid)),
				DueDate:     tt.dueDate,
			}

			inv.DeriveStatus(now)

			assert.Equal(t, tt.want, inv.Status)
		})
	}
}

func TestDeriveStatusStampsAndClearsPaidAt(t *testing.T) {
	now := time.Date(2025, time.June, 11, 12, 0, 0, 0, time.UTC)

	inv := &Invoice{
		Status:      types.InvoiceStatusIssued,
		TotalAmount: dec("100"),
		AmountPaid:  dec("100"),
		BalanceDue:  decimal.Zero,
	}

	inv.DeriveStatus(now)
	require.Equal(t, types.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, now, *inv.PaidAt)

	// deriving again while still paid keeps the original stamp
	later := now.Add(time.Hour)
	inv.DeriveStatus(later)
	assert.Equal(t, now, *inv.PaidAt)

	// a reversal clears the stamp
	inv.AmountPaid = dec("50")
	inv.RecalculateTotals()
	inv.DeriveStatus(later)
	assert.Equal(t, types.InvoiceStatusIssued, inv.Status)
	assert.Nil(t, inv.PaidAt)
}

func TestInvoiceValidate(t *testing.T) {
	valid := func() *Invoice {
		return &Invoice{
			MatterID: "mat_1",
			ClientID: "cli_1",
			Currency: "usd",
			Status:   types.InvoiceStatusDraft,
			LineItems: []*LineItem{
				{Description: "Consult", Quantity: dec("1"), UnitPrice: dec("100"), Category: types.InvoiceLineCategoryService},
			},
		}
	}

	require.NoError(t, valid().Validate())

	inv := valid()
	inv.MatterID = ""
	assert.True(t, ierr.IsValidation(inv.Validate()))

	inv = valid()
	inv.TaxAmount = dec("-1")
	assert.True(t, ierr.IsValidation(inv.Validate()))

	inv = valid()
	inv.Status = "cancelled"
	assert.True(t, ierr.IsValidation(inv.Validate()))

	inv = valid()
	inv.LineItems[0].Quantity = decimal.Zero
	assert.True(t, ierr.IsValidation(inv.Validate()))

	inv = valid()
	inv.LineItems[0].UnitPrice = dec("-5")
	assert.True(t, ierr.IsValidation(inv.Validate()))
}

func TestFormatInvoiceNumber(t *testing.T) {
	issueDate := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	ym := FormatYearMonth(issueDate)
	assert.Equal(t, "202609", ym)
	assert.Equal(t, "INV-202609-00042", FormatInvoiceNumber(ym, 42))
}
