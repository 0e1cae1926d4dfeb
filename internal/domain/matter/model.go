package matter

import (
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/shopspring/decimal"
)

// Matter represents a legal case/engagement. Invoices and payments belong to
// exactly one matter; the Financials block is a cached rollup derived from
// those collections, never the source of truth.
type Matter struct {
	ID              string           `bson:"_id" json:"id"`
	Title           string           `bson:"title" json:"title"`
	ClientID        string           `bson:"client_id" json:"client_id"`
	BillingCurrency string           `bson:"billing_currency" json:"billing_currency"`
	TeamMemberIDs   []string         `bson:"team_member_ids" json:"team_member_ids"`
	InvoiceIDs      []string         `bson:"invoice_ids" json:"invoice_ids"`
	PaymentIDs      []string         `bson:"payment_ids" json:"payment_ids"`
	RetainerBalance decimal.Decimal  `bson:"retainer_balance" json:"retainer_balance"`
	Financials      FinancialSummary `bson:"financials" json:"financials"`
	Metadata        types.Metadata   `bson:"metadata,omitempty" json:"metadata,omitempty"`

	types.BaseModel `bson:",inline"`
}

// FinancialSummary is the derived rollup of a matter's invoices and
// payments. Outstanding is floored at zero; an overpayment surfaces as
// CreditBalance instead of a negative outstanding amount. The summary
// carries no computation timestamp so recomputing without intervening
// writes is byte-identical.
type FinancialSummary struct {
	TotalBilled   decimal.Decimal `bson:"total_billed" json:"total_billed"`
	TotalPaid     decimal.Decimal `bson:"total_paid" json:"total_paid"`
	Outstanding   decimal.Decimal `bson:"outstanding" json:"outstanding"`
	CreditBalance decimal.Decimal `bson:"credit_balance" json:"credit_balance"`
}

// NewFinancialSummary derives the rollup from billed and paid totals
func NewFinancialSummary(totalBilled, totalPaid decimal.Decimal) FinancialSummary {
	totalBilled = totalBilled.Round(2)
	totalPaid = totalPaid.Round(2)

	outstanding := totalBilled.Sub(totalPaid).Round(2)
	credit := decimal.Zero
	if outstanding.IsNegative() {
		credit = outstanding.Neg()
		outstanding = decimal.Zero
	}

	return FinancialSummary{
		TotalBilled:   totalBilled,
		TotalPaid:     totalPaid,
		Outstanding:   outstanding,
		CreditBalance: credit,
	}
}

// Validate validates the matter
func (m *Matter) Validate() error {
	if m.Title == "" {
		return ierr.NewError("invalid title").
			WithHint("Matter title is required").
			Mark(ierr.ErrValidation)
	}
	if m.ClientID == "" {
		return ierr.NewError("invalid client id").
			WithHint("Matter must reference a client").
			Mark(ierr.ErrValidation)
	}
	if m.BillingCurrency == "" {
		return ierr.NewError("invalid billing currency").
			WithHint("Matter billing currency is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
