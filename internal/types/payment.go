package types

import (
	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/samber/lo"
)

// PaymentMethod defines how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodCheck,
		PaymentMethodCreditCard,
		PaymentMethodBankTransfer,
		PaymentMethodOnline,
		PaymentMethodOther,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a valid payment method").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
