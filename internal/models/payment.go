package models

import "time"

// PaymentMethod identifies how a payment was made.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodPaymentz     PaymentMethod = "PAYMENTZ"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// Valid returns true when the method is a supported value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCreditCard, PaymentMethodPaymentz, PaymentMethodOther:
		return true
	default:
		return false
	}
}

// Payment is one row of an enrollment's payment ledger. Amounts are
// administrative bookkeeping only; no gateway integration exists.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollment_id"`
	PaidAt       time.Time     `db:"paid_at" json:"paid_at"`
	Method       PaymentMethod `db:"method" json:"method"`
	Amount       float64       `db:"amount" json:"amount"`
	Position     int           `db:"position" json:"position"`
}
