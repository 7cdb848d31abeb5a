package models

// PaymentMethod is how an order was settled
type PaymentMethod string

// PaymentMethod constants
const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodDebitTransfer PaymentMethod = "debit-transfer"
	PaymentMethodMobileWallet  PaymentMethod = "mobile-wallet"
	PaymentMethodNotApplicable PaymentMethod = "N/A"
)

// Valid reports whether m is a method an order can be settled with
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodDebitTransfer, PaymentMethodMobileWallet:
		return true
	}
	return false
}

// CloseOrderRequest closes the current order
type CloseOrderRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
	Notes         string        `json:"notes"`
	AlreadyPaid   bool          `json:"already_paid"`
}

// MarkPaidRequest settles a closed order
type MarkPaidRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
}
