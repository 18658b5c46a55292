package enums

import "fmt"

// PaymentMethod describes how a buyer intends to settle an order. Raw method
// strings are resolved into this closed set once at the API boundary and
// never string-matched deeper in the core.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodOther        PaymentMethod = "other"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodWallet,
	PaymentMethodOther,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresGatewayIntent reports whether settling this method needs a payment
// intent at the external gateway before the buyer can pay.
func (p PaymentMethod) RequiresGatewayIntent() bool {
	switch p {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	default:
		return false
	}
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
