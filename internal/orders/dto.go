package orders

import (
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/types"
)

// CheckoutParams is the input to the order creation flow.
type CheckoutParams struct {
	UserID        string
	PaymentMethod enums.PaymentMethod
	Address       types.Address
	// AllowPartial lets the order proceed with the lines that could be
	// allocated, skipping the rest. Default is all-or-nothing.
	AllowPartial bool
}

// SkippedLine reports a cart line dropped from a partial order.
type SkippedLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// CheckoutResult is what checkout hands back to the API layer. Payment is
// set for gateway methods, WalletTxn for wallet payment.
type CheckoutResult struct {
	Order     *models.Order             `json:"order"`
	Payment   *models.PaymentRecord     `json:"payment,omitempty"`
	WalletTxn *models.WalletTransaction `json:"wallet_txn,omitempty"`
	Skipped   []SkippedLine             `json:"skipped,omitempty"`
}
