package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"gorm.io/gorm"
)

// PaymentRecord tracks one payment attempt against the gateway. The unique
// TransactionID is what webhook retries and verify calls converge on.
type PaymentRecord struct {
	ID               string               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string               `gorm:"type:uuid;index;not null" json:"user_id"`
	OrderID          *string              `gorm:"type:uuid;index" json:"order_id,omitempty"`
	TransactionID    string               `gorm:"size:128;uniqueIndex;not null" json:"transaction_id"`
	GatewayOrderID   string               `gorm:"size:128;index" json:"gateway_order_id"`
	GatewayPaymentID string               `gorm:"size:128;index" json:"gateway_payment_id,omitempty"`
	Purpose          enums.PaymentPurpose `gorm:"size:32;not null;default:order" json:"purpose"`
	Method           enums.PaymentMethod  `gorm:"size:32;not null" json:"method"`
	Status           enums.PaymentStatus  `gorm:"size:32;not null;default:pending" json:"status"`
	AmountPaise      int64                `gorm:"not null" json:"amount_paise"`
	Currency         string               `gorm:"size:8;not null;default:INR" json:"currency"`
	FailureReason    string               `gorm:"type:text" json:"failure_reason,omitempty"`
	SubscriptionFrom *time.Time           `json:"subscription_from,omitempty"`
	SubscriptionTo   *time.Time           `json:"subscription_to,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// TableName overrides the default table name.
func (PaymentRecord) TableName() string {
	return "payment_records"
}

// BeforeCreate assigns the primary key when absent.
func (p *PaymentRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
