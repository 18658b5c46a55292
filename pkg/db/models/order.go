package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"gorm.io/gorm"
)

// Order is a placed order with its captured totals. Amounts are integer
// paise; totals are snapshots taken at checkout and never recomputed.
type Order struct {
	ID              string              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string              `gorm:"type:uuid;index;not null" json:"user_id"`
	Status          enums.OrderStatus   `gorm:"size:32;not null;default:pending" json:"status"`
	PaymentMethod   enums.PaymentMethod `gorm:"size:32;not null" json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `gorm:"size:32;not null;default:pending" json:"payment_status"`
	SubtotalPaise   int64               `gorm:"not null" json:"subtotal_paise"`
	GSTPaise        int64               `gorm:"not null" json:"gst_paise"`
	ShippingPaise   int64               `gorm:"not null" json:"shipping_paise"`
	TotalPaise      int64               `gorm:"not null" json:"total_paise"`
	ShippingAddress string              `gorm:"type:text" json:"shipping_address"`
	GatewayOrderID  string              `gorm:"size:128;index" json:"gateway_order_id,omitempty"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TableName overrides the default table name.
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns the primary key when absent.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is one product line of an order. Serials records the exact units
// that were allocated to the line.
type OrderItem struct {
	ID             string               `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID        string               `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID      string               `gorm:"type:uuid;index;not null" json:"product_id"`
	ProductName    string               `gorm:"size:255;not null" json:"product_name"`
	Quantity       int                  `gorm:"not null" json:"quantity"`
	UnitPricePaise int64                `gorm:"not null" json:"unit_price_paise"`
	GSTPercent     int                  `gorm:"not null" json:"gst_percent"`
	GSTPaise       int64                `gorm:"not null" json:"gst_paise"`
	ShippingPaise  int64                `gorm:"not null" json:"shipping_paise"`
	LineTotalPaise int64                `gorm:"not null" json:"line_total_paise"`
	Serials        []string             `gorm:"serializer:json" json:"serials"`
	Status         enums.LineItemStatus `gorm:"size:32;not null;default:allocated" json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// TableName overrides the default table name.
func (OrderItem) TableName() string {
	return "order_items"
}

// BeforeCreate assigns the primary key when absent.
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
