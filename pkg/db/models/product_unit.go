package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductUnit is one physical, serially-numbered piece of a product. Seq is
// the mint order and drives oldest-first allocation; Serial is unique within
// the product.
type ProductUnit struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string     `gorm:"type:uuid;index;not null;uniqueIndex:idx_product_units_serial" json:"product_id"`
	Serial    string     `gorm:"size:64;not null;uniqueIndex:idx_product_units_serial" json:"serial"`
	Seq       int        `gorm:"not null" json:"seq"`
	IsSold    bool       `gorm:"not null;default:false;index" json:"is_sold"`
	BuyerID   *string    `gorm:"type:uuid" json:"buyer_id,omitempty"`
	OrderID   *string    `gorm:"type:uuid" json:"order_id,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName overrides the default table name.
func (ProductUnit) TableName() string {
	return "product_units"
}

// BeforeCreate assigns the primary key when absent.
func (u *ProductUnit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
