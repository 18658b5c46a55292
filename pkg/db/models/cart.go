package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"gorm.io/gorm"
)

// CartRecord is a user's cart. At most one is active; checked-out carts
// stay behind as order snapshots.
type CartRecord struct {
	ID        string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string           `gorm:"type:uuid;index;not null" json:"user_id"`
	Status    enums.CartStatus `gorm:"size:32;not null;default:active" json:"status"`
	Items     []CartItem       `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName overrides the default table name.
func (CartRecord) TableName() string {
	return "carts"
}

// BeforeCreate assigns the primary key when absent.
func (c *CartRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CartItem is one product line inside a cart.
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_cart_items_product" json:"cart_id"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name.
func (CartItem) TableName() string {
	return "cart_items"
}

// BeforeCreate assigns the primary key when absent.
func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
