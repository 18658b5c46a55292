package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry. Serialized stock lives in product_units; the
// Stock column remains for quantities that were never minted into units.
// Version guards the unit ledger against concurrent writers.
type Product struct {
	ID                  string        `gorm:"type:uuid;primaryKey" json:"id"`
	Code                string        `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name                string        `gorm:"size:255;not null" json:"name"`
	Description         string        `gorm:"type:text" json:"description"`
	Category            string        `gorm:"size:128;index" json:"category"`
	PricePaise          int64         `gorm:"not null" json:"price_paise"`
	SellingPricePaise   int64         `gorm:"not null" json:"selling_price_paise"`
	B2BPricePaise       int64         `json:"b2b_price_paise"`
	GSTPercent          int           `gorm:"not null;default:0" json:"gst_percent"`
	ShippingChargePaise int64         `gorm:"not null;default:0" json:"shipping_charge_paise"`
	Stock               int           `gorm:"not null;default:0" json:"stock"`
	InStock             bool          `gorm:"not null;default:true" json:"in_stock"`
	NextSerial          int           `gorm:"not null;default:1" json:"-"`
	Version             int64         `gorm:"not null;default:0" json:"-"`
	Units               []ProductUnit `gorm:"foreignKey:ProductID" json:"units,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// TableName overrides the default table name.
func (Product) TableName() string {
	return "products"
}

// BeforeCreate assigns the primary key when absent.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// EffectivePriceFor returns the per-unit paise price for a buyer tier.
func (p *Product) EffectivePriceFor(business bool) int64 {
	if business && p.B2BPricePaise > 0 {
		return p.B2BPricePaise
	}
	if p.SellingPricePaise > 0 {
		return p.SellingPricePaise
	}
	return p.PricePaise
}
