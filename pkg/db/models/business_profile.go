package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"gorm.io/gorm"
)

// BusinessProfile carries the wholesale identity of a b2b user and the
// annual subscription window that keeps wholesale pricing active.
type BusinessProfile struct {
	ID                 string                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             string                   `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	BusinessName       string                   `gorm:"size:255;not null" json:"business_name"`
	GSTIN              string                   `gorm:"size:32" json:"gstin"`
	Address            string                   `gorm:"type:text" json:"address"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"size:32;not null;default:pending" json:"subscription_status"`
	SubscriptionFrom   *time.Time               `json:"subscription_from,omitempty"`
	SubscriptionTo     *time.Time               `json:"subscription_to,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// TableName overrides the default table name.
func (BusinessProfile) TableName() string {
	return "business_profiles"
}

// BeforeCreate assigns the primary key when absent.
func (b *BusinessProfile) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// SubscriptionActiveAt reports whether the plan window covers ts.
func (b *BusinessProfile) SubscriptionActiveAt(ts time.Time) bool {
	if b.SubscriptionStatus != enums.SubscriptionStatusActive {
		return false
	}
	if b.SubscriptionFrom == nil || b.SubscriptionTo == nil {
		return false
	}
	return !ts.Before(*b.SubscriptionFrom) && ts.Before(*b.SubscriptionTo)
}
