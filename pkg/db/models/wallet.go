package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"gorm.io/gorm"
)

// Wallet holds a user's store-credit balance in paise.
type Wallet struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	BalancePaise int64     `gorm:"not null;default:0" json:"balance_paise"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the default table name.
func (Wallet) TableName() string {
	return "wallets"
}

// BeforeCreate assigns the primary key when absent.
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// WalletTransaction is an append-only ledger entry. BalanceAfterPaise is the
// wallet balance snapshot taken in the same transaction as the mutation.
// LinkedTxnID ties a withdrawal approval/rejection back to its pending entry.
type WalletTransaction struct {
	ID                string                        `gorm:"type:uuid;primaryKey" json:"id"`
	WalletID          string                        `gorm:"type:uuid;index;not null" json:"wallet_id"`
	UserID            string                        `gorm:"type:uuid;index;not null" json:"user_id"`
	Type              enums.WalletTransactionType   `gorm:"size:16;not null" json:"type"`
	Status            enums.WalletTransactionStatus `gorm:"size:16;not null;default:success" json:"status"`
	AmountPaise       int64                         `gorm:"not null" json:"amount_paise"`
	BalanceAfterPaise int64                         `gorm:"not null" json:"balance_after_paise"`
	OrderID           *string                       `gorm:"type:uuid;index" json:"order_id,omitempty"`
	LinkedTxnID       *string                       `gorm:"type:uuid" json:"linked_txn_id,omitempty"`
	Description       string                        `gorm:"size:512" json:"description"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`
}

// TableName overrides the default table name.
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// BeforeCreate assigns the primary key when absent.
func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
