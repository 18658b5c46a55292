package wallet

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence surface of the wallet ledger.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	Create(ctx context.Context, wallet *models.Wallet) error
	Reload(ctx context.Context, walletID string) (*models.Wallet, error)
	AdjustBalance(ctx context.Context, walletID string, deltaPaise int64, requireFunds bool) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	GetTransaction(ctx context.Context, txnID string) (*models.WalletTransaction, error)
	UpdateTransactionStatus(ctx context.Context, txnID string, status string) error
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]models.WalletTransaction, error)
	CountTransactions(ctx context.Context, userID string) (int64, error)

	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) Reload(ctx context.Context, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "id = ?", walletID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// AdjustBalance applies a signed delta in SQL. With requireFunds set, the
// WHERE clause refuses to take the balance negative and the rows-affected
// count reports whether the debit landed.
func (r *repository) AdjustBalance(ctx context.Context, walletID string, deltaPaise int64, requireFunds bool) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID)
	if requireFunds {
		q = q.Where("balance_paise + ? >= 0", deltaPaise)
	}
	res := q.Update("balance_paise", gorm.Expr("balance_paise + ?", deltaPaise))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) GetTransaction(ctx context.Context, txnID string) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", txnID).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) UpdateTransactionStatus(ctx context.Context, txnID string, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("id = ?", txnID).
		Update("status", status).Error
}

func (r *repository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	return txns, err
}

func (r *repository) CountTransactions(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
