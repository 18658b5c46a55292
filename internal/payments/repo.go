package payments

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence surface for payment records.
type Repository interface {
	Create(ctx context.Context, record *models.PaymentRecord) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentRecord, error)
	UpdateFields(ctx context.Context, recordID string, fields map[string]any) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.PaymentRecord, error)
	CountByUser(ctx context.Context, userID string) (int64, error)

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

func (r *repository) Create(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.WithContext(ctx).First(&record, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.WithContext(ctx).First(&record, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) UpdateFields(ctx context.Context, recordID string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("id = ?", recordID).
		Updates(fields).Error
}

func (r *repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, err
}

func (r *repository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
