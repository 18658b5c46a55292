package orders

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence surface for orders.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	UpdateFields(ctx context.Context, orderID string, fields map[string]any) error
	UpdateItemStatuses(ctx context.Context, orderID, fromStatus, toStatus string) error

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

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND user_id = ?", orderID, userID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *repository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateFields(ctx context.Context, orderID string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(fields).Error
}

func (r *repository) UpdateItemStatuses(ctx context.Context, orderID, fromStatus, toStatus string) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND status = ?", orderID, fromStatus).
		Update("status", toStatus).Error
}
