package cart

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence surface of the cart.
type Repository interface {
	GetActiveByUserID(ctx context.Context, userID string) (*models.CartRecord, error)
	Create(ctx context.Context, cart *models.CartRecord) error
	GetItem(ctx context.Context, cartID, productID string) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	DeleteItems(ctx context.Context, cartID string) error
	UpdateStatus(ctx context.Context, cartID string, status string) error

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

func (r *repository) GetActiveByUserID(ctx context.Context, userID string) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "user_id = ? AND status = ?", userID, "active").Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.CartRecord) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) GetItem(ctx context.Context, cartID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID string) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}

func (r *repository) UpdateStatus(ctx context.Context, cartID string, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}
