package products

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// ListFilter narrows a catalog listing.
type ListFilter struct {
	Category    string
	InStockOnly bool
	Search      string
}

// Repository is the persistence surface of the catalog.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	UpdateFields(ctx context.Context, productID string, fields map[string]any) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]models.Product, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	CountSoldUnits(ctx context.Context, productID string) (int64, error)
	Delete(ctx context.Context, productID string) error

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

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) UpdateFields(ctx context.Context, productID string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(fields).Error
}

func (r *repository) applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.InStockOnly {
		q = q.Where("in_stock = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}
	return q
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	q := r.applyFilter(r.db.WithContext(ctx), filter)
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error
	return products, err
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var count int64
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter)
	err := q.Count(&count).Error
	return count, err
}

func (r *repository) CountSoldUnits(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND is_sold = ?", productID, true).
		Count(&count).Error
	return count, err
}

// Delete removes the product and its unsold units.
func (r *repository) Delete(ctx context.Context, productID string) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.ProductUnit{}, "product_id = ?", productID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", productID).Error
}
