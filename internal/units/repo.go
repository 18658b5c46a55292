package units

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence surface of the unit ledger.
type Repository interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	CountUnits(ctx context.Context, productID string) (int64, error)
	CountUnsold(ctx context.Context, productID string) (int64, error)
	ListUnsoldOldestFirst(ctx context.Context, productID string, limit int) ([]models.ProductUnit, error)
	ListUnsoldNewestFirst(ctx context.Context, productID string, limit int) ([]models.ProductUnit, error)
	CreateUnits(ctx context.Context, units []models.ProductUnit) error
	DeleteUnits(ctx context.Context, ids []string) error
	MarkSold(ctx context.Context, productID string, serials []string, buyerID, orderID string) (int64, error)
	MarkUnsold(ctx context.Context, productID string, serials []string) error
	UpdateProductGuarded(ctx context.Context, product *models.Product, expectedVersion int64) (bool, error)
	RestockLegacy(ctx context.Context, productID string, qty int) error

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

func (r *repository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CountUnits(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountUnsold(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND is_sold = ?", productID, false).
		Count(&count).Error
	return count, err
}

func (r *repository) ListUnsoldOldestFirst(ctx context.Context, productID string, limit int) ([]models.ProductUnit, error) {
	var units []models.ProductUnit
	q := r.db.WithContext(ctx).
		Where("product_id = ? AND is_sold = ?", productID, false).
		Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&units).Error
	return units, err
}

func (r *repository) ListUnsoldNewestFirst(ctx context.Context, productID string, limit int) ([]models.ProductUnit, error) {
	var units []models.ProductUnit
	q := r.db.WithContext(ctx).
		Where("product_id = ? AND is_sold = ?", productID, false).
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&units).Error
	return units, err
}

func (r *repository) CreateUnits(ctx context.Context, units []models.ProductUnit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *repository) DeleteUnits(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&models.ProductUnit{}, "id IN ?", ids).Error
}

// MarkSold flips unsold units to sold and stamps the buyer. The WHERE clause
// on is_sold makes the write safe to race: the rows-affected count tells the
// caller whether it won every unit it asked for.
func (r *repository) MarkSold(ctx context.Context, productID string, serials []string, buyerID, orderID string) (int64, error) {
	if len(serials) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND serial IN ? AND is_sold = ?", productID, serials, false).
		Updates(map[string]any{
			"is_sold":  true,
			"buyer_id": buyerID,
			"order_id": orderID,
			"sold_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		})
	return res.RowsAffected, res.Error
}

// MarkUnsold returns units to the pool. Already-unsold serials are no-ops,
// so rollback retries stay idempotent.
func (r *repository) MarkUnsold(ctx context.Context, productID string, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND serial IN ?", productID, serials).
		Updates(map[string]any{
			"is_sold":  false,
			"buyer_id": nil,
			"order_id": nil,
			"sold_at":  nil,
		}).Error
}

// UpdateProductGuarded writes the counter columns only when the row still
// carries expectedVersion. Returns false when another writer got there first.
func (r *repository) UpdateProductGuarded(ctx context.Context, product *models.Product, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Updates(map[string]any{
			"stock":       product.Stock,
			"in_stock":    product.InStock,
			"next_serial": product.NextSerial,
			"version":     expectedVersion + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestockLegacy credits the stock counter and flips in_stock back on. The
// increment is expressed in SQL so it needs no version guard.
func (r *repository) RestockLegacy(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		qty = 0
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock":    gorm.Expr("stock + ?", qty),
			"in_stock": true,
			"version":  gorm.Expr("version + 1"),
		}).Error
}
