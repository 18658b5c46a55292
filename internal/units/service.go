package units

import (
	"context"
	"fmt"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"gorm.io/gorm"
)

// serialFormat is "<product code>-U<zero-padded number>", e.g. PRD-1A2B3C-U007.
const serialFormat = "%s-U%03d"

// OutOfStockDetails is attached to insufficient-stock errors so the API can
// tell the buyer how many pieces remain.
type OutOfStockDetails struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientUnsoldDetails is attached when a stock decrease would have to
// remove units that are already sold.
type InsufficientUnsoldDetails struct {
	ProductID string `json:"product_id"`
	ToRemove  int    `json:"to_remove"`
	Unsold    int    `json:"unsold"`
}

// AllocateParams identifies what to allocate and who it belongs to.
type AllocateParams struct {
	ProductID string
	Quantity  int
	BuyerID   string
	OrderID   string
}

// Allocation is the outcome of a successful allocation. FromLegacy counts
// pieces drawn from the untracked stock counter after the unit pool ran dry.
type Allocation struct {
	ProductID  string   `json:"product_id"`
	Serials    []string `json:"serials"`
	FromUnits  int      `json:"from_units"`
	FromLegacy int      `json:"from_legacy"`
}

// ReconcileResult reports what a stock reconciliation changed.
type ReconcileResult struct {
	ProductID      string   `json:"product_id"`
	MintedSerials  []string `json:"minted_serials,omitempty"`
	RemovedSerials []string `json:"removed_serials,omitempty"`
	TotalUnits     int      `json:"total_units"`
}

// Availability is the sellable-quantity snapshot for a product.
type Availability struct {
	ProductID   string `json:"product_id"`
	TotalUnits  int    `json:"total_units"`
	UnsoldUnits int    `json:"unsold_units"`
	LegacyStock int    `json:"legacy_stock"`
	Available   int    `json:"available"`
	InStock     bool   `json:"in_stock"`
}

// Service is the serialized-unit ledger. Allocate and Reconcile are
// transaction-scoped primitives: callers run them inside db.Client.WithTx
// via the tx-bound service, and a CodeConcurrency result means the enclosing
// transaction must be rolled back and the attempt repeated on fresh state.
type Service interface {
	Reconcile(ctx context.Context, productID string, targetStock int) (*ReconcileResult, error)
	Allocate(ctx context.Context, params AllocateParams) (*Allocation, error)
	Release(ctx context.Context, productID string, serials []string, legacyQty int) error
	Availability(ctx context.Context, productID string) (*Availability, error)

	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the unit ledger service.
func NewService(repo Repository, logg *logger.Logger) Service {
	return &service{repo: repo, logg: logg}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), logg: s.logg}
}

// Reconcile mints or removes units until the product's unit count matches
// targetStock, then writes the stock counter to the same value. Removal only
// touches unsold units, newest first, so sold serial history is never lost.
func (s *service) Reconcile(ctx context.Context, productID string, targetStock int) (*ReconcileResult, error) {
	if targetStock < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "target stock must not be negative")
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	total, err := s.repo.CountUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	unsold, err := s.repo.CountUnsold(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{ProductID: productID, TotalUnits: targetStock}
	delta := targetStock - int(total)

	switch {
	case delta > 0:
		minted, nextSerial, err := s.mintUnits(ctx, product, delta)
		if err != nil {
			return nil, err
		}
		result.MintedSerials = minted
		product.NextSerial = nextSerial
		unsold += int64(delta)

	case delta < 0:
		toRemove := -delta
		if int64(toRemove) > unsold {
			return nil, apperrors.New(apperrors.CodeConflict, "cannot remove sold units").
				WithDetails(InsufficientUnsoldDetails{
					ProductID: productID,
					ToRemove:  toRemove,
					Unsold:    int(unsold),
				})
		}
		victims, err := s.repo.ListUnsoldNewestFirst(ctx, productID, toRemove)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(victims))
		for _, u := range victims {
			ids = append(ids, u.ID)
			result.RemovedSerials = append(result.RemovedSerials, u.Serial)
		}
		if err := s.repo.DeleteUnits(ctx, ids); err != nil {
			return nil, err
		}
		unsold -= int64(toRemove)
	}

	expectedVersion := product.Version
	product.Stock = targetStock
	product.InStock = unsold > 0
	ok, err := s.repo.UpdateProductGuarded(ctx, product, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeConcurrency, "product changed during reconcile")
	}

	return result, nil
}

// mintUnits creates count new units numbered from the product's serial
// counter. The counter is the high-water mark: serials below it may belong to
// retired units and are never reissued. A unique violation therefore means a
// concurrent mint, and the enclosing transaction must retry on fresh state.
func (s *service) mintUnits(ctx context.Context, product *models.Product, count int) ([]string, int, error) {
	next := product.NextSerial
	if next < 1 {
		next = 1
	}

	batch := make([]models.ProductUnit, 0, count)
	serials := make([]string, 0, count)
	for i := 0; i < count; i++ {
		serial := fmt.Sprintf(serialFormat, product.Code, next+i)
		batch = append(batch, models.ProductUnit{
			ProductID: product.ID,
			Serial:    serial,
			Seq:       next + i,
		})
		serials = append(serials, serial)
	}

	if err := s.repo.CreateUnits(ctx, batch); err != nil {
		if db.IsUniqueViolation(err, "idx_product_units_serial") {
			s.logg.Warn(ctx, "serial already minted by a concurrent writer")
			return nil, 0, apperrors.New(apperrors.CodeConcurrency, "serial minted concurrently")
		}
		return nil, 0, err
	}
	return serials, next + count, nil
}

// Allocate marks quantity pieces as sold, drawing serialized units oldest
// first and falling back to the legacy stock counter for the remainder.
func (s *service) Allocate(ctx context.Context, params AllocateParams) (*Allocation, error) {
	if params.Quantity <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.repo.GetProduct(ctx, params.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	total, err := s.repo.CountUnits(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}
	unsoldCount, err := s.repo.CountUnsold(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}

	legacyExtra := product.Stock - int(total)
	if legacyExtra < 0 {
		legacyExtra = 0
	}
	available := int(unsoldCount) + legacyExtra
	if available < params.Quantity {
		return nil, apperrors.New(apperrors.CodeConflict, "insufficient stock").
			WithDetails(OutOfStockDetails{
				ProductID: params.ProductID,
				Requested: params.Quantity,
				Available: available,
			})
	}

	fromUnits := params.Quantity
	if int(unsoldCount) < fromUnits {
		fromUnits = int(unsoldCount)
	}
	fromLegacy := params.Quantity - fromUnits

	var serials []string
	if fromUnits > 0 {
		picked, err := s.repo.ListUnsoldOldestFirst(ctx, params.ProductID, fromUnits)
		if err != nil {
			return nil, err
		}
		if len(picked) < fromUnits {
			return nil, apperrors.New(apperrors.CodeConcurrency, "unit pool shrank during allocation")
		}
		serials = make([]string, 0, fromUnits)
		for _, u := range picked {
			serials = append(serials, u.Serial)
		}

		affected, err := s.repo.MarkSold(ctx, params.ProductID, serials, params.BuyerID, params.OrderID)
		if err != nil {
			return nil, err
		}
		if affected != int64(fromUnits) {
			return nil, apperrors.New(apperrors.CodeConcurrency, "units sold concurrently")
		}
	}

	expectedVersion := product.Version
	product.Stock -= fromLegacy
	remaining := available - params.Quantity
	product.InStock = remaining > 0
	ok, err := s.repo.UpdateProductGuarded(ctx, product, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeConcurrency, "product changed during allocation")
	}

	return &Allocation{
		ProductID:  params.ProductID,
		Serials:    serials,
		FromUnits:  fromUnits,
		FromLegacy: fromLegacy,
	}, nil
}

// Release returns allocated pieces to the pool. Serials flip back to unsold
// and the legacy counter is credited atomically. Safe to call more than once
// for the same allocation.
func (s *service) Release(ctx context.Context, productID string, serials []string, legacyQty int) error {
	if err := s.repo.MarkUnsold(ctx, productID, serials); err != nil {
		return err
	}
	if len(serials) == 0 && legacyQty <= 0 {
		return nil
	}
	return s.repo.RestockLegacy(ctx, productID, legacyQty)
}

// Availability reports how many pieces of a product are sellable right now.
func (s *service) Availability(ctx context.Context, productID string) (*Availability, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	total, err := s.repo.CountUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	unsold, err := s.repo.CountUnsold(ctx, productID)
	if err != nil {
		return nil, err
	}

	legacyExtra := product.Stock - int(total)
	if legacyExtra < 0 {
		legacyExtra = 0
	}

	return &Availability{
		ProductID:   productID,
		TotalUnits:  int(total),
		UnsoldUnits: int(unsold),
		LegacyStock: legacyExtra,
		Available:   int(unsold) + legacyExtra,
		InStock:     int(unsold)+legacyExtra > 0,
	}, nil
}
