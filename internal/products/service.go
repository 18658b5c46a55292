package products

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rohanmehta-dev/vaanijya-backend/internal/units"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateParams is the input for a new catalog entry.
type CreateParams struct {
	Name                string
	Description         string
	Category            string
	PricePaise          int64
	SellingPricePaise   int64
	B2BPricePaise       int64
	GSTPercent          int
	ShippingChargePaise int64
	Stock               int
}

// UpdateParams is a partial update; nil fields stay untouched.
type UpdateParams struct {
	Name                *string
	Description         *string
	Category            *string
	PricePaise          *int64
	SellingPricePaise   *int64
	B2BPricePaise       *int64
	GSTPercent          *int
	ShippingChargePaise *int64
	Stock               *int
}

// Service manages the catalog. Stock changes always flow through the unit
// ledger so the serialized pool and the stock counter stay reconciled.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Product, error)
	Update(ctx context.Context, productID string, params UpdateParams) (*models.Product, error)
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Product, int64, error)
	Delete(ctx context.Context, productID string) error
	Availability(ctx context.Context, productID string) (*units.Availability, error)
}

type service struct {
	repo   Repository
	units  units.Service
	runner txRunner
	logg   *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo Repository, unitLedger units.Service, runner txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, units: unitLedger, runner: runner, logg: logg}
}

// Create inserts the product and mints one unit per piece of opening stock.
func (s *service) Create(ctx context.Context, params CreateParams) (*models.Product, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	var created *models.Product
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product := &models.Product{
			Name:                strings.TrimSpace(params.Name),
			Description:         params.Description,
			Category:            params.Category,
			PricePaise:          params.PricePaise,
			SellingPricePaise:   params.SellingPricePaise,
			B2BPricePaise:       params.B2BPricePaise,
			GSTPercent:          params.GSTPercent,
			ShippingChargePaise: params.ShippingChargePaise,
			InStock:             params.Stock > 0,
		}

		if err := s.createWithFreshCode(ctx, repo, product); err != nil {
			return err
		}

		if params.Stock > 0 {
			if _, err := s.units.WithTx(tx).Reconcile(ctx, product.ID, params.Stock); err != nil {
				return err
			}
			product.Stock = params.Stock
			product.NextSerial = params.Stock + 1
		}

		created = product
		return nil
	})
	return created, err
}

// createWithFreshCode inserts the row, regenerating the product code once if
// the random code collides with an existing one.
func (s *service) createWithFreshCode(ctx context.Context, repo Repository, product *models.Product) error {
	for attempt := 0; attempt < 2; attempt++ {
		code, err := generateCode()
		if err != nil {
			return err
		}
		product.Code = code

		err = repo.Create(ctx, product)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "idx_products_code") || attempt == 1 {
			return err
		}
		product.ID = ""
	}
	return apperrors.New(apperrors.CodeInternal, "product code generation exhausted")
}

// Update applies the changed fields; a stock change re-runs reconciliation.
// A concurrent-write conflict rolls the transaction back and the update is
// repeated once on fresh state.
func (s *service) Update(ctx context.Context, productID string, params UpdateParams) (*models.Product, error) {
	var updated *models.Product
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		updated, err = s.applyUpdate(ctx, productID, params)
		if err == nil || !apperrors.HasCode(err, apperrors.CodeConcurrency) || attempt == 1 {
			break
		}
		s.logg.Warn(ctx, "product update hit concurrent write, retrying")
	}
	return updated, err
}

func (s *service) applyUpdate(ctx context.Context, productID string, params UpdateParams) (*models.Product, error) {
	var updated *models.Product
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.GetByID(ctx, productID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "product not found")
			}
			return err
		}

		fields := map[string]any{}
		if params.Name != nil {
			fields["name"] = strings.TrimSpace(*params.Name)
		}
		if params.Description != nil {
			fields["description"] = *params.Description
		}
		if params.Category != nil {
			fields["category"] = *params.Category
		}
		if params.PricePaise != nil {
			fields["price_paise"] = *params.PricePaise
		}
		if params.SellingPricePaise != nil {
			fields["selling_price_paise"] = *params.SellingPricePaise
		}
		if params.B2BPricePaise != nil {
			fields["b2b_price_paise"] = *params.B2BPricePaise
		}
		if params.GSTPercent != nil {
			fields["gst_percent"] = *params.GSTPercent
		}
		if params.ShippingChargePaise != nil {
			fields["shipping_charge_paise"] = *params.ShippingChargePaise
		}
		if len(fields) > 0 {
			if err := repo.UpdateFields(ctx, productID, fields); err != nil {
				return err
			}
		}

		if params.Stock != nil {
			if _, err := s.units.WithTx(tx).Reconcile(ctx, productID, *params.Stock); err != nil {
				return err
			}
		}

		reloaded, err := repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		updated = reloaded
		return nil
	})
	return updated, err
}

func (s *service) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Product, int64, error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.repo.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete removes a product. Products with sold units are kept for serial
// history and must be retired by zeroing stock instead.
func (s *service) Delete(ctx context.Context, productID string) error {
	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.GetByID(ctx, productID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "product not found")
			}
			return err
		}

		sold, err := repo.CountSoldUnits(ctx, productID)
		if err != nil {
			return err
		}
		if sold > 0 {
			return apperrors.New(apperrors.CodeStateConflict, "product has sold units, zero its stock instead")
		}

		return repo.Delete(ctx, productID)
	})
}

func (s *service) Availability(ctx context.Context, productID string) (*units.Availability, error) {
	return s.units.Availability(ctx, productID)
}

// generateCode returns "PRD-" plus six random hex characters.
func generateCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating product code: %w", err)
	}
	return "PRD-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func validateCreate(params CreateParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if params.PricePaise <= 0 || params.SellingPricePaise <= 0 {
		return apperrors.New(apperrors.CodeValidation, "prices must be positive")
	}
	if params.GSTPercent < 0 || params.GSTPercent > 100 {
		return apperrors.New(apperrors.CodeValidation, "gst percent out of range")
	}
	if params.Stock < 0 {
		return apperrors.New(apperrors.CodeValidation, "stock must not be negative")
	}
	return nil
}
