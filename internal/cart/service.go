package cart

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"gorm.io/gorm"
)

const maxQuantityPerLine = 999

// ProductGetter is the slice of the product catalog the cart needs.
type ProductGetter interface {
	GetByID(ctx context.Context, productID string) (*models.Product, error)
}

// Service manages the single active cart per user.
type Service interface {
	Get(ctx context.Context, userID string) (*models.CartRecord, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartRecord, error)
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.CartRecord, error)
	Clear(ctx context.Context, userID string) error
	MarkCheckedOut(ctx context.Context, userID string) error

	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo     Repository
	products ProductGetter
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(repo Repository, products ProductGetter, logg *logger.Logger) Service {
	return &service{repo: repo, products: products, logg: logg}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), products: s.products, logg: s.logg}
}

// Get returns the user's active cart, creating an empty one on first use.
func (s *service) Get(ctx context.Context, userID string) (*models.CartRecord, error) {
	cart, err := s.repo.GetActiveByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	cart = &models.CartRecord{UserID: userID, Status: enums.CartStatusActive}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// AddItem adds quantity to an existing line or creates a new one.
func (s *service) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartRecord, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		newQty := existing.Quantity + quantity
		if newQty > maxQuantityPerLine {
			newQty = maxQuantityPerLine
		}
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, newQty); err != nil {
			return nil, err
		}
	case err == gorm.ErrRecordNotFound:
		item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.repo.GetActiveByUserID(ctx, userID)
}

// SetItemQuantity overwrites a line's quantity. Zero removes the line.
func (s *service) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*models.CartRecord, error) {
	if quantity < 0 || quantity > maxQuantityPerLine {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity out of range")
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, cart.ID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "item not in cart")
		}
		return nil, err
	}

	if quantity == 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
	} else if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}

	return s.repo.GetActiveByUserID(ctx, userID)
}

// RemoveItem drops a line from the cart.
func (s *service) RemoveItem(ctx context.Context, userID, productID string) (*models.CartRecord, error) {
	return s.SetItemQuantity(ctx, userID, productID, 0)
}

// Clear empties the active cart.
func (s *service) Clear(ctx context.Context, userID string) error {
	cart, err := s.repo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return s.repo.DeleteItems(ctx, cart.ID)
}

// MarkCheckedOut retires the active cart, preserving its lines as the
// checkout snapshot. The next Get starts a fresh cart.
func (s *service) MarkCheckedOut(ctx context.Context, userID string) error {
	cart, err := s.repo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.New(apperrors.CodeNotFound, "no active cart")
		}
		return err
	}
	return s.repo.UpdateStatus(ctx, cart.ID, enums.CartStatusCheckedOut.String())
}

func (s *service) requireProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound || apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 || quantity > maxQuantityPerLine {
		return apperrors.New(apperrors.CodeValidation, "quantity out of range")
	}
	return nil
}
