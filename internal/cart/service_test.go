package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeProducts struct {
	byID map[string]*models.Product
}

func (f *fakeProducts) GetByID(_ context.Context, productID string) (*models.Product, error) {
	if p, ok := f.byID[productID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService(t *testing.T) (Service, *fakeProducts) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.CartRecord{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	products := &fakeProducts{byID: map[string]*models.Product{}}
	logg := logger.New(logger.Options{ServiceName: "cart-test", Level: zerolog.Disabled})
	return NewService(NewRepository(conn), products, logg), products
}

func seedProduct(products *fakeProducts) string {
	id := uuid.NewString()
	products.byID[id] = &models.Product{ID: id, Name: "Widget", SellingPricePaise: 10000, InStock: true}
	return id
}

func TestGetCreatesEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	cart, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cart.UserID != userID || len(cart.Items) != 0 {
		t.Errorf("cart = %+v", cart)
	}

	// A second fetch returns the same cart, not a new one.
	again, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.ID != cart.ID {
		t.Error("expected the same cart on repeat fetch")
	}
}

func TestAddItemMergesDuplicateLines(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()
	productID := seedProduct(products)

	if _, err := svc.AddItem(ctx, userID, productID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(ctx, userID, productID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("lines = %d, want 1 merged line", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", cart.Items[0].Quantity)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, uuid.NewString(), uuid.NewString(), 1)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetItemQuantityZeroRemovesLine(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()
	productID := seedProduct(products)

	if _, err := svc.AddItem(ctx, userID, productID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.SetItemQuantity(ctx, userID, productID, 0)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("lines = %d, want 0", len(cart.Items))
	}
}

func TestSetItemQuantityMissingLine(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetItemQuantity(ctx, uuid.NewString(), seedProduct(products), 2)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	if _, err := svc.AddItem(ctx, userID, seedProduct(products), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddItem(ctx, userID, seedProduct(products), 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Clear(ctx, userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cart, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("lines = %d, want 0 after clear", len(cart.Items))
	}

	// Clearing a user with no cart is a no-op, not an error.
	if err := svc.Clear(ctx, uuid.NewString()); err != nil {
		t.Fatalf("clear without cart: %v", err)
	}
}

func TestMarkCheckedOutStartsFreshCart(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	old, err := svc.AddItem(ctx, userID, seedProduct(products), 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.MarkCheckedOut(ctx, userID); err != nil {
		t.Fatalf("mark checked out: %v", err)
	}

	fresh, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.ID == old.ID {
		t.Error("expected a new cart after checkout")
	}
	if len(fresh.Items) != 0 {
		t.Errorf("fresh cart has %d lines, want 0", len(fresh.Items))
	}
}

func TestQuantityValidation(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(products)

	if _, err := svc.AddItem(ctx, uuid.NewString(), productID, 0); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, uuid.NewString(), productID, 1000); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for oversized quantity, got %v", err)
	}
}
