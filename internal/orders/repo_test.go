package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID string, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:        userID,
		Status:        status,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPending,
		SubtotalPaise: 10000,
		TotalPaise:    11800,
		GSTPaise:      1800,
		Items: []models.OrderItem{{
			ProductID:      uuid.NewString(),
			ProductName:    "Clay Diya Set",
			Quantity:       2,
			UnitPricePaise: 5000,
			LineTotalPaise: 11800,
			Serials:        []string{"PRD-AB12CD-U001", "PRD-AB12CD-U002"},
			Status:         enums.LineItemStatusAllocated,
		}},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryScopesOrdersToUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.NewString()
	other := uuid.NewString()
	order := seedOrder(t, db, owner, enums.OrderStatusConfirmed)
	seedOrder(t, db, other, enums.OrderStatusPending)

	got, err := repo.GetForUser(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, []string{"PRD-AB12CD-U001", "PRD-AB12CD-U002"}, got.Items[0].Serials)

	_, err = repo.GetForUser(ctx, other, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	mine, err := repo.ListByUser(ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	count, err := repo.CountByUser(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryListsAllOrdersForAdmin(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedOrder(t, db, uuid.NewString(), enums.OrderStatusConfirmed)
	seedOrder(t, db, uuid.NewString(), enums.OrderStatusPending)
	seedOrder(t, db, uuid.NewString(), enums.OrderStatusCancelled)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	firstPage, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, firstPage, 2)

	secondPage, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, secondPage, 1)
}

func TestRepositoryUpdateItemStatusesOnlyTouchesMatching(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.NewString(), enums.OrderStatusPending)
	skipped := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   uuid.NewString(),
		ProductName: "Brass Bell",
		Quantity:    1,
		Status:      enums.LineItemStatusSkipped,
	}
	require.NoError(t, db.Create(skipped).Error)

	err := repo.UpdateItemStatuses(ctx, order.ID,
		enums.LineItemStatusAllocated.String(), enums.LineItemStatusReleased.String())
	require.NoError(t, err)

	reloaded, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	for _, item := range reloaded.Items {
		switch item.ProductName {
		case "Clay Diya Set":
			assert.Equal(t, enums.LineItemStatusReleased, item.Status)
		case "Brass Bell":
			assert.Equal(t, enums.LineItemStatusSkipped, item.Status)
		}
	}
}
