package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/business"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/cart"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/pricing"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/products"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/units"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/users"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/wallet"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/razorpay"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/types"
	"github.com/rs/zerolog"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testRunner struct {
	db *gorm.DB
}

func (r testRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type fakeGateway struct {
	failCreate bool
}

func (f *fakeGateway) CreateOrder(_ context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error) {
	if f.failCreate {
		return nil, apperrors.New(apperrors.CodeDependency, "gateway down")
	}
	return &razorpay.Order{
		ID:          "order_" + uuid.NewString()[:8],
		AmountPaise: req.AmountPaise,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (f *fakeGateway) VerifyPaymentSignature(_, _, signature string) bool {
	return signature == "valid-sig"
}

func (f *fakeGateway) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == "valid-sig"
}

type fixture struct {
	conn     *gorm.DB
	orders   Service
	products products.Service
	carts    cart.Service
	wallet   wallet.Service
	units    units.Service
	payments *payments.ServiceImpl
	gateway  *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{}, &models.Product{}, &models.ProductUnit{},
		&models.CartRecord{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.PaymentRecord{}, &models.Wallet{}, &models.WalletTransaction{},
		&models.BusinessProfile{},
	)
	if err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.Disabled})
	runner := testRunner{db: conn}
	checkoutCfg := config.CheckoutConfig{
		Currency:               "INR",
		B2BMinOrderPaise:       200000,
		SubscriptionPricePaise: 499900,
	}

	unitSvc := units.NewService(units.NewRepository(conn), logg)
	productRepo := products.NewRepository(conn)
	productSvc := products.NewService(productRepo, unitSvc, runner, logg)
	cartSvc := cart.NewService(cart.NewRepository(conn), productSvc, logg)
	walletSvc := wallet.NewService(wallet.NewRepository(conn), runner, logg)
	userRepo := users.NewRepository(conn)
	businessSvc := business.NewService(business.NewRepository(conn), userRepo, runner, logg)

	gateway := &fakeGateway{}
	paymentSvc := payments.NewService(payments.NewRepository(conn), gateway, nil, checkoutCfg, logg)

	orderSvc := NewService(Deps{
		Repo:     NewRepository(conn),
		Users:    userRepo,
		Products: productRepo,
		Carts:    cartSvc,
		Units:    unitSvc,
		Pricer:   pricing.NewEngine(checkoutCfg),
		Wallet:   walletSvc,
		Business: businessSvc,
		Payments: paymentSvc,
		Runner:   runner,
		Logger:   logg,
	})
	paymentSvc.SetOrderFinalizer(orderSvc)
	paymentSvc.SetSubscriptionActivator(businessSvc)

	return &fixture{
		conn:     conn,
		orders:   orderSvc,
		products: productSvc,
		carts:    cartSvc,
		wallet:   walletSvc,
		units:    unitSvc,
		payments: paymentSvc,
		gateway:  gateway,
	}
}

func (f *fixture) seedUser(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{
		Name:  "Ravi Kumar",
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()),
		Role:  enums.UserRoleConsumer,
	}
	if err := f.conn.Create(user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func (f *fixture) seedProduct(t *testing.T, stock int, sellingPaise int64) *models.Product {
	t.Helper()
	product, err := f.products.Create(context.Background(), products.CreateParams{
		Name:                "Steel Bottle",
		Category:            "kitchen",
		PricePaise:          sellingPaise + 2000,
		SellingPricePaise:   sellingPaise,
		GSTPercent:          18,
		ShippingChargePaise: 4000,
		Stock:               stock,
	})
	if err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return product
}

func (f *fixture) fillCart(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	if _, err := f.carts.AddItem(context.Background(), userID, productID, qty); err != nil {
		t.Fatalf("filling cart: %v", err)
	}
}

func shippingAddress() types.Address {
	return types.Address{Line1: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001"}
}

func TestCheckoutCOD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 5, 10000)
	f.fillCart(t, user.ID, product.ID, 2)

	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       shippingAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	order := result.Order
	if order.Status != enums.OrderStatusConfirmed {
		t.Errorf("status = %s, want confirmed", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Errorf("payment status = %s, COD stays pending until delivery", order.PaymentStatus)
	}
	// 2 * 10000 + 18% GST + 2 * 4000 shipping
	if order.TotalPaise != 20000+3600+8000 {
		t.Errorf("total = %d, want 31600", order.TotalPaise)
	}
	if len(order.Items) != 1 || len(order.Items[0].Serials) != 2 {
		t.Fatalf("items = %+v", order.Items)
	}
	if order.Items[0].Serials[0] != product.Code+"-U001" {
		t.Errorf("serials = %v, want oldest first", order.Items[0].Serials)
	}

	avail, err := f.units.Availability(ctx, product.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if avail.Available != 3 {
		t.Errorf("available = %d, want 3", avail.Available)
	}

	// Cart is retired; the next fetch is empty.
	fresh, err := f.carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("cart get: %v", err)
	}
	if len(fresh.Items) != 0 {
		t.Errorf("cart lines = %d, want 0 after checkout", len(fresh.Items))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t)

	_, err := f.orders.Checkout(context.Background(), CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       shippingAddress(),
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutInsufficientStockFailsWholeOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	plenty := f.seedProduct(t, 5, 10000)
	scarce := f.seedProduct(t, 1, 8000)
	f.fillCart(t, user.ID, plenty.ID, 2)
	f.fillCart(t, user.ID, scarce.ID, 3)

	_, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       shippingAddress(),
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// The rollback must return the plentiful product's units too.
	avail, err := f.units.Availability(ctx, plenty.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if avail.Available != 5 {
		t.Errorf("available = %d, allocation leaked", avail.Available)
	}

	var orderCount int64
	if err := f.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("orders = %d, want none persisted", orderCount)
	}

	// The cart survives the failed checkout.
	cartRec, err := f.carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("cart get: %v", err)
	}
	if len(cartRec.Items) != 2 {
		t.Errorf("cart lines = %d, want 2", len(cartRec.Items))
	}
}

func TestCheckoutAllowPartialSkipsShortLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	plenty := f.seedProduct(t, 5, 10000)
	scarce := f.seedProduct(t, 1, 8000)
	f.fillCart(t, user.ID, plenty.ID, 2)
	f.fillCart(t, user.ID, scarce.ID, 3)

	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       shippingAddress(),
		AllowPartial:  true,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if len(result.Skipped) != 1 || result.Skipped[0].ProductID != scarce.ID {
		t.Fatalf("skipped = %+v", result.Skipped)
	}
	if result.Skipped[0].Available != 1 {
		t.Errorf("skipped available = %d, want 1", result.Skipped[0].Available)
	}

	order := result.Order
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want allocated + skipped", len(order.Items))
	}
	var skippedItem *models.OrderItem
	for i := range order.Items {
		if order.Items[i].Status == enums.LineItemStatusSkipped {
			skippedItem = &order.Items[i]
		}
	}
	if skippedItem == nil || skippedItem.LineTotalPaise != 0 {
		t.Errorf("skipped line should carry no charge: %+v", skippedItem)
	}
	// Only the allocated line is billed.
	if order.TotalPaise != 20000+3600+8000 {
		t.Errorf("total = %d, want 31600", order.TotalPaise)
	}

	// The scarce unit was never taken.
	avail, _ := f.units.Availability(ctx, scarce.ID)
	if avail.Available != 1 {
		t.Errorf("scarce available = %d, want untouched 1", avail.Available)
	}
}

func TestCheckoutWalletPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 5, 10000)
	f.fillCart(t, user.ID, product.ID, 1)

	if _, err := f.wallet.Credit(ctx, wallet.EntryParams{UserID: user.ID, AmountPaise: 50000}); err != nil {
		t.Fatalf("funding wallet: %v", err)
	}

	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodWallet,
		Address:       shippingAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if result.Order.PaymentStatus != enums.PaymentStatusSuccess {
		t.Errorf("payment status = %s, want success", result.Order.PaymentStatus)
	}
	if result.WalletTxn == nil || result.WalletTxn.OrderID == nil || *result.WalletTxn.OrderID != result.Order.ID {
		t.Fatalf("wallet txn should reference the order: %+v", result.WalletTxn)
	}

	w, _ := f.wallet.Balance(ctx, user.ID)
	want := int64(50000) - result.Order.TotalPaise
	if w.BalancePaise != want {
		t.Errorf("balance = %d, want %d", w.BalancePaise, want)
	}
}

func TestCheckoutWalletInsufficientReleasesUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 5, 10000)
	f.fillCart(t, user.ID, product.ID, 2)

	if _, err := f.wallet.Credit(ctx, wallet.EntryParams{UserID: user.ID, AmountPaise: 1000}); err != nil {
		t.Fatalf("funding wallet: %v", err)
	}

	_, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodWallet,
		Address:       shippingAddress(),
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected insufficient-funds conflict, got %v", err)
	}

	// The rolled-back attempt left no trace: units back in the pool, no
	// order row, and the cart keeps its line.
	avail, _ := f.units.Availability(ctx, product.ID)
	if avail.Available != 5 {
		t.Errorf("available = %d, want restored 5", avail.Available)
	}

	var orderCount int64
	if err := f.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("orders = %d, want none persisted", orderCount)
	}

	cartRec, err := f.carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("cart get: %v", err)
	}
	if len(cartRec.Items) != 1 || cartRec.Items[0].Quantity != 2 {
		t.Errorf("cart = %+v, want the original line preserved", cartRec.Items)
	}
}

func TestCheckoutGatewayIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 5, 10000)
	f.fillCart(t, user.ID, product.ID, 1)

	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCard,
		Address:       shippingAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if result.Payment == nil || result.Payment.Status != enums.PaymentStatusPending {
		t.Fatalf("payment = %+v, want pending intent", result.Payment)
	}
	if result.Order.GatewayOrderID != result.Payment.GatewayOrderID {
		t.Error("order should carry the gateway order id")
	}
	if result.Order.Status != enums.OrderStatusPending {
		t.Errorf("status = %s, order waits for payment", result.Order.Status)
	}

	// Browser callback settles the payment and confirms the order.
	if _, err := f.payments.VerifyPayment(ctx, payments.VerifyParams{
		UserID:           user.ID,
		GatewayOrderID:   result.Payment.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        "valid-sig",
	}); err != nil {
		t.Fatalf("verify payment: %v", err)
	}

	confirmed, err := f.orders.GetForUser(ctx, user.ID, result.Order.ID)
	if err != nil {
		t.Fatalf("reloading order: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed || confirmed.PaymentStatus != enums.PaymentStatusSuccess {
		t.Errorf("order = %s/%s, want confirmed/success", confirmed.Status, confirmed.PaymentStatus)
	}
}

func TestCheckoutGatewayDownReleasesUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 3, 10000)
	f.fillCart(t, user.ID, product.ID, 2)
	f.gateway.failCreate = true

	_, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCard,
		Address:       shippingAddress(),
	})
	if !apperrors.HasCode(err, apperrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	avail, _ := f.units.Availability(ctx, product.ID)
	if avail.Available != 3 {
		t.Errorf("available = %d, want restored 3", avail.Available)
	}

	var orderCount int64
	if err := f.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("orders = %d, want none persisted", orderCount)
	}
	cartRec, err := f.carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("cart get: %v", err)
	}
	if len(cartRec.Items) != 1 {
		t.Errorf("cart lines = %d, want the line preserved", len(cartRec.Items))
	}
}

func TestFailedPaymentWebhookReleasesUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 4, 10000)
	f.fillCart(t, user.ID, product.ID, 2)

	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCard,
		Address:       shippingAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if err := f.orders.MarkPaymentOutcome(ctx, result.Order.ID, false, "card declined"); err != nil {
		t.Fatalf("mark outcome: %v", err)
	}

	avail, _ := f.units.Availability(ctx, product.ID)
	if avail.Available != 4 {
		t.Errorf("available = %d, want restored 4", avail.Available)
	}

	// Repeating the failure callback is a no-op.
	if err := f.orders.MarkPaymentOutcome(ctx, result.Order.ID, false, "card declined"); err != nil {
		t.Fatalf("repeat outcome: %v", err)
	}
	avail, _ = f.units.Availability(ctx, product.ID)
	if avail.Available != 4 {
		t.Errorf("available = %d after repeat, double release", avail.Available)
	}
}

func TestCancelRefundsWalletAndReleasesUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	product := f.seedProduct(t, 5, 10000)
	f.fillCart(t, user.ID, product.ID, 1)

	if _, err := f.wallet.Credit(ctx, wallet.EntryParams{UserID: user.ID, AmountPaise: 100000}); err != nil {
		t.Fatalf("funding wallet: %v", err)
	}
	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodWallet,
		Address:       shippingAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	cancelled, err := f.orders.Cancel(ctx, user.ID, result.Order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.PaymentStatus != enums.PaymentStatusRefunded {
		t.Errorf("payment status = %s, want refunded", cancelled.PaymentStatus)
	}

	w, _ := f.wallet.Balance(ctx, user.ID)
	if w.BalancePaise != 100000 {
		t.Errorf("balance = %d, want fully refunded 100000", w.BalancePaise)
	}
	avail, _ := f.units.Availability(ctx, product.ID)
	if avail.Available != 5 {
		t.Errorf("available = %d, want restored 5", avail.Available)
	}

	// Cancelled orders cannot be cancelled again.
	if _, err := f.orders.Cancel(ctx, user.ID, result.Order.ID); !apperrors.HasCode(err, apperrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestBusinessPricingAndMinimum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)

	// Promote to an active wholesale subscriber.
	businessSvc := business.NewService(business.NewRepository(f.conn), users.NewRepository(f.conn), testRunner{db: f.conn},
		logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.Disabled}))
	if _, err := businessSvc.CreateProfile(ctx, business.CreateProfileParams{UserID: user.ID, BusinessName: "Kumar Traders"}); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if _, err := businessSvc.ActivateSubscription(ctx, user.ID, time.Now()); err != nil {
		t.Fatalf("activate: %v", err)
	}

	product, err := f.products.Create(ctx, products.CreateParams{
		Name:              "Bulk Rice Sack",
		PricePaise:        60000,
		SellingPricePaise: 55000,
		B2BPricePaise:     40000,
		Stock:             50,
	})
	if err != nil {
		t.Fatalf("seeding product: %v", err)
	}

	// Below the wholesale floor: 2 * 40000 = 80000 < 200000.
	f.fillCart(t, user.ID, product.ID, 2)
	_, err = f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       shippingAddress(),
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected below-minimum conflict, got %v", err)
	}

	// Stock must be untouched after the rolled-back attempt.
	avail, _ := f.units.Availability(ctx, product.ID)
	if avail.Available != 50 {
		t.Errorf("available = %d, want 50", avail.Available)
	}

	// At 5 sacks the wholesale price applies and the floor is met.
	f.fillCart(t, user.ID, product.ID, 3)
	result, err := f.orders.Checkout(ctx, CheckoutParams{
		UserID:        user.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       shippingAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Order.Items[0].UnitPricePaise != 40000 {
		t.Errorf("unit price = %d, want wholesale 40000", result.Order.Items[0].UnitPricePaise)
	}
	if result.Order.SubtotalPaise != 200000 {
		t.Errorf("subtotal = %d, want 200000", result.Order.SubtotalPaise)
	}
}
