package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	businesssvc "github.com/rohanmehta-dev/vaanijya-backend/internal/business"
	cartsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/cart"
	ordersvc "github.com/rohanmehta-dev/vaanijya-backend/internal/orders"
	paymentsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	productsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/products"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/units"
	walletsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/wallet"
	pkgauth "github.com/rohanmehta-dev/vaanijya-backend/pkg/auth"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
)

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, params productsvc.CreateParams) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, productID string, params productsvc.UpdateParams) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) List(ctx context.Context, filter productsvc.ListFilter, page pagination.Params) ([]models.Product, int64, error) {
	return []models.Product{}, 0, nil
}

func (stubProductService) Delete(ctx context.Context, productID string) error {
	panic("unimplemented")
}

func (stubProductService) Availability(ctx context.Context, productID string) (*units.Availability, error) {
	panic("unimplemented")
}

type stubCartService struct{}

func (s stubCartService) Get(ctx context.Context, userID string) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (s stubCartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (s stubCartService) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (s stubCartService) RemoveItem(ctx context.Context, userID, productID string) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (s stubCartService) Clear(ctx context.Context, userID string) error {
	panic("unimplemented")
}

func (s stubCartService) MarkCheckedOut(ctx context.Context, userID string) error {
	panic("unimplemented")
}

func (s stubCartService) WithTx(tx *gorm.DB) cartsvc.Service {
	return s
}

type stubOrderService struct{}

func (stubOrderService) Checkout(ctx context.Context, params ordersvc.CheckoutParams) (*ordersvc.CheckoutResult, error) {
	panic("unimplemented")
}

func (stubOrderService) GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) List(ctx context.Context, userID string, page pagination.Params) ([]models.Order, int64, error) {
	return []models.Order{}, 0, nil
}

func (stubOrderService) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) MarkPaymentOutcome(ctx context.Context, orderID string, success bool, failureReason string) error {
	panic("unimplemented")
}

type stubOrderRepo struct{}

func (s stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	panic("unimplemented")
}

func (s stubOrderRepo) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrderRepo) GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	panic("unimplemented")
}

func (s stubOrderRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	panic("unimplemented")
}

func (s stubOrderRepo) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (s stubOrderRepo) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s stubOrderRepo) UpdateFields(ctx context.Context, orderID string, fields map[string]any) error {
	panic("unimplemented")
}

func (s stubOrderRepo) UpdateItemStatuses(ctx context.Context, orderID, fromStatus, toStatus string) error {
	panic("unimplemented")
}

func (s stubOrderRepo) WithTx(tx *gorm.DB) ordersvc.Repository {
	return s
}

type stubWalletService struct{}

func (s stubWalletService) EnsureWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	panic("unimplemented")
}

func (s stubWalletService) Balance(ctx context.Context, userID string) (*models.Wallet, error) {
	panic("unimplemented")
}

func (s stubWalletService) Credit(ctx context.Context, params walletsvc.EntryParams) (*models.WalletTransaction, error) {
	panic("unimplemented")
}

func (s stubWalletService) Debit(ctx context.Context, params walletsvc.EntryParams) (*models.WalletTransaction, error) {
	panic("unimplemented")
}

func (s stubWalletService) RequestWithdrawal(ctx context.Context, userID string, amountPaise int64) (*models.WalletTransaction, error) {
	panic("unimplemented")
}

func (s stubWalletService) ResolveWithdrawal(ctx context.Context, txnID string, approve bool) (*models.WalletTransaction, error) {
	panic("unimplemented")
}

func (s stubWalletService) Transactions(ctx context.Context, userID string, page pagination.Params) ([]models.WalletTransaction, int64, error) {
	panic("unimplemented")
}

func (s stubWalletService) WithTx(tx *gorm.DB) walletsvc.Service {
	return s
}

type stubPaymentService struct{}

func (s stubPaymentService) CreateIntent(ctx context.Context, params paymentsvc.IntentParams) (*models.PaymentRecord, error) {
	panic("unimplemented")
}

func (s stubPaymentService) CreateSubscriptionIntent(ctx context.Context, userID string) (*models.PaymentRecord, error) {
	panic("unimplemented")
}

func (s stubPaymentService) VerifyPayment(ctx context.Context, params paymentsvc.VerifyParams) (*models.PaymentRecord, error) {
	panic("unimplemented")
}

func (s stubPaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	panic("unimplemented")
}

func (s stubPaymentService) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]models.PaymentRecord, int64, error) {
	panic("unimplemented")
}

func (s stubPaymentService) WithTx(tx *gorm.DB) paymentsvc.Service {
	return s
}

type stubBusinessService struct{}

func (s stubBusinessService) CreateProfile(ctx context.Context, params businesssvc.CreateProfileParams) (*models.BusinessProfile, error) {
	panic("unimplemented")
}

func (s stubBusinessService) GetProfile(ctx context.Context, userID string) (*models.BusinessProfile, error) {
	panic("unimplemented")
}

func (s stubBusinessService) ActivateSubscription(ctx context.Context, userID string, from time.Time) (*models.BusinessProfile, error) {
	panic("unimplemented")
}

func (s stubBusinessService) SubscriptionActive(ctx context.Context, userID string, at time.Time) (bool, error) {
	panic("unimplemented")
}

func (s stubBusinessService) WithTx(tx *gorm.DB) businesssvc.Service {
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "vaanijya",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, tokens *pkgauth.TokenManager) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		Tokens:    tokens,
		Products:  stubProductService{},
		Carts:     stubCartService{},
		Orders:    stubOrderService{},
		OrderRepo: stubOrderRepo{},
		Wallet:    stubWalletService{},
		Payments:  stubPaymentService{},
		Business:  stubBusinessService{},
	})
}

func mintToken(t *testing.T, tokens *pkgauth.TokenManager, role enums.UserRole) string {
	t.Helper()
	token, err := tokens.Mint(uuid.NewString(), role)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, pkgauth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Vaanijya-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, pkgauth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, pkgauth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithToken(t *testing.T) {
	cfg := testConfig()
	tokens := pkgauth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour)
	router := newTestRouter(cfg, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, tokens, enums.UserRoleConsumer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed orders list got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	tokens := pkgauth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour)
	router := newTestRouter(cfg, tokens)

	consumer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	consumer.Header.Set("Authorization", "Bearer "+mintToken(t, tokens, enums.UserRoleConsumer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, consumer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+mintToken(t, tokens, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin orders got %d", resp.Code)
	}
}
