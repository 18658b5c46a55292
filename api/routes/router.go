package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohanmehta-dev/vaanijya-backend/api/controllers"
	webhookcontrollers "github.com/rohanmehta-dev/vaanijya-backend/api/controllers/webhooks"
	"github.com/rohanmehta-dev/vaanijya-backend/api/middleware"
	businesssvc "github.com/rohanmehta-dev/vaanijya-backend/internal/business"
	cartsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/cart"
	ordersvc "github.com/rohanmehta-dev/vaanijya-backend/internal/orders"
	paymentsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	productsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/products"
	walletsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/wallet"
	pkgauth "github.com/rohanmehta-dev/vaanijya-backend/pkg/auth"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	pkgredis "github.com/rohanmehta-dev/vaanijya-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Tokens   *pkgauth.TokenManager
	Pingers  map[string]controllers.Pinger
	Idem     *pkgredis.IdempotencyStore
	Registry *prometheus.Registry

	Products  productsvc.Service
	Carts     cartsvc.Service
	Orders    ordersvc.Service
	OrderRepo ordersvc.Repository
	Wallet    walletsvc.Service
	Payments  paymentsvc.Service
	Business  businesssvc.Service
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.Pingers))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(d.Payments, d.Logger))
	})

	// Public catalog.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(d.Products, d.Logger))
		r.Get("/{productId}", controllers.ProductDetail(d.Products, d.Logger))
		r.Get("/{productId}/availability", controllers.ProductAvailability(d.Products, d.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Tokens, d.Logger))
		r.Use(middleware.Idempotency(d.Idem, d.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(d.Carts, d.Logger))
			r.Post("/items", controllers.CartAddItem(d.Carts, d.Logger))
			r.Put("/items/{productId}", controllers.CartSetQuantity(d.Carts, d.Logger))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Carts, d.Logger))
			r.Delete("/", controllers.CartClear(d.Carts, d.Logger))
		})

		r.Post("/checkout", controllers.Checkout(d.Orders, d.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.Orders, d.Logger))
			r.Get("/{orderId}", controllers.OrderDetail(d.Orders, d.Logger))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, d.Logger))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletFetch(d.Wallet, d.Logger))
			r.Post("/funds", controllers.WalletAddFunds(d.Wallet, d.Logger))
			r.Post("/withdrawals", controllers.WalletWithdraw(d.Wallet, d.Logger))
			r.Get("/transactions", controllers.WalletTransactions(d.Wallet, d.Logger))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.PaymentList(d.Payments, d.Logger))
			r.Post("/verify", controllers.PaymentVerify(d.Payments, d.Logger))
		})

		r.Route("/business", func(r chi.Router) {
			r.Get("/profile", controllers.BusinessProfileFetch(d.Business, d.Logger))
			r.Post("/profile", controllers.BusinessProfileCreate(d.Business, d.Logger))
			r.Post("/subscription", controllers.BusinessSubscriptionCreate(d.Payments, d.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Tokens, d.Logger))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), d.Logger))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(d.Products, d.Logger))
			r.Patch("/{productId}", controllers.AdminProductUpdate(d.Products, d.Logger))
			r.Delete("/{productId}", controllers.AdminProductDelete(d.Products, d.Logger))
		})
		r.Get("/orders", controllers.AdminOrderList(d.OrderRepo, d.Logger))
		r.Post("/wallet/withdrawals/{txnId}/decision", controllers.AdminWithdrawalDecision(d.Wallet, d.Logger))
	})

	return r
}
