package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rohanmehta-dev/vaanijya-backend/api/controllers"
	"github.com/rohanmehta-dev/vaanijya-backend/api/routes"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/business"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/cart"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/orders"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/pricing"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/products"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/units"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/users"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/wallet"
	pkgauth "github.com/rohanmehta-dev/vaanijya-backend/pkg/auth"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/env"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/metrics"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/migrate"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/razorpay"
	pkgredis "github.com/rohanmehta-dev/vaanijya-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate && cfg.App.IsDev() {
		if err := migrate.AutoRun(context.Background(), dbClient, logg); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckout(registry)

	tokens := pkgauth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer,
		time.Duration(cfg.JWT.ExpirationMinutes)*time.Minute)

	conn := dbClient.DB()
	unitSvc := units.NewService(units.NewRepository(conn), logg)
	productRepo := products.NewRepository(conn)
	productSvc := products.NewService(productRepo, unitSvc, dbClient, logg)
	cartSvc := cart.NewService(cart.NewRepository(conn), productSvc, logg)
	walletSvc := wallet.NewService(wallet.NewRepository(conn), dbClient, logg)
	userRepo := users.NewRepository(conn)
	businessSvc := business.NewService(business.NewRepository(conn), userRepo, dbClient, logg)

	webhookGuard := pkgredis.NewIdempotencyStore(redisClient, "webhook:razorpay", 7*24*time.Hour)
	paymentSvc := payments.NewService(payments.NewRepository(conn),
		razorpay.New(cfg.Razorpay), webhookGuard, cfg.Checkout, logg)

	orderRepo := orders.NewRepository(conn)
	orderSvc := orders.NewService(orders.Deps{
		Repo:     orderRepo,
		Users:    userRepo,
		Products: productRepo,
		Carts:    cartSvc,
		Units:    unitSvc,
		Pricer:   pricing.NewEngine(cfg.Checkout),
		Wallet:   walletSvc,
		Business: businessSvc,
		Payments: paymentSvc,
		Runner:   dbClient,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	paymentSvc.SetOrderFinalizer(orderSvc)
	paymentSvc.SetSubscriptionActivator(businessSvc)

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Tokens: tokens,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Idem:      pkgredis.NewIdempotencyStore(redisClient, "idem:api", 0),
		Registry:  registry,
		Products:  productSvc,
		Carts:     cartSvc,
		Orders:    orderSvc,
		OrderRepo: orderRepo,
		Wallet:    walletSvc,
		Payments:  paymentSvc,
		Business:  businessSvc,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
