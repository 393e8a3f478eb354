package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yourwae/fastget-backend/api/routes"
	"github.com/yourwae/fastget-backend/internal/auth"
	"github.com/yourwae/fastget-backend/internal/cart"
	"github.com/yourwae/fastget-backend/internal/checkout"
	"github.com/yourwae/fastget-backend/internal/deliveries"
	"github.com/yourwae/fastget-backend/internal/health"
	"github.com/yourwae/fastget-backend/internal/orders"
	"github.com/yourwae/fastget-backend/internal/payments"
	"github.com/yourwae/fastget-backend/internal/preferences"
	"github.com/yourwae/fastget-backend/internal/products"
	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/internal/towns"
	"github.com/yourwae/fastget-backend/internal/users"
	"github.com/yourwae/fastget-backend/pkg/auth/session"
	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/metrics"
	"github.com/yourwae/fastget-backend/pkg/migrate"
	"github.com/yourwae/fastget-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	townRepo := towns.NewRepository(gdb)
	storeRepo := stores.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	paymentRepo := payments.NewRepository(gdb)
	deliveryRepo := deliveries.NewRepository(gdb)

	townService, err := towns.NewService(townRepo, logg)
	requireResource(ctx, logg, "towns service", err)
	if cfg.FeatureFlags.SeedTowns {
		seeded, err := townService.Seed(ctx)
		requireResource(ctx, logg, "town seed", err)
		logg.Info(logg.WithField(ctx, "seeded", seeded), "default towns ensured")
	}

	storeService, err := stores.NewService(storeRepo, townRepo)
	requireResource(ctx, logg, "stores service", err)

	productService, err := products.NewService(productRepo, storeRepo)
	requireResource(ctx, logg, "products service", err)

	cartService, err := cart.NewService(cartRepo, productRepo, logg)
	requireResource(ctx, logg, "cart service", err)

	paymentService, err := payments.NewService(paymentRepo, orderRepo, storeRepo, userRepo, cfg.Checkout.Currency, commerceMetrics, logg)
	requireResource(ctx, logg, "payments service", err)

	checkoutService, err := checkout.NewService(checkout.Deps{
		Tx:         dbClient,
		Cart:       cartRepo,
		Stores:     storeRepo,
		Towns:      townRepo,
		Payments:   paymentService,
		Calculator: fees.NewCalculator(cfg.Delivery),
		Cache:      redisClient,
		Delivery:   cfg.Delivery,
		Checkout:   cfg.Checkout,
		Metrics:    commerceMetrics,
		Logger:     logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	fulfillment, err := orders.NewFulfillment(storeRepo, deliveries.NewCreator(), commerceMetrics, logg)
	requireResource(ctx, logg, "fulfillment", err)

	orderService, err := orders.NewService(orderRepo, dbClient, storeRepo, deliveryRepo, productRepo, fulfillment)
	requireResource(ctx, logg, "orders service", err)

	deliveryService, err := deliveries.NewService(deliveries.Deps{
		Repo:        deliveryRepo,
		Tx:          dbClient,
		Orders:      orderRepo,
		Stores:      storeRepo,
		Users:       userRepo,
		Fulfillment: fulfillment,
		Metrics:     commerceMetrics,
		Logger:      logg,
	})
	requireResource(ctx, logg, "deliveries service", err)

	preferenceService, err := preferences.NewService(redisClient, townRepo, cfg.Checkout.PreferenceTTL, logg)
	requireResource(ctx, logg, "preferences service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		StoreRepo:      storeRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	requireResource(ctx, logg, "register service", err)

	userService, err := users.NewService(userRepo, logg)
	requireResource(ctx, logg, "user service", err)

	checker := health.NewChecker(2 * time.Second)
	checker.Register("database", dbClient)
	checker.Register("redis", redisClient)

	router := routes.NewRouter(cfg, logg, routes.Infra{
		Sessions:    sessionManager,
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Health:      checker,
		HTTPMetrics: httpMetrics,
		Gatherer:    registry,
	}, routes.Services{
		Auth:        authService,
		Register:    registerService,
		Users:       userService,
		Towns:       townService,
		Stores:      storeService,
		Products:    productService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
		Payments:    paymentService,
		Deliveries:  deliveryService,
		Preferences: preferenceService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"fee_model": cfg.Delivery.FeeModel,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", name), "failed to initialize resource", err)
	os.Exit(1)
}
