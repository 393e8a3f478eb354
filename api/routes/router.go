package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourwae/fastget-backend/api/controllers"
	"github.com/yourwae/fastget-backend/api/middleware"
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
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/metrics"
	pkgredis "github.com/yourwae/fastget-backend/pkg/redis"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services is everything the HTTP surface dispatches to.
type Services struct {
	Auth        auth.Service
	Register    auth.RegisterService
	Users       users.Service
	Towns       towns.Service
	Stores      stores.Service
	Products    products.Service
	Cart        cart.Service
	Checkout    checkout.Service
	Orders      orders.Service
	Payments    payments.Service
	Deliveries  deliveries.Service
	Preferences preferences.Service
}

// Infra carries the shared clients the middleware stack needs.
type Infra struct {
	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	RateLimiter rateLimiter
	Health      *health.Checker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if infra.HTTPMetrics != nil {
		r.Use(infra.HTTPMetrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, infra.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, infra.Sessions, logg)
	idempotent := middleware.Idempotency(infra.Idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, infra.Health, logg))
	})

	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Catalog reads are public; a valid token only widens what owners see.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)

			r.Get("/towns", controllers.ListTowns(svc.Towns, logg))
			r.Get("/towns/{townId}", controllers.GetTown(svc.Towns, logg))

			r.Get("/stores", controllers.ListStores(svc.Stores, logg))
			r.Get("/stores/town/{townId}", controllers.StoresByTown(svc.Stores, logg))
			r.Get("/stores/{storeId}", controllers.GetStore(svc.Stores, logg))
			r.Get("/stores/{storeId}/products", controllers.StoreProducts(svc.Products, logg))

			r.Get("/products/search", controllers.SearchProducts(svc.Products, logg))
			r.Get("/products/{productId}", controllers.GetProduct(svc.Products, logg))

			r.Get("/delivery/fee", controllers.DeliveryFee(svc.Checkout, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(idempotent)

			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Post("/towns", controllers.CreateTown(svc.Towns, logg))
			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Put("/towns/{townId}", controllers.UpdateTown(svc.Towns, logg))
			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Delete("/towns/{townId}", controllers.DeleteTown(svc.Towns, logg))

			r.With(middleware.RequireRole(logg, enums.RoleStore)).Post("/stores", controllers.CreateStore(svc.Stores, logg))
			r.Put("/stores/{storeId}", controllers.UpdateStore(svc.Stores, logg))
			r.Delete("/stores/{storeId}", controllers.DeleteStore(svc.Stores, logg))
		})

		r.Route("/v1/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, infra.RateLimiter, logg)).Post("/signup", controllers.AuthSignup(svc.Register, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, infra.RateLimiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, cfg.JWT, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(svc.Auth, logg))
			r.With(requireAuth).Patch("/me", controllers.AuthUpdateProfile(svc.Users, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(idempotent)

			r.Route("/v1/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svc.Cart, logg))
				r.Delete("/", controllers.CartClear(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
			})

			r.Post("/v1/checkout/quote", controllers.CheckoutQuote(svc.Checkout, logg))
			r.Post("/v1/checkout", controllers.CheckoutPlace(svc.Checkout, logg))

			r.Route("/v1/orders", func(r chi.Router) {
				r.Get("/", controllers.CustomerOrders(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(svc.Orders, logg))
				r.Post("/{orderId}/rating", controllers.RateOrder(svc.Orders, logg))
				r.Get("/{orderId}/delivery", controllers.OrderDelivery(svc.Deliveries, logg))
				r.Post("/{orderId}/delivery/rating", controllers.RateDelivery(svc.Deliveries, logg))
				r.Get("/{orderId}/payments", controllers.OrderPayments(svc.Payments, logg))
				r.Post("/{orderId}/payments", controllers.CreateOrderPayment(svc.Payments, logg))
			})

			r.Route("/v1/me/town", func(r chi.Router) {
				r.Get("/", controllers.SelectedTown(svc.Preferences, logg))
				r.Put("/", controllers.SelectTown(svc.Preferences, logg))
				r.Delete("/", controllers.ClearTown(svc.Preferences, logg))
			})

			r.Route("/v1/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleStore))
				r.Get("/store", controllers.SellerStore(svc.Stores, logg))
				r.Get("/products", controllers.SellerProducts(svc.Products, logg))
				r.Post("/products", controllers.SellerCreateProduct(svc.Products, logg))
				r.Patch("/products/{productId}", controllers.SellerUpdateProduct(svc.Products, logg))
				r.Delete("/products/{productId}", controllers.SellerDeleteProduct(svc.Products, logg))
				r.Get("/orders", controllers.SellerOrders(svc.Orders, logg))
				r.Post("/orders/{orderId}/status", controllers.SellerOrderStatus(svc.Orders, logg))
				r.Get("/stats", controllers.SellerStats(svc.Orders, logg))
			})

			r.Route("/v1/deliveries", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleDelivery))
				r.Get("/", controllers.PartnerDeliveries(svc.Deliveries, logg))
				r.Post("/{deliveryId}/status", controllers.PartnerDeliveryStatus(svc.Deliveries, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Use(idempotent)
			r.Post("/deliveries/{deliveryId}/assign", controllers.AdminAssignDelivery(svc.Deliveries, logg))
			r.Post("/payments/{paymentId}/refund", controllers.AdminRefundPayment(svc.Payments, logg))
		})
	})

	return r
}
