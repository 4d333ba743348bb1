package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline/stockroom-backend/api/controllers"
	"github.com/harborline/stockroom-backend/api/middleware"
	"github.com/harborline/stockroom-backend/internal/cart"
	"github.com/harborline/stockroom-backend/internal/catalog"
	"github.com/harborline/stockroom-backend/internal/orders"
	"github.com/harborline/stockroom-backend/pkg/config"
	"github.com/harborline/stockroom-backend/pkg/enums"
	"github.com/harborline/stockroom-backend/pkg/logger"
	"github.com/harborline/stockroom-backend/pkg/metrics"
	"github.com/harborline/stockroom-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          pinger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Catalog     catalog.Service
	Cart        cart.Service
	Orders      orders.Service
}

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	writePolicy := middleware.NewRateLimitPolicy(
		"writes",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteIPLimit,
		cfg.RateLimit.WriteAccountLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/skus", controllers.SKUList(deps.Catalog, logg))
			r.Get("/skus/{sku}", controllers.SKUDetail(deps.Catalog, logg))
			r.Get("/collections", controllers.CollectionList(deps.Catalog, logg))
		})

		// Cart sessions and orders bind to the caller's retail account,
		// which only buyer tokens carry.
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.With(middleware.RateLimit(writePolicy, deps.Redis, logg)).
				Put("/", controllers.CartUpsert(deps.Cart, logg))
			r.Post("/edit/{orderId}", controllers.CartStartEdit(deps.Cart, logg))
			r.Get("/plan", controllers.ShipmentPlan(deps.Cart, logg))
			r.Route("/shipments", func(r chi.Router) {
				r.Post("/{shipmentId}/dates", controllers.ShipmentSetDates(deps.Cart, logg))
				r.Delete("/{shipmentId}/dates", controllers.ShipmentClearDates(deps.Cart, logg))
				r.Post("/combine", controllers.ShipmentsCombine(deps.Cart, logg))
				r.Post("/{combinedId}/split", controllers.ShipmentSplit(deps.Cart, logg))
			})
			r.Post("/override", controllers.OverrideConfirm(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(writePolicy, deps.Redis, logg))
				r.Post("/", controllers.OrderSubmit(deps.Orders, logg))
				r.Put("/{orderId}", controllers.OrderSave(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
			})
		})
	})

	return r
}
