package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/harborline/stockroom-backend/api"
	"github.com/harborline/stockroom-backend/api/routes"
	"github.com/harborline/stockroom-backend/internal/cart"
	"github.com/harborline/stockroom-backend/internal/catalog"
	"github.com/harborline/stockroom-backend/internal/orders"
	"github.com/harborline/stockroom-backend/pkg/config"
	"github.com/harborline/stockroom-backend/pkg/db"
	"github.com/harborline/stockroom-backend/pkg/logger"
	"github.com/harborline/stockroom-backend/pkg/metrics"
	"github.com/harborline/stockroom-backend/pkg/migrate"
	"github.com/harborline/stockroom-backend/pkg/outbox"
	"github.com/harborline/stockroom-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:     cartRepo,
		Tx:       dbClient,
		Catalog:  catalogSvc,
		Orders:   ordersRepo,
		Shipping: cfg.Shipping,
		Now:      time.Now,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersSvc, err := orders.NewService(ordersRepo, cartRepo, cartSvc, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	cfg.App.Port = port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     ":" + port,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		HTTPMetrics: httpMetrics,
		Catalog:     catalogSvc,
		Cart:        cartSvc,
		Orders:      ordersSvc,
	})
	server := api.NewServer(cfg, router)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
