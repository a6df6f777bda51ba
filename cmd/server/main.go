package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/api"
	"github.com/sahelshop/storefront/internal/catalog"
	"github.com/sahelshop/storefront/internal/commerce"
	"github.com/sahelshop/storefront/internal/config"
	"github.com/sahelshop/storefront/internal/repository"
	"github.com/sahelshop/storefront/internal/repository/postgres"
	"github.com/sahelshop/storefront/internal/repository/redisstore"
	"github.com/sahelshop/storefront/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// External collaborators
	catalogClient := catalog.NewClient(cfg.Catalog, logger)
	commerceClient := commerce.NewClient(cfg.Commerce, logger)

	// Repositories
	repos := &repository.Repositories{
		Carts:           redisstore.NewCartStore(redisClient, logger),
		Orders:          postgres.NewOrderRepository(db, logger),
		IdempotencyKeys: postgres.NewIdempotencyRepository(db, logger),
	}

	// Services
	carts := service.NewCartService(repos.Carts, logger)
	delivery := service.NewDeliveryService(commerceClient, cfg.Checkout.QuoteDebounce, cfg.Checkout.RequestTimeout, logger)
	stock := service.NewStockService(catalogClient, logger)
	checkout := service.NewCheckoutService(carts, delivery, stock, commerceClient, repos.Orders, logger)

	// Cart edits re-trigger the delivery fee quote.
	carts.SetOnChange(delivery.SubtotalChanged)

	// Abandoned sessions leave quote and submission records behind; sweep
	// them periodically.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			delivery.PruneStale(cfg.Checkout.SessionIdleTTL)
			checkout.PruneStale(cfg.Checkout.SessionIdleTTL)
		}
	}()

	router := api.NewRouter(cfg, api.Deps{
		Carts:    carts,
		Delivery: delivery,
		Checkout: checkout,
		Catalog:  catalogClient,
		Repos:    repos,
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
