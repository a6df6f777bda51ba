package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/api/handlers"
	"github.com/sahelshop/storefront/internal/api/middleware"
	"github.com/sahelshop/storefront/internal/config"
	"github.com/sahelshop/storefront/internal/repository"
	"github.com/sahelshop/storefront/internal/service"
)

// Deps bundles everything the router hands to handlers.
type Deps struct {
	Carts    *service.CartService
	Delivery *service.DeliveryService
	Checkout *service.CheckoutService
	Catalog  service.CatalogAPI
	Repos    *repository.Repositories
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.CartSession())
	{
		v1.GET("/products", handlers.HandleListProducts(deps.Catalog, logger))
		v1.GET("/products/:id", handlers.HandleGetProduct(deps.Catalog, logger))

		v1.GET("/cart", handlers.HandleGetCart(deps.Carts, logger))
		v1.POST("/cart/items", handlers.HandleAddItem(deps.Carts, logger))
		v1.PATCH("/cart/items", handlers.HandleUpdateQuantity(deps.Carts, logger))
		v1.DELETE("/cart/items", handlers.HandleRemoveItem(deps.Carts, logger))
		v1.DELETE("/cart", handlers.HandleClearCart(deps.Carts, logger))
		v1.PUT("/cart/zone", handlers.HandleSelectZone(deps.Carts, deps.Delivery, logger))
		v1.GET("/cart/summary", handlers.HandleCartSummary(deps.Carts, deps.Delivery, logger))

		v1.GET("/delivery-zones", handlers.HandleListZones(deps.Delivery, logger))
		v1.POST("/delivery-fee", handlers.HandleQuoteFee(deps.Delivery, logger))

		checkoutRoutes := v1.Group("")
		checkoutRoutes.Use(middleware.Idempotency(deps.Repos.IdempotencyKeys, logger))
		{
			checkoutRoutes.POST("/checkout", handlers.HandleCheckout(deps.Checkout, deps.Repos, logger))
		}
		v1.GET("/checkout/state", handlers.HandleSubmissionState(deps.Checkout))
		v1.POST("/checkout/acknowledge", handlers.HandleAcknowledgeFailure(deps.Checkout))

		v1.GET("/orders/:id", handlers.HandleGetOrder(deps.Repos, logger))
		v1.GET("/orders/:id/status", handlers.HandleOrderStatus(deps.Checkout, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
