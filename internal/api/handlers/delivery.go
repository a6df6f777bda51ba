package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/api/middleware"
	"github.com/sahelshop/storefront/internal/service"
)

// SelectZoneRequest records the shopper's delivery zone choice.
type SelectZoneRequest struct {
	ZoneID int `json:"zone_id" binding:"required"`
}

// QuoteFeeRequest asks for a direct fee quote.
type QuoteFeeRequest struct {
	ZoneID   int     `json:"zone_id" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"min=0"`
}

// HandleListZones handles GET /v1/delivery-zones
func HandleListZones(delivery *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		zones, err := delivery.ListZones(c.Request.Context())
		if err != nil {
			// An explicit error state: an empty list would be ambiguous
			// with "no zones configured".
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": zones})
	}
}

// HandleSelectZone handles PUT /v1/cart/zone. It records the choice and
// starts the debounced fee recompute.
func HandleSelectZone(carts *service.CartService, delivery *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SelectZoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		sessionID := middleware.SessionID(c)
		cart, err := carts.Get(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		delivery.SelectZone(sessionID, req.ZoneID, cart.TotalPrice())
		c.Status(http.StatusAccepted)
	}
}

// HandleQuoteFee handles POST /v1/delivery-fee
func HandleQuoteFee(delivery *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuoteFeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		quote, err := delivery.Quote(c.Request.Context(), req.ZoneID, req.Subtotal)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": quote})
	}
}
