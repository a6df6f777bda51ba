package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/api/middleware"
	"github.com/sahelshop/storefront/internal/domain"
	"github.com/sahelshop/storefront/internal/repository"
	"github.com/sahelshop/storefront/internal/service"
)

// CheckoutResponse confirms a submission to the shopper.
type CheckoutResponse struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      domain.OrderStatus `json:"status"`
	Total       float64            `json:"total"`
}

// HandleCheckout handles POST /v1/checkout
func HandleCheckout(checkout *service.CheckoutService, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.SessionID(c)

		// Replayed request: return the order created the first time.
		idempotencyKey, requestHash, existingOrderID, isExisting := middleware.IdempotencyInfo(c)
		if isExisting {
			order, err := repos.Orders.GetByID(c.Request.Context(), existingOrderID)
			if err != nil {
				logger.Error("Failed to load order for idempotent replay", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.JSON(http.StatusOK, CheckoutResponse{
				OrderID:     order.ID.String(),
				OrderNumber: order.OrderNumber,
				Status:      order.Status,
				Total:       order.Total,
			})
			return
		}

		var form service.CheckoutForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := checkout.Submit(c.Request.Context(), sessionID, form)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		if idempotencyKey != "" {
			record := &domain.IdempotencyKey{
				Key:         idempotencyKey,
				SessionID:   sessionID,
				OrderID:     order.ID,
				RequestHash: requestHash,
			}
			if err := repos.IdempotencyKeys.Create(c.Request.Context(), record); err != nil {
				logger.Warn("Failed to store idempotency key", zap.Error(err))
				// Don't fail the request if idempotency storage fails
			}
		}

		c.JSON(http.StatusOK, CheckoutResponse{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			Total:       order.Total,
		})
	}
}

// HandleSubmissionState handles GET /v1/checkout/state
func HandleSubmissionState(checkout *service.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.SessionID(c)
		state := checkout.State(sessionID)
		// terminal tells the frontend to stop polling.
		c.JSON(http.StatusOK, gin.H{
			"state":             state,
			"terminal":          state.IsTerminal(),
			"last_order_number": checkout.LastOrderNumber(sessionID),
		})
	}
}

// HandleAcknowledgeFailure handles POST /v1/checkout/acknowledge, returning
// a failed submission to an editable Idle state.
func HandleAcknowledgeFailure(checkout *service.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkout.Acknowledge(middleware.SessionID(c))
		c.Status(http.StatusNoContent)
	}
}
