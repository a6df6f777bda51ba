package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/api/middleware"
	"github.com/sahelshop/storefront/internal/domain"
	"github.com/sahelshop/storefront/internal/pricing"
	"github.com/sahelshop/storefront/internal/service"
)

// VariantPayload identifies a product sub-option in a request.
type VariantPayload struct {
	Type            string  `json:"type" binding:"required"`
	Value           string  `json:"value" binding:"required"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

func (v *VariantPayload) toDomain() *domain.Variant {
	if v == nil {
		return nil
	}
	return &domain.Variant{
		Type:            v.Type,
		Value:           v.Value,
		PriceAdjustment: v.PriceAdjustment,
	}
}

// AddItemRequest is the add-to-cart payload.
type AddItemRequest struct {
	ProductID   int             `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	UnitPrice   float64         `json:"unit_price" binding:"min=0"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	Variant     *VariantPayload `json:"variant,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// UpdateQuantityRequest sets a line's quantity absolutely; below one removes
// the line.
type UpdateQuantityRequest struct {
	ProductID int             `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity"`
	Variant   *VariantPayload `json:"variant,omitempty"`
}

// RemoveItemRequest identifies the line to drop.
type RemoveItemRequest struct {
	ProductID int             `json:"product_id" binding:"required"`
	Variant   *VariantPayload `json:"variant,omitempty"`
}

// CartResponse is the cart plus its derived preview totals.
type CartResponse struct {
	Items      []domain.CartLine `json:"items"`
	TotalItems int               `json:"total_items"`
	Subtotal   float64           `json:"subtotal"`
}

func cartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{
		Items:      cart.Items,
		TotalItems: cart.TotalItems(),
		Subtotal:   cart.TotalPrice(),
	}
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(carts *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := carts.Get(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleAddItem handles POST /v1/cart/items
func HandleAddItem(carts *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := carts.AddItem(c.Request.Context(), middleware.SessionID(c), domain.CartLine{
			ProductID:   req.ProductID,
			ProductName: req.ProductName,
			UnitPrice:   req.UnitPrice,
			Quantity:    req.Quantity,
			Variant:     req.Variant.toDomain(),
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleUpdateQuantity handles PATCH /v1/cart/items
func HandleUpdateQuantity(carts *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := carts.UpdateQuantity(c.Request.Context(), middleware.SessionID(c), req.ProductID, req.Quantity, req.Variant.toDomain())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleRemoveItem handles DELETE /v1/cart/items
func HandleRemoveItem(carts *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RemoveItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := carts.RemoveItem(c.Request.Context(), middleware.SessionID(c), req.ProductID, req.Variant.toDomain())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(carts *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Clear(c.Request.Context(), middleware.SessionID(c)); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// SummaryResponse is the checkout sidebar: preview totals, zone selection
// and the latest fee quote.
type SummaryResponse struct {
	pricing.Totals
	TotalItems   int    `json:"total_items"`
	ZoneID       int    `json:"zone_id,omitempty"`
	ZoneName     string `json:"zone_name,omitempty"`
	EtaMin       int    `json:"delivery_time_min,omitempty"`
	EtaMax       int    `json:"delivery_time_max,omitempty"`
	QuotePending bool   `json:"quote_pending"`
	QuoteError   string `json:"quote_error,omitempty"`
}

// HandleCartSummary handles GET /v1/cart/summary
func HandleCartSummary(carts *service.CartService, delivery *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.SessionID(c)
		cart, err := carts.Get(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		zoneID, quote, pending, quoteErr := delivery.Summary(sessionID)

		// A failed quote degrades the fee to zero with a notice; it does
		// not block the summary.
		fee := 0.0
		resp := SummaryResponse{
			TotalItems:   cart.TotalItems(),
			ZoneID:       zoneID,
			QuotePending: pending,
		}
		if quote != nil {
			fee = quote.Fee
			resp.ZoneName = quote.ZoneName
			resp.EtaMin = quote.EtaMin
			resp.EtaMax = quote.EtaMax
		}
		if quoteErr != nil {
			resp.QuoteError = "could not calculate the delivery fee, please retry"
		}
		resp.Totals = pricing.PreviewTotals(cart, fee)

		c.JSON(http.StatusOK, resp)
	}
}
