package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/domain"
	"github.com/sahelshop/storefront/internal/repository"
	"github.com/sahelshop/storefront/internal/service"
)

// OrderResponse is the locally journaled order.
type OrderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"order_number"`
	Status         domain.OrderStatus  `json:"status"`
	CustomerName   string              `json:"customer_name"`
	CustomerPhone  string              `json:"customer_phone,omitempty"`
	CustomerEmail  string              `json:"customer_email,omitempty"`
	Address        string              `json:"address"`
	DeliveryZoneID int                 `json:"delivery_zone_id"`
	Subtotal       float64             `json:"subtotal"`
	DeliveryFee    float64             `json:"delivery_fee"`
	Total          float64             `json:"total"`
	Remarks        string              `json:"remarks,omitempty"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      string              `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"total_price"`
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := repos.Orders.GetByID(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		items, err := repos.Orders.GetItems(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		itemResponses := make([]OrderItemResponse, len(items))
		for i, item := range items {
			itemResponses[i] = OrderItemResponse{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				UnitPrice:   item.UnitPrice,
				Quantity:    item.Quantity,
				TotalPrice:  item.TotalPrice,
			}
		}

		c.JSON(http.StatusOK, OrderResponse{
			ID:             order.ID.String(),
			OrderNumber:    order.OrderNumber,
			Status:         order.Status,
			CustomerName:   order.CustomerName,
			CustomerPhone:  order.CustomerPhone,
			CustomerEmail:  order.CustomerEmail,
			Address:        order.Address,
			DeliveryZoneID: order.DeliveryZoneID,
			Subtotal:       order.Subtotal,
			DeliveryFee:    order.DeliveryFee,
			Total:          order.Total,
			Remarks:        order.Remarks,
			Items:          itemResponses,
			CreatedAt:      order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}

// HandleOrderStatus handles GET /v1/orders/:id/status, where :id is the
// commerce order number. The confirmation view polls this.
func HandleOrderStatus(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("id")
		status, err := checkout.OrderStatus(c.Request.Context(), orderNumber)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order_number": orderNumber,
			"status":       status,
		})
	}
}
