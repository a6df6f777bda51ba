package service

import (
	"context"

	"github.com/sahelshop/storefront/internal/domain"
)

// CatalogAPI is the slice of the catalog service the checkout flow needs.
type CatalogAPI interface {
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	ListProductsByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error)
	UpdateProductStock(ctx context.Context, id, quantity int, sellable bool) error
}

// CommerceAPI is the slice of the commerce service the checkout flow needs.
type CommerceAPI interface {
	ListDeliveryZones(ctx context.Context) ([]domain.DeliveryZone, error)
	QuoteDeliveryFee(ctx context.Context, zoneID int, subtotal float64) (*domain.FeeQuote, error)
	CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error)
	GetOrderStatus(ctx context.Context, orderNumber string) (domain.OrderStatus, error)
}
