package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sahelshop/storefront/internal/domain"
)

// CartStore persists cart snapshots keyed by shopper session. A snapshot
// must round-trip losslessly through add/remove/update cycles.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// OrderRepository journals submitted orders locally.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

// IdempotencyRepository stores checkout idempotency keys.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, record *domain.IdempotencyKey) error
}

// Repositories bundles every store the handlers and services need.
type Repositories struct {
	Carts           CartStore
	Orders          OrderRepository
	IdempotencyKeys IdempotencyRepository
}
