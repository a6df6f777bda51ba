package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// memCartStore is an in-memory CartStore with failure toggles.
type memCartStore struct {
	mu      sync.Mutex
	carts   map[string]*domain.Cart
	getErr  error
	saveErr error
	saves   int
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string]*domain.Cart)}
}

func (m *memCartStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "cart", ID: sessionID}
	}
	copied := *cart
	copied.Items = append([]domain.CartLine(nil), cart.Items...)
	return &copied, nil
}

func (m *memCartStore) Save(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *cart
	copied.Items = append([]domain.CartLine(nil), cart.Items...)
	m.carts[cart.SessionID] = &copied
	m.saves++
	return nil
}

func (m *memCartStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type stockUpdate struct {
	productID int
	quantity  int
	sellable  bool
}

// mockCatalog serves products from a map. guardStock overrides the stock a
// GetProduct re-read reports, to simulate a concurrent sale between the
// batched check and the decrement.
type mockCatalog struct {
	mu         sync.Mutex
	products   map[int]domain.Product
	guardStock map[int]int
	listErr    error
	updateErr  error
	updates    []stockUpdate
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[int]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "product", ID: strconv.Itoa(id)}
	}
	if stock, ok := m.guardStock[id]; ok {
		product.StockQuantity = stock
	}
	return &product, nil
}

func (m *mockCatalog) ListProductsByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make(map[int]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			out[id] = product
		}
	}
	return out, nil
}

func (m *mockCatalog) UpdateProductStock(ctx context.Context, id, quantity int, sellable bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, stockUpdate{productID: id, quantity: quantity, sellable: sellable})
	if product, ok := m.products[id]; ok {
		product.StockQuantity = quantity
		product.Sellable = sellable
		m.products[id] = product
	}
	return nil
}

func (m *mockCatalog) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

// mockCommerce lets each test swap in behavior per call while counting
// invocations.
type mockCommerce struct {
	mu          sync.Mutex
	zones       []domain.DeliveryZone
	zonesErr    error
	quoteFn     func(ctx context.Context, zoneID int, subtotal float64) (*domain.FeeQuote, error)
	quoteCalls  int
	createFn    func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error)
	createCalls int
	statusFn    func(ctx context.Context, orderNumber string) (domain.OrderStatus, error)
}

func (m *mockCommerce) ListDeliveryZones(ctx context.Context) ([]domain.DeliveryZone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zonesErr != nil {
		return nil, m.zonesErr
	}
	return m.zones, nil
}

func (m *mockCommerce) QuoteDeliveryFee(ctx context.Context, zoneID int, subtotal float64) (*domain.FeeQuote, error) {
	m.mu.Lock()
	m.quoteCalls++
	fn := m.quoteFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, zoneID, subtotal)
	}
	return &domain.FeeQuote{Fee: 500, ZoneName: fmt.Sprintf("zone-%d", zoneID)}, nil
}

func (m *mockCommerce) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
	m.mu.Lock()
	m.createCalls++
	fn := m.createFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, draft)
	}
	return &domain.OrderResult{
		OrderNumber: "ORD-1001",
		OrderID:     55,
		Status:      domain.OrderStatusNew,
		Total:       draft.Total,
	}, nil
}

func (m *mockCommerce) GetOrderStatus(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
	m.mu.Lock()
	fn := m.statusFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, orderNumber)
	}
	return domain.OrderStatusNew, nil
}

func (m *mockCommerce) quoteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quoteCalls
}

func (m *mockCommerce) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

type journaled struct {
	order *domain.Order
	items []*domain.OrderItem
}

// mockOrderRepo records journal writes.
type mockOrderRepo struct {
	mu        sync.Mutex
	created   []journaled
	createErr error
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, journaled{order: order, items: items})
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.created {
		if j.order.ID == id {
			return j.order, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (m *mockOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.created {
		if j.order.OrderNumber == orderNumber {
			return j.order, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "order", ID: orderNumber}
}

func (m *mockOrderRepo) GetItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.created {
		if j.order.ID == orderID {
			return j.items, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "order", ID: orderID.String()}
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.created {
		if j.order.ID == id {
			j.order.Status = status
			return nil
		}
	}
	return &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (m *mockOrderRepo) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}
