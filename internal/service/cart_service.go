package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/domain"
	"github.com/sahelshop/storefront/internal/repository"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// CartService owns the shopper's cart state. Every mutation goes through a
// defined operation and writes the snapshot back before returning; nothing
// else writes to the store except Clear on a successful order.
type CartService struct {
	carts  repository.CartStore
	logger *zap.Logger

	mu       sync.Mutex
	onChange func(sessionID string, subtotal float64)
}

// NewCartService creates a new cart service
func NewCartService(carts repository.CartStore, logger *zap.Logger) *CartService {
	return &CartService{
		carts:  carts,
		logger: logger,
	}
}

// SetOnChange registers a callback fired after every successful mutation
// with the new subtotal. Used to re-trigger delivery fee quoting.
func (s *CartService) SetOnChange(fn func(sessionID string, subtotal float64)) {
	s.onChange = fn
}

// Get hydrates the session's cart snapshot. A missing snapshot is an empty
// cart; a failed load is an error, never a stale or default cart.
func (s *CartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			return domain.NewCart(sessionID), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem merges or appends the line and persists the snapshot.
func (s *CartService) AddItem(ctx context.Context, sessionID string, line domain.CartLine) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.AddItem(line)
	})
}

// UpdateQuantity sets the line's quantity; below one removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID, quantity int, variant *domain.Variant) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.UpdateQuantity(productID, quantity, variant)
	})
}

// RemoveItem removes the matching line.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int, variant *domain.Variant) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.RemoveItem(productID, variant)
	})
}

// Clear empties the cart, used after successful submission or explicitly by
// the shopper.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.notify(sessionID, 0)
	return nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart)) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		// Hydration failed: mutating would overwrite the stored snapshot.
		return nil, err
	}

	fn(cart)

	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to persist cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	s.notify(sessionID, cart.TotalPrice())
	return cart, nil
}

func (s *CartService) notify(sessionID string, subtotal float64) {
	if s.onChange != nil {
		s.onChange(sessionID, subtotal)
	}
}
