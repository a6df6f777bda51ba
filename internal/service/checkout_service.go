package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/domain"
	"github.com/sahelshop/storefront/internal/pricing"
	"github.com/sahelshop/storefront/internal/repository"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// CheckoutService drives a submission through
// Validating -> CheckingStock -> Submitting to a terminal state. Stages run
// strictly in sequence, every failure is surfaced with a reason the shopper
// can act on, and a second trigger while one is in flight is rejected
// without issuing any calls.
type CheckoutService struct {
	carts    *CartService
	delivery *DeliveryService
	stock    *StockService
	commerce CommerceAPI
	orders   repository.OrderRepository
	logger   *zap.Logger

	mu     sync.Mutex
	states map[string]*submissionRecord
}

// submissionRecord is one session's submission outcome: its state, the order
// number kept for the confirmation view, and when it was last touched so
// abandoned sessions can be swept.
type submissionRecord struct {
	state       domain.SubmissionState
	orderNumber string
	touched     time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	carts *CartService,
	delivery *DeliveryService,
	stock *StockService,
	commerce CommerceAPI,
	orders repository.OrderRepository,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		delivery: delivery,
		stock:    stock,
		commerce: commerce,
		orders:   orders,
		logger:   logger,
		states:   make(map[string]*submissionRecord),
	}
}

// State returns the session's current submission state.
func (s *CheckoutService) State(sessionID string) domain.SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.states[sessionID]; ok {
		return rec.state
	}
	return domain.SubmissionIdle
}

// LastOrderNumber returns the order number retained for the confirmation
// view after a successful submission.
func (s *CheckoutService) LastOrderNumber(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.states[sessionID]; ok {
		return rec.orderNumber
	}
	return ""
}

// Submit runs one submission attempt for the session. Exactly one attempt
// may be in flight per session; the outcome is always terminal.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, form CheckoutForm) (*domain.Order, error) {
	s.mu.Lock()
	if rec, ok := s.states[sessionID]; ok && rec.state.InFlight() {
		s.mu.Unlock()
		return nil, &apperrors.ErrSubmissionInProgress{SessionID: sessionID}
	}
	s.states[sessionID] = &submissionRecord{state: domain.SubmissionValidating, touched: time.Now()}
	s.mu.Unlock()

	order, err := s.run(ctx, sessionID, form)
	if err != nil {
		s.setState(sessionID, domain.SubmissionFailed)
		s.logger.Warn("Checkout submission failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	s.mu.Lock()
	s.states[sessionID] = &submissionRecord{
		state:       domain.SubmissionSucceeded,
		orderNumber: order.OrderNumber,
		touched:     time.Now(),
	}
	s.mu.Unlock()

	s.logger.Info("Order submitted",
		zap.String("session_id", sessionID),
		zap.String("order_number", order.OrderNumber),
	)
	return order, nil
}

// Acknowledge returns a failed submission to Idle so the form can be
// retried. The cart and form state are not discarded.
func (s *CheckoutService) Acknowledge(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.states[sessionID]; ok && rec.state == domain.SubmissionFailed {
		rec.state = domain.SubmissionIdle
		rec.touched = time.Now()
	}
}

// PruneStale drops session records untouched for longer than maxAge.
// In-flight submissions are never pruned.
func (s *CheckoutService) PruneStale(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for sessionID, rec := range s.states {
		if rec.state.InFlight() {
			continue
		}
		if rec.touched.Before(cutoff) {
			delete(s.states, sessionID)
		}
	}
}

func (s *CheckoutService) run(ctx context.Context, sessionID string, form CheckoutForm) (*domain.Order, error) {
	// Validating
	customer, err := form.Validate()
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	zoneID, _, _, _ := s.delivery.Summary(sessionID)
	if zoneID == 0 {
		return nil, &apperrors.ErrValidation{Field: "delivery_zone_id", Message: "a delivery zone must be selected"}
	}
	fee, err := s.delivery.AuthoritativeFee(ctx, sessionID, cart.TotalPrice())
	if err != nil {
		return nil, err
	}

	draft, err := pricing.AssembleDraft(cart, customer, zoneID, fee, form.Remarks)
	if err != nil {
		return nil, err
	}

	// CheckingStock
	s.setState(sessionID, domain.SubmissionCheckingStock)
	if err := s.stock.VerifyAndReserve(ctx, draft.Items); err != nil {
		return nil, err
	}

	// Submitting
	s.setState(sessionID, domain.SubmissionSubmitting)
	result, err := s.commerce.CreateOrder(ctx, draft)
	if err != nil {
		var serverValidation *apperrors.ErrServerValidation
		if errors.As(err, &serverValidation) {
			return nil, err
		}
		return nil, &apperrors.ErrService{Stage: apperrors.StageOrderCreate, Err: err}
	}

	// The caller navigated away: the order exists server-side, but no
	// local state may be mutated on its behalf.
	if ctx.Err() != nil {
		return nil, &apperrors.ErrService{Stage: apperrors.StageOrderCreate, Err: ctx.Err()}
	}

	order := s.journal(ctx, sessionID, draft, result)

	// Succeeded: the cart store is the only shared state we touch, and
	// only through its own operations.
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear cart after submission",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	s.delivery.Reset(sessionID)

	return order, nil
}

// journal records the confirmed order locally. The commerce service already
// owns the order, so journal failures are logged, not fatal.
func (s *CheckoutService) journal(ctx context.Context, sessionID string, draft *domain.OrderDraft, result *domain.OrderResult) *domain.Order {
	status := result.Status
	if !status.IsValid() {
		status = domain.OrderStatusNew
	}

	order := &domain.Order{
		ID:              uuid.New(),
		SessionID:       sessionID,
		OrderNumber:     result.OrderNumber,
		CommerceOrderID: result.OrderID,
		Status:          status,
		CustomerName:    draft.Customer.Name,
		CustomerPhone:   draft.Customer.Phone,
		CustomerEmail:   draft.Customer.Email,
		Address:         draft.Customer.Address,
		DeliveryZoneID:  draft.DeliveryZoneID,
		Subtotal:        draft.Subtotal,
		DeliveryFee:     draft.DeliveryFee,
		// The server-recalculated total is authoritative.
		Total:   result.Total,
		Remarks: draft.Remarks,
	}

	items := make([]*domain.OrderItem, len(draft.Items))
	for i, item := range draft.Items {
		items[i] = &domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice,
		}
	}

	if err := s.orders.Create(ctx, order, items); err != nil {
		s.logger.Error("Failed to journal order",
			zap.String("order_number", result.OrderNumber),
			zap.Error(err),
		)
	}
	return order
}

// OrderStatus polls the commerce service for an order's current status, used
// by the confirmation view. The polled status is mirrored into the local
// journal so order lookups do not serve a stale one.
func (s *CheckoutService) OrderStatus(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
	status, err := s.commerce.GetOrderStatus(ctx, orderNumber)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			return "", err
		}
		return "", &apperrors.ErrService{Stage: apperrors.StageOrderStatus, Err: err}
	}
	if err := s.syncJournal(ctx, orderNumber, status); err != nil {
		return "", err
	}
	return status, nil
}

// syncJournal records the polled status locally. A status the journaled order
// cannot legally reach from its current one is a reporting inconsistency and
// is rejected rather than written.
func (s *CheckoutService) syncJournal(ctx context.Context, orderNumber string, status domain.OrderStatus) error {
	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			// Journaling is best-effort; an unjournaled order has nothing
			// to sync.
			return nil
		}
		s.logger.Warn("Failed to load journaled order",
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)
		return nil
	}

	if !status.IsValid() || order.Status == status {
		return nil
	}
	if !order.Status.CanTransitionTo(status) {
		return &apperrors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(status),
		}
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		s.logger.Error("Failed to update journaled order status",
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)
	}
	return nil
}

func (s *CheckoutService) setState(sessionID string, state domain.SubmissionState) {
	s.mu.Lock()
	if rec, ok := s.states[sessionID]; ok {
		rec.state = state
		rec.touched = time.Now()
	}
	s.mu.Unlock()
}
