package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

type checkoutFixture struct {
	store    *memCartStore
	carts    *CartService
	delivery *DeliveryService
	catalog  *mockCatalog
	commerce *mockCommerce
	orders   *mockOrderRepo
	checkout *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	logger := zap.NewNop()
	f := &checkoutFixture{
		store: newMemCartStore(),
		catalog: newMockCatalog(
			domain.Product{ID: 7, Name: "Table", Price: 2500, StockQuantity: 10, TrackStock: true, Sellable: true},
		),
		commerce: &mockCommerce{},
		orders:   &mockOrderRepo{},
	}
	f.carts = NewCartService(f.store, logger)
	f.delivery = NewDeliveryService(f.commerce, time.Millisecond, time.Second, logger)
	f.carts.SetOnChange(f.delivery.SubtotalChanged)
	f.checkout = NewCheckoutService(
		f.carts,
		f.delivery,
		NewStockService(f.catalog, logger),
		f.commerce,
		f.orders,
		logger,
	)
	return f
}

// seed puts one Table (2500 x 1) in the cart and selects zone 3.
func (f *checkoutFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, "s1", domain.CartLine{ProductID: 7, ProductName: "Table", UnitPrice: 2500, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	f.delivery.SelectZone("s1", 3, cart.TotalPrice())
}

func validForm() CheckoutForm {
	return CheckoutForm{
		CustomerName: "Awa Ouedraogo",
		Phone:        "+226 70 00 00 00",
		Address:      "Secteur 15, Ouagadougou",
	}
}

func TestCheckoutSubmitRoundTrip(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	ctx := context.Background()

	order, err := f.checkout.Submit(ctx, "s1", validForm())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1001", order.OrderNumber)
	assert.Equal(t, 2500.0, order.Subtotal)
	assert.Equal(t, 500.0, order.DeliveryFee)
	assert.Equal(t, 3000.0, order.Total)
	assert.Equal(t, domain.OrderStatusNew, order.Status)

	assert.Equal(t, domain.SubmissionSucceeded, f.checkout.State("s1"))
	assert.Equal(t, "ORD-1001", f.checkout.LastOrderNumber("s1"))

	// Stock decremented and the cart emptied.
	product, err := f.catalog.GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 9, product.StockQuantity)

	cart, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	require.Equal(t, 1, f.orders.createdCount())
	assert.Equal(t, 1, f.commerce.createCount())
}

func TestCheckoutRejectsConcurrentSubmit(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	ctx := context.Background()

	proceed := make(chan struct{})
	f.commerce.createFn = func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
		<-proceed
		return &domain.OrderResult{OrderNumber: "ORD-1001", OrderID: 55, Status: domain.OrderStatusNew, Total: draft.Total}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.checkout.Submit(ctx, "s1", validForm())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.checkout.State("s1") != domain.SubmissionSubmitting {
		if time.Now().After(deadline) {
			t.Fatal("first submission never reached Submitting")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := f.checkout.Submit(ctx, "s1", validForm())
	var inProgress *apperrors.ErrSubmissionInProgress
	require.ErrorAs(t, err, &inProgress)

	close(proceed)
	require.NoError(t, <-done)

	assert.Equal(t, 1, f.commerce.createCount())
	assert.Equal(t, domain.SubmissionSucceeded, f.checkout.State("s1"))
}

func TestCheckoutValidationFailureMakesNoCalls(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)

	form := validForm()
	form.Phone = "abc"
	_, err := f.checkout.Submit(context.Background(), "s1", form)

	var validation *apperrors.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "phone", validation.Field)

	assert.Equal(t, domain.SubmissionFailed, f.checkout.State("s1"))
	assert.Zero(t, f.commerce.createCount())
	assert.Zero(t, f.catalog.updateCount())

	// The cart survives a failed attempt.
	cart, err := f.carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	f.checkout.Acknowledge("s1")
	assert.Equal(t, domain.SubmissionIdle, f.checkout.State("s1"))
}

func TestCheckoutRequiresZoneSelection(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.carts.AddItem(context.Background(), "s1", domain.CartLine{ProductID: 7, ProductName: "Table", UnitPrice: 2500, Quantity: 1})
	require.NoError(t, err)

	_, err = f.checkout.Submit(context.Background(), "s1", validForm())

	var validation *apperrors.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "delivery_zone_id", validation.Field)
}

func TestCheckoutStockShortageFailsBeforeSubmit(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	f.catalog.products[7] = domain.Product{ID: 7, Name: "Table", StockQuantity: 0, TrackStock: true, Sellable: true}

	_, err := f.checkout.Submit(context.Background(), "s1", validForm())

	var shortage *apperrors.ErrStockShortage
	require.ErrorAs(t, err, &shortage)
	assert.Zero(t, f.commerce.createCount())
	assert.Equal(t, domain.SubmissionFailed, f.checkout.State("s1"))
}

func TestCheckoutServerValidationPassesThrough(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	f.commerce.createFn = func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
		return nil, &apperrors.ErrServerValidation{
			Message: "The given data was invalid.",
			Fields:  map[string][]string{"customer.phone": {"invalid format"}},
		}
	}

	_, err := f.checkout.Submit(context.Background(), "s1", validForm())

	var serverValidation *apperrors.ErrServerValidation
	require.ErrorAs(t, err, &serverValidation)
	assert.Contains(t, serverValidation.Fields, "customer.phone")

	var svcErr *apperrors.ErrService
	assert.False(t, errors.As(err, &svcErr))
}

func TestCheckoutCreateFailureWrapsStage(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	f.commerce.createFn = func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
		return nil, errors.New("503 service unavailable")
	}

	_, err := f.checkout.Submit(context.Background(), "s1", validForm())

	var svcErr *apperrors.ErrService
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, apperrors.StageOrderCreate, svcErr.Stage)
	assert.Zero(t, f.orders.createdCount())
}

func TestCheckoutServerTotalIsAuthoritative(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	f.commerce.createFn = func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
		return &domain.OrderResult{OrderNumber: "ORD-1002", OrderID: 56, Status: domain.OrderStatusNew, Total: 2999}, nil
	}

	order, err := f.checkout.Submit(context.Background(), "s1", validForm())
	require.NoError(t, err)
	assert.Equal(t, 2999.0, order.Total)
}

func TestCheckoutUnknownServerStatusJournaledAsNew(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	f.commerce.createFn = func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
		return &domain.OrderResult{OrderNumber: "ORD-1003", OrderID: 57, Status: "weird", Total: draft.Total}, nil
	}

	order, err := f.checkout.Submit(context.Background(), "s1", validForm())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusNew, order.Status)
}

func TestCheckoutJournalFailureIsNotFatal(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	f.orders.createErr = errors.New("pq: connection refused")

	order, err := f.checkout.Submit(context.Background(), "s1", validForm())
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", order.OrderNumber)
	assert.Equal(t, domain.SubmissionSucceeded, f.checkout.State("s1"))
}

func TestCheckoutOrderStatusPollsCommerce(t *testing.T) {
	f := newCheckoutFixture()
	f.commerce.statusFn = func(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
		return domain.OrderStatusInDelivery, nil
	}

	status, err := f.checkout.OrderStatus(context.Background(), "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInDelivery, status)
}

func TestCheckoutOrderStatusSyncsJournal(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	ctx := context.Background()

	order, err := f.checkout.Submit(ctx, "s1", validForm())
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusNew, order.Status)

	f.commerce.statusFn = func(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
		return domain.OrderStatusInDelivery, nil
	}

	status, err := f.checkout.OrderStatus(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInDelivery, status)

	journaled, err := f.orders.GetByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInDelivery, journaled.Status)
}

func TestCheckoutOrderStatusRejectsRegression(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	ctx := context.Background()

	order, err := f.checkout.Submit(ctx, "s1", validForm())
	require.NoError(t, err)
	require.NoError(t, f.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered))

	// The commerce service reporting a status the journaled order cannot
	// legally reach must not rewind the journal.
	f.commerce.statusFn = func(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
		return domain.OrderStatusNew, nil
	}

	_, err = f.checkout.OrderStatus(ctx, order.OrderNumber)

	var transition *apperrors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, string(domain.OrderStatusDelivered), transition.From)
	assert.Equal(t, string(domain.OrderStatusNew), transition.To)

	journaled, err := f.orders.GetByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, journaled.Status)
}

func TestCheckoutOrderStatusUnjournaledOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.commerce.statusFn = func(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
		return domain.OrderStatusPaid, nil
	}

	// A journal write that failed at submission leaves nothing to sync;
	// the poll still answers.
	status, err := f.checkout.OrderStatus(context.Background(), "ORD-9999")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, status)
}

func TestCheckoutPruneStaleDropsSettledSessions(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)

	form := validForm()
	form.Phone = "abc"
	_, err := f.checkout.Submit(context.Background(), "s1", form)
	require.Error(t, err)
	require.Equal(t, domain.SubmissionFailed, f.checkout.State("s1"))

	f.checkout.PruneStale(0)
	assert.Equal(t, domain.SubmissionIdle, f.checkout.State("s1"))
}

func TestCheckoutPruneStaleKeepsInFlight(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)
	ctx := context.Background()

	proceed := make(chan struct{})
	f.commerce.createFn = func(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
		<-proceed
		return &domain.OrderResult{OrderNumber: "ORD-1001", OrderID: 55, Status: domain.OrderStatusNew, Total: draft.Total}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.checkout.Submit(ctx, "s1", validForm())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.checkout.State("s1") != domain.SubmissionSubmitting {
		if time.Now().After(deadline) {
			t.Fatal("submission never reached Submitting")
		}
		time.Sleep(time.Millisecond)
	}

	f.checkout.PruneStale(0)
	assert.Equal(t, domain.SubmissionSubmitting, f.checkout.State("s1"))

	_, err := f.checkout.Submit(ctx, "s1", validForm())
	var inProgress *apperrors.ErrSubmissionInProgress
	require.ErrorAs(t, err, &inProgress)

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, domain.SubmissionSucceeded, f.checkout.State("s1"))
}

func TestCheckoutRetryAfterAcknowledgeSucceeds(t *testing.T) {
	f := newCheckoutFixture()
	f.seed(t)

	form := validForm()
	form.Address = "x"
	_, err := f.checkout.Submit(context.Background(), "s1", form)
	require.Error(t, err)
	f.checkout.Acknowledge("s1")

	order, err := f.checkout.Submit(context.Background(), "s1", validForm())
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", order.OrderNumber)
}
