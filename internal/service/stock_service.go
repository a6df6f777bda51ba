package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// StockService cross-checks requested quantities against the catalog's live
// stock and performs the decrement once every line has passed.
type StockService struct {
	catalog CatalogAPI
	logger  *zap.Logger
}

// NewStockService creates a new stock service
func NewStockService(catalog CatalogAPI, logger *zap.Logger) *StockService {
	return &StockService{
		catalog: catalog,
		logger:  logger,
	}
}

type stockDecrement struct {
	productID int
	name      string
	requested int
}

// VerifyAndReserve confirms every draft line against the catalog and, when
// all lines pass, decrements stock for the tracked ones. Shortages are
// aggregated into one error listing all of them; no decrement is issued
// unless the whole cart passes.
func (s *StockService) VerifyAndReserve(ctx context.Context, items []domain.OrderDraftItem) error {
	ids := make([]int, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	// One batched read for the whole cart.
	products, err := s.catalog.ListProductsByIDs(ctx, ids)
	if err != nil {
		return &apperrors.ErrService{Stage: apperrors.StageStockCheck, Err: err}
	}

	// The same product can appear on several lines (variants); the check
	// and the decrement both apply to the summed requested quantity.
	requested := make(map[int]int, len(ids))
	names := make(map[int]string, len(ids))
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
		names[item.ProductID] = item.ProductName
	}

	var shortages []apperrors.Shortage
	var updates []stockDecrement
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			// A cart line referencing a vanished product is a hard
			// failure, not a silent drop.
			return &apperrors.ErrNotFound{Resource: "product", ID: strconv.Itoa(id)}
		}
		if !product.TrackStock {
			// Always sellable while catalog-listed.
			continue
		}
		available := product.StockQuantity
		if !product.Sellable {
			available = 0
		}
		if available < requested[id] {
			shortages = append(shortages, apperrors.Shortage{
				ProductName: names[id],
				Requested:   requested[id],
				Available:   available,
			})
			continue
		}
		updates = append(updates, stockDecrement{
			productID: id,
			name:      names[id],
			requested: requested[id],
		})
	}

	if len(shortages) > 0 {
		return &apperrors.ErrStockShortage{Shortages: shortages}
	}

	return s.reserve(ctx, updates)
}

// reserve issues all decrements together once the aggregate check has
// passed. Writes run concurrently; a guard re-read inside each write turns a
// concurrent sale into a late shortage instead of overselling.
func (s *StockService) reserve(ctx context.Context, updates []stockDecrement) error {
	var mu sync.Mutex
	var late []apperrors.Shortage

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range updates {
		u := u
		g.Go(func() error {
			shortage, err := s.decrement(gctx, u)
			if err != nil {
				return err
			}
			if shortage != nil {
				mu.Lock()
				late = append(late, *shortage)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			return err
		}
		return &apperrors.ErrService{Stage: apperrors.StageStockUpdate, Err: err}
	}

	if len(late) > 0 {
		// A concurrent shopper got there first; same aggregate failure
		// path as the initial check.
		return &apperrors.ErrStockShortage{Shortages: late}
	}
	return nil
}

// decrement re-reads the product's stock and only writes if it still covers
// the request. The window between the re-read and the write remains; the
// catalog service offers no conditional update.
func (s *StockService) decrement(ctx context.Context, u stockDecrement) (*apperrors.Shortage, error) {
	product, err := s.catalog.GetProduct(ctx, u.productID)
	if err != nil {
		return nil, err
	}
	if product.StockQuantity < u.requested {
		return &apperrors.Shortage{
			ProductName: u.name,
			Requested:   u.requested,
			Available:   product.StockQuantity,
		}, nil
	}

	remaining := product.StockQuantity - u.requested
	sellable := remaining > 0
	if err := s.catalog.UpdateProductStock(ctx, u.productID, remaining, sellable); err != nil {
		return nil, err
	}

	s.logger.Info("Stock decremented",
		zap.Int("product_id", u.productID),
		zap.Int("quantity", u.requested),
		zap.Int("remaining", remaining),
	)
	return nil, nil
}
