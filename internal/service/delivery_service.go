package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// quoteState is the per-session fee quote being maintained while the shopper
// edits the cart or switches zones.
type quoteState struct {
	zoneID   int
	subtotal float64

	// seq increases on every recompute trigger. A response only lands if
	// its seq is still the newest, so a slow stale quote can never
	// overwrite a fresher one.
	seq     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	pending bool
	touched time.Time

	quote *domain.FeeQuote
	err   error
}

// DeliveryService bridges the cart's subtotal and zone selection to the
// commerce service's fee schedule. Recomputes are debounced and
// sequence-guarded.
type DeliveryService struct {
	commerce CommerceAPI
	logger   *zap.Logger
	debounce time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	sessions map[string]*quoteState
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(commerce CommerceAPI, debounce, timeout time.Duration, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		commerce: commerce,
		logger:   logger,
		debounce: debounce,
		timeout:  timeout,
		sessions: make(map[string]*quoteState),
	}
}

// ListZones fetches all delivery zones. Failures are reported as an explicit
// error, never as an empty list.
func (s *DeliveryService) ListZones(ctx context.Context) ([]domain.DeliveryZone, error) {
	zones, err := s.commerce.ListDeliveryZones(ctx)
	if err != nil {
		return nil, &apperrors.ErrService{Stage: apperrors.StageZoneFetch, Err: err}
	}
	return zones, nil
}

// Quote asks the commerce service directly for a fee, outside the debounced
// per-session flow.
func (s *DeliveryService) Quote(ctx context.Context, zoneID int, subtotal float64) (*domain.FeeQuote, error) {
	quote, err := s.commerce.QuoteDeliveryFee(ctx, zoneID, subtotal)
	if err != nil {
		return nil, &apperrors.ErrService{Stage: apperrors.StageFeeQuote, Err: err}
	}
	return quote, nil
}

// SelectZone records the session's zone choice and schedules a debounced
// fee recompute.
func (s *DeliveryService) SelectZone(sessionID string, zoneID int, subtotal float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(sessionID)
	st.zoneID = zoneID
	st.subtotal = subtotal
	s.scheduleLocked(sessionID, st)
}

// SubtotalChanged reschedules the recompute after a cart edit. No-op until
// a zone has been selected.
func (s *DeliveryService) SubtotalChanged(sessionID string, subtotal float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.zoneID == 0 {
		return
	}
	st.subtotal = subtotal
	s.scheduleLocked(sessionID, st)
}

// Summary returns the session's zone selection and the latest quote. err is
// non-nil when the last recompute failed; the fee then degrades to zero and
// the caller surfaces a dismissible notice.
func (s *DeliveryService) Summary(sessionID string) (zoneID int, quote *domain.FeeQuote, pending bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return 0, nil, false, nil
	}
	st.touched = time.Now()
	return st.zoneID, st.quote, st.pending, st.err
}

// AuthoritativeFee returns the fee to use for submission: the settled quote
// when it matches the current subtotal, else a fresh synchronous quote.
func (s *DeliveryService) AuthoritativeFee(ctx context.Context, sessionID string, subtotal float64) (float64, error) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if ok && st.zoneID != 0 && !st.pending && st.err == nil && st.quote != nil && st.subtotal == subtotal {
		fee := st.quote.Fee
		s.mu.Unlock()
		return fee, nil
	}
	var zoneID int
	if ok {
		zoneID = st.zoneID
	}
	s.mu.Unlock()

	if zoneID == 0 {
		return 0, &apperrors.ErrValidation{Field: "delivery_zone_id", Message: "a delivery zone must be selected"}
	}
	quote, err := s.Quote(ctx, zoneID, subtotal)
	if err != nil {
		return 0, err
	}
	return quote.Fee, nil
}

// Reset discards the session's quote state, e.g. after the cart is cleared.
func (s *DeliveryService) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	st.seq++
	if st.timer != nil {
		st.timer.Stop()
	}
	if st.cancel != nil {
		st.cancel()
	}
	delete(s.sessions, sessionID)
}

// PruneStale drops quote state for sessions untouched for longer than
// maxAge. A session with a recompute still pending is left alone.
func (s *DeliveryService) PruneStale(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for sessionID, st := range s.sessions {
		if st.pending || !st.touched.Before(cutoff) {
			continue
		}
		st.seq++
		if st.timer != nil {
			st.timer.Stop()
		}
		if st.cancel != nil {
			st.cancel()
		}
		delete(s.sessions, sessionID)
	}
}

func (s *DeliveryService) state(sessionID string) *quoteState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &quoteState{}
		s.sessions[sessionID] = st
	}
	return st
}

// scheduleLocked supersedes any pending or in-flight recompute and arms the
// debounce timer. Caller holds s.mu.
func (s *DeliveryService) scheduleLocked(sessionID string, st *quoteState) {
	st.seq++
	seq := st.seq
	if st.timer != nil {
		st.timer.Stop()
	}
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	st.pending = true
	st.touched = time.Now()

	st.timer = time.AfterFunc(s.debounce, func() {
		s.runQuote(sessionID, seq)
	})
}

func (s *DeliveryService) runQuote(sessionID string, seq uint64) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if !ok || st.seq != seq {
		s.mu.Unlock()
		return
	}
	zoneID := st.zoneID
	subtotal := st.subtotal

	if zoneID == 0 || subtotal <= 0 {
		st.quote = nil
		st.err = nil
		st.pending = false
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	st.cancel = cancel
	s.mu.Unlock()

	quote, err := s.commerce.QuoteDeliveryFee(ctx, zoneID, subtotal)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if st.seq != seq {
		// Superseded while in flight; a newer request owns the display.
		return
	}
	st.pending = false
	st.cancel = nil
	if err != nil {
		s.logger.Warn("Delivery fee quote failed",
			zap.String("session_id", sessionID),
			zap.Int("zone_id", zoneID),
			zap.Error(err),
		)
		st.quote = nil
		st.err = &apperrors.ErrService{Stage: apperrors.StageFeeQuote, Err: err}
		return
	}
	st.quote = quote
	st.err = nil
}
