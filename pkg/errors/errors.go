package errors

import (
	"fmt"
	"strings"
)

// Stages identify which external call failed so the right UI region can
// show the error.
const (
	StageZoneFetch   = "zone_fetch"
	StageFeeQuote    = "fee_quote"
	StageStockCheck  = "stock_check"
	StageStockUpdate = "stock_update"
	StageOrderCreate = "order_create"
	StageOrderStatus = "order_status"
)

// ErrValidation is a local validation failure. Submission is never attempted.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrNotFound indicates a referenced resource no longer exists.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Shortage describes one cart line whose requested quantity exceeds the
// available stock.
type Shortage struct {
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// ErrStockShortage aggregates every shortage found during a stock check, so
// the shopper sees one message listing all of them.
type ErrStockShortage struct {
	Shortages []Shortage
}

func (e *ErrStockShortage) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", s.ProductName, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// ErrService wraps a network or service failure from a collaborator. Stage
// names the failing call.
type ErrService struct {
	Stage string
	Err   error
}

func (e *ErrService) Error() string {
	return fmt.Sprintf("service failure during %s: %v", e.Stage, e.Err)
}

func (e *ErrService) Unwrap() error {
	return e.Err
}

// ErrServerValidation carries the commerce service's own rejection of an
// order draft. Field messages are surfaced as-is, never re-worded.
type ErrServerValidation struct {
	Message string
	Fields  map[string][]string
}

func (e *ErrServerValidation) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// ErrSubmissionInProgress rejects a repeated submit while the previous one
// has not reached a terminal state.
type ErrSubmissionInProgress struct {
	SessionID string
}

func (e *ErrSubmissionInProgress) Error() string {
	return "a submission is already in progress for this session"
}

// ErrInvalidStateTransition reports a disallowed order status change.
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}
