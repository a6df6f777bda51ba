package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is the slice of a catalog record the checkout flow depends on.
type Product struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	TrackStock    bool    `json:"track_stock"`
	Sellable      bool    `json:"sellable"`
}

// DeliveryZone is a deliverable region with its fee schedule. Fetched
// read-only from the commerce service.
type DeliveryZone struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	BaseFee          float64 `json:"delivery_fee"`
	EstimatedTimeMin int     `json:"delivery_time_min"`
	EstimatedTimeMax int     `json:"delivery_time_max"`
}

// FeeQuote is the commerce service's authoritative fee for a zone and
// subtotal. It overrides any client-side estimate.
type FeeQuote struct {
	Fee      float64 `json:"delivery_fee"`
	ZoneName string  `json:"zone_name"`
	EtaMin   int     `json:"delivery_time_min"`
	EtaMax   int     `json:"delivery_time_max"`
}

// Customer holds the shopper's contact and delivery details.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
}

// OrderDraftItem is one line of the assembled submission payload.
// TotalPrice is UnitPrice * Quantity rounded to two decimals, where
// UnitPrice already includes the variant adjustment.
type OrderDraftItem struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"total_price"`
}

// OrderDraft is the client-assembled, not-yet-confirmed order payload sent
// to the commerce service.
type OrderDraft struct {
	Customer       Customer         `json:"customer"`
	DeliveryZoneID int              `json:"delivery_zone_id"`
	Items          []OrderDraftItem `json:"items"`
	Subtotal       float64          `json:"subtotal"`
	DeliveryFee    float64          `json:"delivery_fee"`
	Total          float64          `json:"total"`
	Remarks        string           `json:"remarks,omitempty"`
}

// OrderResult is the commerce service's confirmation. Total is
// authoritative and may differ from the client-computed total.
type OrderResult struct {
	OrderNumber string      `json:"order_number"`
	OrderID     int         `json:"order_id"`
	Status      OrderStatus `json:"status"`
	Total       float64     `json:"total"`
}

// Order is the locally journaled record of a submitted order.
type Order struct {
	ID              uuid.UUID
	SessionID       string
	OrderNumber     string
	CommerceOrderID int
	Status          OrderStatus
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Address         string
	DeliveryZoneID  int
	Subtotal        float64
	DeliveryFee     float64
	Total           float64
	Remarks         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is one journaled line of a submitted order.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   int
	ProductName string
	UnitPrice   float64
	Quantity    int
	TotalPrice  float64
	CreatedAt   time.Time
}

// IdempotencyKey makes checkout retries with the same key return the
// already-created order instead of re-submitting.
type IdempotencyKey struct {
	Key         string
	SessionID   string
	OrderID     uuid.UUID
	RequestHash string
	CreatedAt   time.Time
}
