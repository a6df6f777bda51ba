package pricing

import (
	"fmt"
	"math"

	"github.com/sahelshop/storefront/internal/domain"
	"github.com/sahelshop/storefront/pkg/errors"
)

// Totals is the derived pricing of a cart plus a delivery fee.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
}

// Round2 rounds a monetary amount to two decimals. It is applied once, at
// order-draft assembly, so per-line floating error does not compound.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sanitize coerces non-finite values to zero. This lenient default applies
// only to live preview totals, never to the submitted payload.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// PreviewTotals computes display totals from the cart and the current
// delivery fee. Missing or non-numeric inputs count as zero.
func PreviewTotals(cart *domain.Cart, deliveryFee float64) Totals {
	subtotal := 0.0
	for _, item := range cart.Items {
		unit := sanitize(item.UnitPrice)
		if item.Variant != nil {
			unit += sanitize(item.Variant.PriceAdjustment)
		}
		qty := item.Quantity
		if qty < 0 {
			qty = 0
		}
		subtotal += unit * float64(qty)
	}
	fee := sanitize(deliveryFee)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}
}

// AssembleDraft builds the final submission payload from the cart, the
// shopper's details and the quoted delivery fee. Unlike PreviewTotals it is
// strict: an empty cart, a missing zone, a non-finite price, adjustment or
// fee, or a non-positive quantity or line total is a validation failure, not
// a silent coercion.
func AssembleDraft(cart *domain.Cart, customer domain.Customer, zoneID int, deliveryFee float64, remarks string) (*domain.OrderDraft, error) {
	if len(cart.Items) == 0 {
		return nil, &errors.ErrValidation{Field: "items", Message: "cart is empty"}
	}
	if zoneID <= 0 {
		return nil, &errors.ErrValidation{Field: "delivery_zone_id", Message: "a delivery zone must be selected"}
	}
	if math.IsNaN(deliveryFee) || math.IsInf(deliveryFee, 0) || deliveryFee < 0 {
		return nil, &errors.ErrValidation{Field: "delivery_fee", Message: "delivery fee is invalid"}
	}

	items := make([]domain.OrderDraftItem, 0, len(cart.Items))
	subtotal := 0.0
	for _, line := range cart.Items {
		if math.IsNaN(line.UnitPrice) || math.IsInf(line.UnitPrice, 0) || line.UnitPrice < 0 {
			return nil, &errors.ErrValidation{
				Field:   "unit_price",
				Message: fmt.Sprintf("invalid unit price for %q", line.ProductName),
			}
		}
		adjustment := 0.0
		if line.Variant != nil {
			adjustment = line.Variant.PriceAdjustment
			if math.IsNaN(adjustment) || math.IsInf(adjustment, 0) {
				return nil, &errors.ErrValidation{
					Field:   "price_adjustment",
					Message: fmt.Sprintf("invalid variant adjustment for %q", line.ProductName),
				}
			}
		}
		if line.Quantity < 1 {
			return nil, &errors.ErrValidation{
				Field:   "quantity",
				Message: fmt.Sprintf("invalid quantity for %q", line.ProductName),
			}
		}

		unit := Round2(line.UnitPrice + adjustment)
		lineTotal := Round2((line.UnitPrice + adjustment) * float64(line.Quantity))
		if lineTotal <= 0 {
			return nil, &errors.ErrValidation{
				Field:   "total_price",
				Message: fmt.Sprintf("line total for %q must be positive", line.ProductName),
			}
		}

		items = append(items, domain.OrderDraftItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   unit,
			Quantity:    line.Quantity,
			TotalPrice:  lineTotal,
		})
		subtotal += lineTotal
	}

	roundedSubtotal := Round2(subtotal)
	roundedFee := Round2(deliveryFee)

	return &domain.OrderDraft{
		Customer:       customer,
		DeliveryZoneID: zoneID,
		Items:          items,
		Subtotal:       roundedSubtotal,
		DeliveryFee:    roundedFee,
		Total:          Round2(roundedSubtotal + roundedFee),
		Remarks:        remarks,
	}, nil
}
