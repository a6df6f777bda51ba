package domain

import "time"

// Variant is a selectable sub-option of a product (e.g. color, size) with its
// own price adjustment.
type Variant struct {
	Type            string  `json:"type"`
	Value           string  `json:"value"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

// CartLine is one distinct purchasable unit in the cart. Identity is
// (ProductID, Variant.Type, Variant.Value); two additions with the same
// identity merge quantities.
type CartLine struct {
	ProductID   int      `json:"product_id"`
	ProductName string   `json:"product_name"`
	UnitPrice   float64  `json:"unit_price"`
	Quantity    int      `json:"quantity"`
	Variant     *Variant `json:"variant,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// matches reports whether the line has the given identity.
func (l CartLine) matches(productID int, variant *Variant) bool {
	if l.ProductID != productID {
		return false
	}
	if l.Variant == nil || variant == nil {
		return l.Variant == nil && variant == nil
	}
	return l.Variant.Type == variant.Type && l.Variant.Value == variant.Value
}

// EffectiveUnitPrice is the base price plus the variant adjustment, if any.
func (l CartLine) EffectiveUnitPrice() float64 {
	if l.Variant != nil {
		return l.UnitPrice + l.Variant.PriceAdjustment
	}
	return l.UnitPrice
}

// Cart is the ordered collection of lines held by one shopper session.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Items:     []CartLine{},
		UpdatedAt: time.Now(),
	}
}

// AddItem merges the quantity into an existing line with the same identity,
// or appends a new line. Lines with a quantity below one are ignored. No
// upper bound is enforced here; stock is checked at submission time.
func (c *Cart) AddItem(line CartLine) {
	if line.Quantity < 1 {
		return
	}
	for i := range c.Items {
		if c.Items[i].matches(line.ProductID, line.Variant) {
			c.Items[i].Quantity += line.Quantity
			c.UpdatedAt = time.Now()
			return
		}
	}
	c.Items = append(c.Items, line)
	c.UpdatedAt = time.Now()
}

// RemoveItem removes the matching line. No-op if absent.
func (c *Cart) RemoveItem(productID int, variant *Variant) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if !item.matches(productID, variant) {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.UpdatedAt = time.Now()
}

// UpdateQuantity sets the matching line's quantity (absolute set, not delta).
// A quantity below one removes the line; no line is ever retained at zero.
func (c *Cart) UpdateQuantity(productID, quantity int, variant *Variant) {
	if quantity < 1 {
		c.RemoveItem(productID, variant)
		return
	}
	for i := range c.Items {
		if c.Items[i].matches(productID, variant) {
			c.Items[i].Quantity = quantity
			c.UpdatedAt = time.Now()
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartLine{}
	c.UpdatedAt = time.Now()
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums (unit price + variant adjustment) * quantity over all
// lines. No rounding is applied here; rounding happens once, at order-draft
// assembly.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.EffectiveUnitPrice() * float64(item.Quantity)
	}
	return total
}
