// Package cart owns the in-progress sale: the authoritative line-item list
// and the mutation operations a register performs on it.
//
// A Cart is a plain value with no side effects. The Engine (engine.go) wraps
// a Cart with the durable-persist and display-broadcast side effects that
// fire after every mutation.
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how Cart.DiscountValue is interpreted.
type DiscountKind string

const (
	// DiscountFixed treats the discount value as a flat currency amount.
	DiscountFixed DiscountKind = "fixed"
	// DiscountPercentage treats the discount value as a percentage of the subtotal.
	DiscountPercentage DiscountKind = "percentage"
)

// Product is the catalog input shape (spec'd by the inventory collaborator).
// Price decodes from either a JSON number or a numeric string - catalog
// backends disagree on this and the register must accept both.
type Product struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Price             decimal.Decimal   `json:"price"`
	Stock             int               `json:"stock"`
	VariantID         *int64            `json:"variant_id,omitempty"`
	VariantAttributes map[string]string `json:"variant_attributes,omitempty"`
}

// Line is one distinct product+variant entry in a cart.
//
// Identity key is (ProductID, VariantID); a cart never holds two lines with
// the same key. Quantity is always >= 1: decrementing to zero is clamped,
// never an implicit removal. Callers that want a line gone call RemoveLine.
type Line struct {
	ProductID      int64           `json:"product_id"`
	VariantID      *int64          `json:"variant_id,omitempty"`
	DisplayName    string          `json:"display_name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	AvailableStock int             `json:"available_stock"`
	Memo           string          `json:"memo,omitempty"`
}

// matchesKey reports whether the line's identity key is (productID, variantID).
func (l Line) matchesKey(productID int64, variantID *int64) bool {
	if l.ProductID != productID {
		return false
	}
	if (l.VariantID == nil) != (variantID == nil) {
		return false
	}
	return l.VariantID == nil || *l.VariantID == *variantID
}

// LineTotal returns unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the active in-progress sale. Exactly one Cart is active per client
// session; it is single-owner and mutated only from the session's event loop,
// so no locking is needed.
type Cart struct {
	Lines          []Line          `json:"lines"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountKind   DiscountKind    `json:"discount_kind"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Notes          string          `json:"notes,omitempty"`
	Tip            decimal.Decimal `json:"tip"`
	LastMutatedAt  time.Time       `json:"last_mutated_at"`
}

// New returns an empty cart with zeroed money fields and a fixed discount kind.
func New() Cart {
	return Cart{
		DiscountValue:  decimal.Zero,
		DiscountKind:   DiscountFixed,
		CouponDiscount: decimal.Zero,
		Tip:            decimal.Zero,
	}
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// AddLine merges the product into the cart. If a line with the same
// (product, variant) key exists its quantity is incremented by qty;
// otherwise a new line is appended. qty values below 1 are treated as 1.
func (c *Cart) AddLine(p Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Lines {
		if c.Lines[i].matchesKey(p.ID, p.VariantID) {
			c.Lines[i].Quantity += qty
			return
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID:      p.ID,
		VariantID:      p.VariantID,
		DisplayName:    p.Name,
		UnitPrice:      p.Price,
		Quantity:       qty,
		AvailableStock: p.Stock,
	})
}

// RemoveLine deletes the line with the given key. Absent lines are a no-op,
// not an error: a double-tap on a delete button must not fail the second tap.
func (c *Cart) RemoveLine(productID int64, variantID *int64) {
	for i := range c.Lines {
		if c.Lines[i].matchesKey(productID, variantID) {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// SetQuantity stores qty on the matching line, clamped to a minimum of 1.
// Removal is never implicit; callers wanting the line gone use RemoveLine.
// No-op if the line is absent.
func (c *Cart) SetQuantity(productID int64, qty int, variantID *int64) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Lines {
		if c.Lines[i].matchesKey(productID, variantID) {
			c.Lines[i].Quantity = qty
			return
		}
	}
}

// SetMemo attaches a free-text memo to the matching line. No-op if absent.
func (c *Cart) SetMemo(productID int64, memo string, variantID *int64) {
	for i := range c.Lines {
		if c.Lines[i].matchesKey(productID, variantID) {
			c.Lines[i].Memo = memo
			return
		}
	}
}

// SetDiscount sets the cart-level discount. Values are stored as given;
// range validation (negative amounts, percentages over 100) is the UI
// boundary's job, and pricing clamps the computed total at zero regardless.
func (c *Cart) SetDiscount(value decimal.Decimal, kind DiscountKind) {
	c.DiscountValue = value
	c.DiscountKind = kind
}

// SetCoupon records a redeemed coupon code and its currency value.
func (c *Cart) SetCoupon(code string, amount decimal.Decimal) {
	c.CouponCode = code
	c.CouponDiscount = amount
}

// ClearCoupon removes any applied coupon.
func (c *Cart) ClearCoupon() {
	c.CouponCode = ""
	c.CouponDiscount = decimal.Zero
}

// SetNotes sets the order-level note.
func (c *Cart) SetNotes(notes string) {
	c.Notes = notes
}

// SetTip sets the tip amount.
func (c *Cart) SetTip(tip decimal.Decimal) {
	c.Tip = tip
}

// Clear resets every field to its empty default. LastMutatedAt is stamped by
// the caller (the Engine), same as for every other mutation.
func (c *Cart) Clear() {
	*c = New()
}

// Subtotal returns the sum of all line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// Clone returns a deep copy. Lines are copied so callers can hold a snapshot
// without aliasing the live cart.
func (c *Cart) Clone() Cart {
	out := *c
	if c.Lines != nil {
		out.Lines = make([]Line, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}
