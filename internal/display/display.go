// Package display mirrors a sanitized projection of the cart to a secondary
// customer-facing surface.
//
// The broadcaster is fire-and-forget: it never receives acknowledgement and
// its failures never propagate into a mutation. The secondary display is a
// presentation surface, not a participant in transaction integrity - it can
// miss an update, it just must never show data the cashier does not see.
package display

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tillworks/till/internal/cart"
	"github.com/tillworks/till/internal/pricing"
)

// Message types on the display channel.
const (
	// TypeCartUpdate carries a full snapshot of a non-empty cart.
	TypeCartUpdate = "cart-update"
	// TypeCartClear signals the transition to an empty cart. A distinct
	// signal, not an empty snapshot, so the display can play a closing
	// animation instead of rendering a blank cart.
	TypeCartClear = "cart-clear"
)

// SnapshotLine is the sanitized per-line projection: no product or variant
// ids, nothing the customer-facing surface has no business seeing.
type SnapshotLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Memo      string          `json:"memo,omitempty"`
}

// Snapshot is the customer-facing cart projection.
type Snapshot struct {
	Lines        []SnapshotLine    `json:"lines"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Discount     decimal.Decimal   `json:"discount"`
	DiscountKind cart.DiscountKind `json:"discount_kind"`
	Total        decimal.Decimal   `json:"total"`
	Tip          decimal.Decimal   `json:"tip"`
}

// Message is one broadcast frame.
type Message struct {
	Type string    `json:"type"`
	Cart *Snapshot `json:"cart,omitempty"`
}

// Channel is the cross-surface messaging capability. In the browser-shaped
// deployment this is a real broadcast channel; elsewhere it degrades to the
// in-process MemoryChannel or a no-op, without touching cart logic.
type Channel interface {
	Publish(Message) error
	Subscribe(func(Message))
}

// Broadcaster publishes a snapshot after every mutation that leaves the
// cart non-empty, and a single clear signal on the transition to empty.
// It implements cart.Broadcaster.
type Broadcaster struct {
	ch       Channel
	tax      pricing.TaxConfig
	wasEmpty bool
}

// NewBroadcaster constructs a broadcaster over the given channel. The tax
// config is needed because the displayed total is the tax-adjusted one the
// cashier sees, not the raw subtotal.
func NewBroadcaster(ch Channel, tax pricing.TaxConfig) *Broadcaster {
	return &Broadcaster{ch: ch, tax: tax, wasEmpty: true}
}

// Broadcast publishes the cart's projection. Loyalty redemption is a
// per-checkout input and never part of the mirrored running total.
func (b *Broadcaster) Broadcast(c cart.Cart) error {
	if c.Empty() {
		if b.wasEmpty {
			return nil
		}
		b.wasEmpty = true
		return b.ch.Publish(Message{Type: TypeCartClear})
	}
	b.wasEmpty = false

	pr := pricing.Compute(c, b.tax, pricing.LoyaltyConfig{}, 0)
	lines := make([]SnapshotLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, SnapshotLine{
			Name:      l.DisplayName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Memo:      l.Memo,
		})
	}
	return b.ch.Publish(Message{
		Type: TypeCartUpdate,
		Cart: &Snapshot{
			Lines:        lines,
			Subtotal:     pr.Subtotal,
			Discount:     pr.DiscountAmount,
			DiscountKind: c.DiscountKind,
			Total:        pr.Total,
			Tip:          c.Tip,
		},
	})
}

// MemoryChannel is an in-process Channel: handlers run synchronously on
// Publish. Used when no cross-window primitive exists and in tests.
type MemoryChannel struct {
	mu       sync.Mutex
	handlers []func(Message)
}

// NewMemoryChannel creates a channel with no subscribers.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

// Publish delivers the message to every subscriber in order.
func (m *MemoryChannel) Publish(msg Message) error {
	m.mu.Lock()
	handlers := make([]func(Message), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// Subscribe registers a handler for every subsequent publish.
func (m *MemoryChannel) Subscribe(h func(Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// NopChannel discards every message. Used by headless tools that have no
// secondary display attached.
type NopChannel struct{}

// Publish discards the message.
func (NopChannel) Publish(Message) error { return nil }

// Subscribe discards the handler.
func (NopChannel) Subscribe(func(Message)) {}
