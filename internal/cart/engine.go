package cart

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Clock abstracts wall-clock reads so staleness logic is testable with a
// fake. Implemented by SystemClock (production) and testutil.Clock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Persister durably saves the cart after each mutation.
// Implemented by recovery.Manager.
type Persister interface {
	Save(Cart) error
}

// Broadcaster mirrors cart state to a secondary display surface.
// Implemented by display.Broadcaster.
type Broadcaster interface {
	Broadcast(Cart) error
}

// Engine is the transactional cart engine: it owns the single active Cart
// for this session and fires the persist and broadcast side effects after
// every mutation.
//
// Side-effect failures are logged and swallowed. Losing the ability to
// recover a cart is degraded-but-tolerable; throwing back into a mutation
// mid-sale is not.
//
// All mutations run synchronously on the session's event loop. The Engine is
// not safe for concurrent use and does not need to be: the active cart is
// single-owner.
type Engine struct {
	cart    Cart
	persist Persister
	bcast   Broadcaster
	clock   Clock
	log     *slog.Logger
}

// NewEngine constructs an engine around an empty cart. persist and bcast may
// be nil, in which case the corresponding side effect is skipped - tests and
// headless tools use this. A nil clock defaults to SystemClock.
func NewEngine(persist Persister, bcast Broadcaster, clock Clock, log *slog.Logger) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cart:    New(),
		persist: persist,
		bcast:   bcast,
		clock:   clock,
		log:     log,
	}
}

// Cart returns a snapshot copy of the active cart.
func (e *Engine) Cart() Cart {
	return e.cart.Clone()
}

// Empty reports whether the active cart has no lines.
func (e *Engine) Empty() bool {
	return e.cart.Empty()
}

// Restore replaces the active cart wholesale, preserving the restored
// LastMutatedAt. Used when rehydrating a recovered cart at startup; does not
// re-persist or broadcast the state it was just loaded from.
func (e *Engine) Restore(c Cart) {
	e.cart = c.Clone()
}

// AddLine merges a product into the cart and fires side effects.
func (e *Engine) AddLine(p Product, qty int) {
	e.cart.AddLine(p, qty)
	e.afterMutation()
}

// RemoveLine deletes a line and fires side effects.
func (e *Engine) RemoveLine(productID int64, variantID *int64) {
	e.cart.RemoveLine(productID, variantID)
	e.afterMutation()
}

// SetQuantity updates a line's quantity (clamped to >= 1) and fires side effects.
func (e *Engine) SetQuantity(productID int64, qty int, variantID *int64) {
	e.cart.SetQuantity(productID, qty, variantID)
	e.afterMutation()
}

// SetMemo updates a line memo and fires side effects.
func (e *Engine) SetMemo(productID int64, memo string, variantID *int64) {
	e.cart.SetMemo(productID, memo, variantID)
	e.afterMutation()
}

// SetDiscount updates the cart-level discount and fires side effects.
func (e *Engine) SetDiscount(value decimal.Decimal, kind DiscountKind) {
	e.cart.SetDiscount(value, kind)
	e.afterMutation()
}

// SetCoupon applies a coupon and fires side effects.
func (e *Engine) SetCoupon(code string, amount decimal.Decimal) {
	e.cart.SetCoupon(code, amount)
	e.afterMutation()
}

// ClearCoupon removes any applied coupon and fires side effects.
func (e *Engine) ClearCoupon() {
	e.cart.ClearCoupon()
	e.afterMutation()
}

// SetNotes updates the order note and fires side effects.
func (e *Engine) SetNotes(notes string) {
	e.cart.SetNotes(notes)
	e.afterMutation()
}

// SetTip updates the tip and fires side effects.
func (e *Engine) SetTip(tip decimal.Decimal) {
	e.cart.SetTip(tip)
	e.afterMutation()
}

// Clear resets the cart to empty and fires side effects. The broadcaster
// turns the transition to empty into a distinct clear signal.
func (e *Engine) Clear() {
	e.cart.Clear()
	e.afterMutation()
}

// Resume replaces the active cart with a retrieved held snapshot: the full
// line set and the snapshot's discount, with every other field reset to its
// empty default. Held carts never merge with the active cart; callers
// confirm before resuming over a non-empty one.
func (e *Engine) Resume(lines []Line, discountValue decimal.Decimal, kind DiscountKind) {
	e.cart = New()
	e.cart.Lines = make([]Line, len(lines))
	copy(e.cart.Lines, lines)
	e.cart.SetDiscount(discountValue, kind)
	e.afterMutation()
}

// afterMutation stamps LastMutatedAt, persists, and broadcasts. Persist and
// broadcast failures are logged and swallowed.
func (e *Engine) afterMutation() {
	e.cart.LastMutatedAt = e.clock.Now()
	if e.persist != nil {
		if err := e.persist.Save(e.cart); err != nil {
			e.log.Warn("cart persist failed", "error", err)
		}
	}
	if e.bcast != nil {
		if err := e.bcast.Broadcast(e.cart); err != nil {
			e.log.Warn("cart broadcast failed", "error", err)
		}
	}
}
