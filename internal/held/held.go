// Package held parks cart snapshots under a name so a cashier can serve
// another customer and come back. Held carts live independently of the
// active cart: holding does not clear it, and retrieval replaces the active
// line set wholesale, never merging.
package held

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillworks/till/internal/cart"
)

// HeldCart is a parked snapshot. The id is a UUIDv7: unique and
// time-sortable, so listing in id order is listing in hold order.
type HeldCart struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Lines         []cart.Line       `json:"lines"`
	DiscountValue decimal.Decimal   `json:"discount_value"`
	DiscountKind  cart.DiscountKind `json:"discount_kind"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Store is the durable backing for parked carts. Every operation is a
// whole-item insert or whole-item delete keyed by id, so there are no
// partial-update races. Implemented by store.Store and MemoryStore.
type Store interface {
	PutHeld(HeldCart) error
	GetHeld(id string) (HeldCart, bool, error)
	DeleteHeld(id string) error
	ListHeld() ([]HeldCart, error)
}

// IDGenerator mints held-cart ids. Implemented by UUIDv7Generator
// (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids in order, for deterministic tests.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order and
// panics when exhausted.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("held: fixed generator exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// ErrNotHeld is returned when no held cart exists under the requested id.
var ErrNotHeld = fmt.Errorf("held: no cart with that id")

// Registry manages parked carts. It has no notion of the active cart:
// clearing after a hold and confirming before an overwrite on retrieve are
// the caller's responsibility, so a hold can never silently lose the active
// cart's coupon, notes, or tip.
type Registry struct {
	store Store
	ids   IDGenerator
	clock cart.Clock
}

// NewRegistry constructs a registry. Nil ids defaults to UUIDv7, nil clock
// to the system clock.
func NewRegistry(store Store, ids IDGenerator, clock cart.Clock) *Registry {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	if clock == nil {
		clock = cart.SystemClock{}
	}
	return &Registry{store: store, ids: ids, clock: clock}
}

// Hold parks a snapshot under a fresh id and returns it. The lines slice is
// copied; the caller's cart is not aliased.
func (r *Registry) Hold(name string, lines []cart.Line, discountValue decimal.Decimal, kind cart.DiscountKind) (HeldCart, error) {
	snapshot := make([]cart.Line, len(lines))
	copy(snapshot, lines)
	h := HeldCart{
		ID:            r.ids.Generate(),
		Name:          name,
		Lines:         snapshot,
		DiscountValue: discountValue,
		DiscountKind:  kind,
		CreatedAt:     r.clock.Now(),
	}
	if err := r.store.PutHeld(h); err != nil {
		return HeldCart{}, fmt.Errorf("hold cart: %w", err)
	}
	return h, nil
}

// Retrieve removes and returns the held cart. The entry is consumed: a
// retrieved cart exists only as the caller's new active cart.
func (r *Registry) Retrieve(id string) (HeldCart, error) {
	h, ok, err := r.store.GetHeld(id)
	if err != nil {
		return HeldCart{}, fmt.Errorf("retrieve held cart: %w", err)
	}
	if !ok {
		return HeldCart{}, ErrNotHeld
	}
	if err := r.store.DeleteHeld(id); err != nil {
		return HeldCart{}, fmt.Errorf("retrieve held cart: %w", err)
	}
	return h, nil
}

// Delete permanently removes a held cart without returning it.
func (r *Registry) Delete(id string) error {
	_, ok, err := r.store.GetHeld(id)
	if err != nil {
		return fmt.Errorf("delete held cart: %w", err)
	}
	if !ok {
		return ErrNotHeld
	}
	return r.store.DeleteHeld(id)
}

// List returns all held carts ordered by id (and therefore by hold time).
func (r *Registry) List() ([]HeldCart, error) {
	hs, err := r.store.ListHeld()
	if err != nil {
		return nil, fmt.Errorf("list held carts: %w", err)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].ID < hs[j].ID })
	return hs, nil
}

// MemoryStore is an in-process Store for tests and headless tools.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]HeldCart
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]HeldCart)}
}

// PutHeld stores a held cart.
func (m *MemoryStore) PutHeld(h HeldCart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[h.ID] = h
	return nil
}

// GetHeld looks up a held cart by id.
func (m *MemoryStore) GetHeld(id string) (HeldCart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.carts[id]
	return h, ok, nil
}

// DeleteHeld removes a held cart by id. Absent ids are a no-op.
func (m *MemoryStore) DeleteHeld(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}

// ListHeld returns all held carts in unspecified order.
func (m *MemoryStore) ListHeld() ([]HeldCart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HeldCart, 0, len(m.carts))
	for _, h := range m.carts {
		out = append(out, h)
	}
	return out, nil
}
