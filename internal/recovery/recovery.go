// Package recovery wraps the cart with durable storage and the staleness
// rules that decide what to do with a rehydrated cart at startup.
//
// Two windows apply, both pure functions of two timestamps:
//
//   - over 8 hours since the last mutation: the cart is discarded. A
//     forgotten all-day-old cart must never be accidentally recharged.
//   - over 60 seconds: the cart loads but is flagged Recovered, and the UI
//     must offer keep-or-discard. A reload seconds after a crash recovers
//     silently; a gap long enough to belong to a different customer visit
//     requires confirmation.
package recovery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tillworks/till/internal/cart"
)

// CartKey is the fixed storage key for the persisted active cart.
const CartKey = "active-cart"

// recordVersion is bumped whenever persistedCart gains fields that older
// readers cannot ignore. Unknown versions rehydrate as an empty cart.
const recordVersion = 1

const (
	// HardEvictionWindow is the age past which a persisted cart is discarded.
	HardEvictionWindow = 8 * time.Hour
	// RecoveredWindow is the age past which a loaded cart needs confirmation.
	RecoveredWindow = 60 * time.Second
)

// KV is the durable key-value capability the manager persists through.
// Implemented by store.Store (SQLite) and by in-memory fakes in tests.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// State classifies the outcome of rehydrating the persisted cart.
type State int

const (
	// StateFresh means the cart loaded silently: either nothing was
	// persisted, or the last mutation is recent enough to be this session.
	StateFresh State = iota
	// StateRecovered means a non-empty cart loaded after a real gap; the UI
	// must offer keep-or-discard before it is charged.
	StateRecovered
	// StateDiscarded means the persisted cart was too old and was replaced
	// with an empty one.
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateRecovered:
		return "recovered"
	case StateDiscarded:
		return "discarded"
	default:
		return "fresh"
	}
}

// persistedCart is the on-disk record. The envelope carries a schema version
// so records written by older engine builds rehydrate predictably.
type persistedCart struct {
	Version int       `json:"version"`
	Cart    cart.Cart `json:"cart"`
}

// Manager persists the active cart on every mutation and rehydrates it at
// startup. It implements cart.Persister.
type Manager struct {
	kv    KV
	clock cart.Clock
	log   *slog.Logger
}

// NewManager constructs a manager. A nil clock defaults to the system clock.
func NewManager(kv KV, clock cart.Clock, log *slog.Logger) *Manager {
	if clock == nil {
		clock = cart.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{kv: kv, clock: clock, log: log}
}

// Save serializes the full cart, including LastMutatedAt, under the fixed
// key. Called synchronously after every mutation; the Engine logs and
// swallows any error this returns.
func (m *Manager) Save(c cart.Cart) error {
	raw, err := json.Marshal(persistedCart{Version: recordVersion, Cart: c})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := m.kv.Set(CartKey, raw); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Load rehydrates the persisted cart and classifies it against the
// staleness windows. Storage or decode failures degrade to an empty fresh
// cart: recovery is best-effort and must never block startup.
func (m *Manager) Load() (cart.Cart, State) {
	raw, ok, err := m.kv.Get(CartKey)
	if err != nil {
		m.log.Warn("cart rehydration read failed", "error", err)
		return cart.New(), StateFresh
	}
	if !ok {
		return cart.New(), StateFresh
	}

	var rec persistedCart
	if err := json.Unmarshal(raw, &rec); err != nil {
		m.log.Warn("persisted cart unreadable, starting empty", "error", err)
		return cart.New(), StateFresh
	}
	if rec.Version != recordVersion {
		m.log.Warn("persisted cart has unknown schema version, starting empty",
			"version", rec.Version)
		return cart.New(), StateFresh
	}

	age := m.clock.Now().Sub(rec.Cart.LastMutatedAt)
	if age > HardEvictionWindow {
		m.log.Info("discarding stale persisted cart", "age", age)
		return cart.New(), StateDiscarded
	}
	if !rec.Cart.Empty() && age > RecoveredWindow {
		return rec.Cart, StateRecovered
	}
	return rec.Cart, StateFresh
}
