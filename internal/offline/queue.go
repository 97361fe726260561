// Package offline converts checkout submissions that failed for lack of
// connectivity into durably queued deferred sales, pending replay by the
// external reconciliation process.
package offline

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tillworks/till/internal/cart"
)

// QueuedSale is one deferred checkout. Payload holds the exact bytes that
// would have been POSTed online - the reconciliation contract is
// byte-for-byte replay, so the payload is captured verbatim and never
// mutated in place.
type QueuedSale struct {
	ID         string          `json:"id"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Store is the durable backing for the queue. Append and remove are
// whole-item operations keyed by id. Implemented by store.Store and
// MemoryStore.
type Store interface {
	AppendSale(QueuedSale) error
	ListSales() ([]QueuedSale, error)
	RemoveSale(id string) error
}

// Queue appends deferred sales and exposes them to the reconciliation
// collaborator. It never replays anything itself.
type Queue struct {
	store Store
	clock cart.Clock
}

// NewQueue constructs a queue. A nil clock defaults to the system clock.
func NewQueue(store Store, clock cart.Clock) *Queue {
	if clock == nil {
		clock = cart.SystemClock{}
	}
	return &Queue{store: store, clock: clock}
}

// Enqueue captures a sale payload verbatim under a fresh UUIDv7 id.
func (q *Queue) Enqueue(payload []byte) (QueuedSale, error) {
	captured := make([]byte, len(payload))
	copy(captured, payload)
	s := QueuedSale{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Payload:    captured,
		EnqueuedAt: q.clock.Now(),
	}
	if err := q.store.AppendSale(s); err != nil {
		return QueuedSale{}, fmt.Errorf("enqueue sale: %w", err)
	}
	return s, nil
}

// List returns queued sales in enqueue order (UUIDv7 ids sort by time).
func (q *Queue) List() ([]QueuedSale, error) {
	ss, err := q.store.ListSales()
	if err != nil {
		return nil, fmt.Errorf("list queued sales: %w", err)
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].ID < ss[j].ID })
	return ss, nil
}

// Remove deletes a queued sale after the reconciliation collaborator has
// replayed it successfully.
func (q *Queue) Remove(id string) error {
	if err := q.store.RemoveSale(id); err != nil {
		return fmt.Errorf("remove queued sale: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests and headless tools.
type MemoryStore struct {
	mu    sync.Mutex
	sales map[string]QueuedSale
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sales: make(map[string]QueuedSale)}
}

// AppendSale stores a queued sale.
func (m *MemoryStore) AppendSale(s QueuedSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[s.ID] = s
	return nil
}

// ListSales returns all queued sales in unspecified order.
func (m *MemoryStore) ListSales() ([]QueuedSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]QueuedSale, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, s)
	}
	return out, nil
}

// RemoveSale deletes a queued sale by id. Absent ids are a no-op.
func (m *MemoryStore) RemoveSale(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sales, id)
	return nil
}
