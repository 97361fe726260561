// Package store provides SQLite-backed durable storage for the register:
// the persisted active cart, parked carts, and the offline sale queue.
// It implements recovery.KV, held.Store, and offline.Store.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tillworks/till/internal/held"
	"github.com/tillworks/till/internal/offline"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a SQLite database. A register is a single process with a
// single writer, so the pool is pinned to one connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies pragmas and the
// schema. Idempotent - safe to call on an existing database.
//
// WAL mode keeps reads (CLI inspection, reconciliation listing) from
// blocking behind mutation writes; NORMAL synchronous balances durability
// against per-mutation write latency.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get reads a kv record. The second return is false when the key is absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a kv record.
func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// PutHeld stores a parked cart. Duplicate ids are silently ignored: ids are
// UUIDv7, so a duplicate insert can only be a replayed write of the same cart.
func (s *Store) PutHeld(h held.HeldCart) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode held cart: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO held_carts (id, name, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, h.ID, h.Name, payload, h.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put held cart: %w", err)
	}
	return nil
}

// GetHeld looks up a parked cart by id.
func (s *Store) GetHeld(id string) (held.HeldCart, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM held_carts WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return held.HeldCart{}, false, nil
	}
	if err != nil {
		return held.HeldCart{}, false, fmt.Errorf("get held cart: %w", err)
	}
	var h held.HeldCart
	if err := json.Unmarshal(payload, &h); err != nil {
		return held.HeldCart{}, false, fmt.Errorf("decode held cart: %w", err)
	}
	return h, true, nil
}

// DeleteHeld removes a parked cart. Absent ids are a no-op.
func (s *Store) DeleteHeld(id string) error {
	if _, err := s.db.Exec(`DELETE FROM held_carts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete held cart: %w", err)
	}
	return nil
}

// ListHeld returns all parked carts in id order.
func (s *Store) ListHeld() ([]held.HeldCart, error) {
	rows, err := s.db.Query(`SELECT payload FROM held_carts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list held carts: %w", err)
	}
	defer rows.Close()

	var out []held.HeldCart
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan held cart: %w", err)
		}
		var h held.HeldCart
		if err := json.Unmarshal(payload, &h); err != nil {
			return nil, fmt.Errorf("decode held cart: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// AppendSale stores a queued offline sale. Duplicate ids are silently
// ignored so a replayed append is idempotent.
func (s *Store) AppendSale(q offline.QueuedSale) error {
	_, err := s.db.Exec(`
		INSERT INTO queued_sales (id, payload, enqueued_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, q.ID, []byte(q.Payload), q.EnqueuedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append queued sale: %w", err)
	}
	return nil
}

// ListSales returns queued sales in id (enqueue) order.
func (s *Store) ListSales() ([]offline.QueuedSale, error) {
	rows, err := s.db.Query(`SELECT id, payload, enqueued_at FROM queued_sales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list queued sales: %w", err)
	}
	defer rows.Close()

	var out []offline.QueuedSale
	for rows.Next() {
		var (
			q          offline.QueuedSale
			payload    []byte
			enqueuedAt string
		)
		if err := rows.Scan(&q.ID, &payload, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("scan queued sale: %w", err)
		}
		q.Payload = payload
		if t, err := time.Parse(time.RFC3339Nano, enqueuedAt); err == nil {
			q.EnqueuedAt = t
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RemoveSale deletes a queued sale after reconciliation. Absent ids are a no-op.
func (s *Store) RemoveSale(id string) error {
	if _, err := s.db.Exec(`DELETE FROM queued_sales WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove queued sale: %w", err)
	}
	return nil
}
