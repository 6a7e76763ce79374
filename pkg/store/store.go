// Package store persists the application collections as JSON documents
// under well-known keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Collection keys.
const (
	KeyStudents     = "students"
	KeyClasses      = "classes"
	KeyTransactions = "transactions"
	KeyReceipts     = "receipts"
	KeyPayments     = "payments"
	KeyInvoices     = "invoices"
	KeyCurrentUser  = "currentUser"
)

// Keys lists every collection key in load order.
var Keys = []string{
	KeyStudents,
	KeyClasses,
	KeyTransactions,
	KeyReceipts,
	KeyPayments,
	KeyInvoices,
	KeyCurrentUser,
}

// ErrUnknownKey is returned for a key outside Keys.
var ErrUnknownKey = errors.New("unknown collection key")

// Store reads and writes JSON-serializable collections.
type Store interface {
	// Load decodes the value stored under key into v. It reports false when
	// nothing is stored under key.
	Load(ctx context.Context, key string, v any) (bool, error)
	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, v any) error
	Close() error
}

// ValidKey reports whether key is a collection key.
func ValidKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Memory is an in-process Store. Values are kept encoded so that callers
// never share memory with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, key string, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !ValidKey(key) {
		return false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	m.mu.Lock()
	m.data[key] = data
	m.mu.Unlock()
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
