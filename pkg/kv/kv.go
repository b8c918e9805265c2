// Package kv provides a small key/value abstraction with per-key expiry and a
// thread-safe in-memory implementation. Callers depend on Store so the backing
// can be swapped for an external cache without touching them.
package kv

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Store is a key/value store whose entries may expire.
type Store[T any] interface {
	// Get returns the value for key if present and not expired.
	Get(key string) (T, bool)
	// Set stores value under key. A ttl of zero means the entry never expires.
	Set(key string, value T, ttl time.Duration)
	// Expire removes key immediately. Returns true if it existed.
	Expire(key string) bool
}

type entry[T any] struct {
	Value     T         `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Memory is an in-memory Store that also keeps insertion order for deterministic listing.
type Memory[T any] struct {
	mu      sync.RWMutex
	items   map[string]entry[T]
	order   []string
	prefix  string
	counter atomic.Uint64
	now     func() time.Time
}

var _ Store[int] = (*Memory[int])(nil)

// NewMemory creates an empty Memory store. The prefix is used by NextID.
func NewMemory[T any](prefix string) *Memory[T] {
	return &Memory[T]{
		items:  make(map[string]entry[T]),
		order:  make([]string, 0),
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (m *Memory[T]) WithClock(now func() time.Time) *Memory[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// NextID generates an id of the form "{prefix}_{counter}", e.g. "flwtx_000001".
func (m *Memory[T]) NextID() string {
	n := m.counter.Add(1)
	return fmt.Sprintf("%s_%06d", m.prefix, n)
}

// Get returns the value for key if present and not expired. Expired entries are evicted lazily.
func (m *Memory[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	now := m.now()
	m.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if e.expired(now) {
		m.Expire(key)
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key, keeping its position in insertion order if it already exists.
func (m *Memory[T]) Set(key string, value T, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry[T]{Value: value}
	if ttl > 0 {
		e.ExpiresAt = m.now().Add(ttl)
	}
	if _, exists := m.items[key]; !exists {
		m.order = append(m.order, key)
	}
	m.items[key] = e
}

// Expire removes key. Returns true if it existed.
func (m *Memory[T]) Expire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; !exists {
		return false
	}
	delete(m.items, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all live values in insertion order.
func (m *Memory[T]) List() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	out := make([]T, 0, len(m.order))
	for _, k := range m.order {
		if e := m.items[k]; !e.expired(now) {
			out = append(out, e.Value)
		}
	}
	return out
}

// Filter returns live values matching predicate, in insertion order.
func (m *Memory[T]) Filter(predicate func(key string, value T) bool) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	var out []T
	for _, k := range m.order {
		e := m.items[k]
		if !e.expired(now) && predicate(k, e.Value) {
			out = append(out, e.Value)
		}
	}
	return out
}

// Len returns the number of stored entries, expired ones included until evicted.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Reset clears all entries and the id counter.
func (m *Memory[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]entry[T])
	m.order = make([]string, 0)
	m.counter.Store(0)
}

// Snapshot returns all live values keyed by key.
func (m *Memory[T]) Snapshot() map[string]T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	out := make(map[string]T, len(m.items))
	for k, e := range m.items {
		if !e.expired(now) {
			out[k] = e.Value
		}
	}
	return out
}

// LoadSnapshot replaces all entries with non-expiring values. Keys are sorted
// to keep listing deterministic.
func (m *Memory[T]) LoadSnapshot(snapshot map[string]T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]entry[T], len(snapshot))
	m.order = make([]string, 0, len(snapshot))
	for k, v := range snapshot {
		m.items[k] = entry[T]{Value: v}
		m.order = append(m.order, k)
	}
	sort.Strings(m.order)
}

// MarshalJSON serializes the live values.
func (m *Memory[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// UnmarshalJSON replaces the store contents from a JSON object.
func (m *Memory[T]) UnmarshalJSON(data []byte) error {
	var snapshot map[string]T
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	m.LoadSnapshot(snapshot)
	return nil
}
