package utils

import (
	"sync"
	"time"
)

// TTLMap provides a thread-safe map with expiring entries.
type TTLMap[K comparable, V any] struct {
	mu      sync.RWMutex
	data    map[K]V
	expires map[K]time.Time
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewTTLMap creates a new TTLMap with the specified TTL duration.
// Expired entries are removed in the background until Stop is called.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	m := newTTLMap[K, V](ttl, time.Now)
	go m.cleanup()

	return m
}

// NewTTLMapWithClock creates a TTLMap that reads the time from now and has
// no background cleanup. Expired entries are dropped by Sweep.
func NewTTLMapWithClock[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLMap[K, V] {
	return newTTLMap[K, V](ttl, now)
}

func newTTLMap[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLMap[K, V] {
	return &TTLMap[K, V]{
		data:    make(map[K]V),
		expires: make(map[K]time.Time),
		ttl:     ttl,
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Get retrieves a value from the map.
// Returns the value and whether it exists/is valid.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists || m.now().After(m.expires[key]) {
		var zero V
		return zero, false
	}

	return value, true
}

// Set adds or updates a value in the map.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	m.expires[key] = m.now().Add(m.ttl)
}

// Delete removes a key from the map.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.expires, key)
}

// Len returns the number of stored entries, expired or not.
func (m *TTLMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Sweep removes expired entries and returns how many were removed.
func (m *TTLMap[K, V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for key, expires := range m.expires {
		if now.After(expires) {
			delete(m.data, key)
			delete(m.expires, key)
			removed++
		}
	}

	return removed
}

// Stop ends the background cleanup. It is safe to call more than once.
func (m *TTLMap[K, V]) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// cleanup periodically removes expired entries.
func (m *TTLMap[K, V]) cleanup() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}
