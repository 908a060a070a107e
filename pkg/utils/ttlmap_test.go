package utils_test

import (
	"sync"
	"testing"
	"time"

	"github.com/robalyx/scamguard/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestTTLMap(t *testing.T) {
	t.Parallel()

	t.Run("basic set and get", func(t *testing.T) {
		t.Parallel()

		m := utils.NewTTLMap[string, int](time.Minute)
		t.Cleanup(m.Stop)

		m.Set("test1", 123)
		value, exists := m.Get("test1")
		assert.True(t, exists)
		assert.Equal(t, 123, value)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		m := utils.NewTTLMap[string, int](time.Minute)
		t.Cleanup(m.Stop)

		m.Set("test3", 789)
		m.Delete("test3")
		_, exists := m.Get("test3")
		assert.False(t, exists)
	})

	t.Run("update existing key", func(t *testing.T) {
		t.Parallel()

		m := utils.NewTTLMap[uint64, string](time.Minute)
		t.Cleanup(m.Stop)

		m.Set(1, "scam-reports")
		m.Set(1, "mod-log")
		value, exists := m.Get(1)
		assert.True(t, exists)
		assert.Equal(t, "mod-log", value)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		t.Parallel()

		m := utils.NewTTLMap[string, int](time.Millisecond)
		m.Stop()
		m.Stop()
	})
}

func TestTTLMapExpiry(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	m := utils.NewTTLMapWithClock[string, int](time.Minute, clock)
	m.Set("a", 1)
	advance(30 * time.Second)
	m.Set("b", 2)

	advance(45 * time.Second)

	_, exists := m.Get("a")
	assert.False(t, exists)

	value, exists := m.Get("b")
	assert.True(t, exists)
	assert.Equal(t, 2, value)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestTTLMapConcurrent(t *testing.T) {
	t.Parallel()

	m := utils.NewTTLMap[string, int](time.Minute)
	t.Cleanup(m.Stop)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for i := range 100 {
				m.Set("key", i)
			}
		}()

		go func() {
			defer wg.Done()
			for range 100 {
				m.Get("key")
			}
		}()
	}
	wg.Wait()

	_, exists := m.Get("key")
	assert.True(t, exists)
}
