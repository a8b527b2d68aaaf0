// Package memory provides an in-process CounterStore with the same atomicity
// and TTL-on-creation semantics as the Redis-backed one. Used by tests and
// local development.
package memory

import (
	"context"
	"sync"
	"time"

	"imagegate-service/internal/window"
)

type entry struct {
	value     int64
	expiresAt time.Time
}

type CounterStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   window.Clock
}

// NewCounterStore creates an in-memory store. A nil clock falls back to the
// system clock.
func NewCounterStore(clock window.Clock) *CounterStore {
	if clock == nil {
		clock = window.SystemClock()
	}
	return &CounterStore{
		entries: make(map[string]*entry),
		clock:   clock,
	}
}

func (s *CounterStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key, now)
	if e == nil {
		s.entries[key] = &entry{value: 1, expiresAt: now.Add(ttl)}
		return 1, nil
	}

	e.value++
	return e.value, nil
}

func (s *CounterStore) SetIfAbsent(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(key, now) != nil {
		return false, nil
	}

	s.entries[key] = &entry{value: 1, expiresAt: now.Add(ttl)}
	return true, nil
}

// Peek returns the live value for key, for diagnostics and tests.
func (s *CounterStore) Peek(key string) (int64, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key, now)
	if e == nil {
		return 0, false
	}
	return e.value, true
}

// live returns the entry for key, lazily evicting it when expired.
// Caller must hold s.mu.
func (s *CounterStore) live(key string, now time.Time) *entry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if now.After(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}
