package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestIncrementSequenceAndReset(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewCounterStore(clock)

	for want := int64(1); want <= 3; want++ {
		got, err := store.Increment(ctx, "k", 70*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// past the TTL the counter starts over
	clock.Advance(71 * time.Second)
	got, err := store.Increment(ctx, "k", 70*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestExpiryAttachedOnlyOnCreation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewCounterStore(clock)

	_, err := store.Increment(ctx, "k", 10*time.Second)
	require.NoError(t, err)

	// later increments must not extend the window
	clock.Advance(8 * time.Second)
	_, err = store.Increment(ctx, "k", 10*time.Second)
	require.NoError(t, err)

	clock.Advance(3 * time.Second) // 11s after creation
	got, err := store.Increment(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSetIfAbsentWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewCounterStore(clock)

	acquired, err := store.SetIfAbsent(ctx, "cd", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)

	for i := 0; i < 3; i++ {
		acquired, err = store.SetIfAbsent(ctx, "cd", 10*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired)
	}

	clock.Advance(11 * time.Second)
	acquired, err = store.SetIfAbsent(ctx, "cd", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestSetIfAbsentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewCounterStore(nil)

	const callers = 64
	var wg sync.WaitGroup
	var wins int64
	var mu sync.Mutex

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := store.SetIfAbsent(ctx, "cd", time.Minute)
			assert.NoError(t, err)
			if acquired {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestPeek(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewCounterStore(clock)

	_, ok := store.Peek("k")
	assert.False(t, ok)

	_, err := store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)

	value, ok := store.Peek("k")
	assert.True(t, ok)
	assert.Equal(t, int64(2), value)

	clock.Advance(2 * time.Minute)
	_, ok = store.Peek("k")
	assert.False(t, ok)
}
