package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imagegate-service/internal/config"
	"imagegate-service/internal/model"
	"imagegate-service/internal/repository/memory"
	"imagegate-service/internal/window"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	// start of a fresh UTC minute, well away from midnight
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

func newTestService(t *testing.T, daily, perMinute int64, cooldown time.Duration) (*AdmissionService, *memory.CounterStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := memory.NewCounterStore(clock)
	limits := config.LimitsConfig{
		DailyLimit:     daily,
		PerMinuteLimit: perMinute,
		Cooldown:       cooldown,
	}
	return NewAdmissionService(store, clock, limits, zap.NewNop()), store, clock
}

func TestDailyQuotaSequence(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t, 3, 10, 10*time.Second)

	// requests 1-3 are admitted with remaining 2, 1, 0
	for i, wantRemaining := range []int64{2, 1, 0} {
		decision, err := svc.Check(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d", i+1)
		assert.Equal(t, int64(i+1), decision.UsedToday)
		assert.Equal(t, wantRemaining, decision.RemainingToday)

		clock.Advance(11 * time.Second) // clear the cooldown, stay within the minute comfortably
	}

	// request 4 is rejected but still counted
	decision, err := svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, model.ReasonQuotaExceeded, decision.Reason)

	used, ok := store.Peek("quota:2k:1.2.3.4:" + window.DayBucket(clock.Now()))
	require.True(t, ok)
	assert.Equal(t, int64(4), used)
}

func TestCooldownShortCircuits(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t, 3, 10, 10*time.Second)

	first, err := svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	// second request inside the cooldown window
	second, err := svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, model.ReasonTooFast, second.Reason)

	// the rejected request never reached the later stages
	now := clock.Now()
	minuteCount, ok := store.Peek("rl:min:1.2.3.4:" + window.MinuteBucket(now))
	require.True(t, ok)
	assert.Equal(t, int64(1), minuteCount)

	used, ok := store.Peek("quota:2k:1.2.3.4:" + window.DayBucket(now))
	require.True(t, ok)
	assert.Equal(t, int64(1), used)
}

func TestRateLimitTripsBeforeQuota(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t, 100, 2, time.Second)

	for i := 0; i < 2; i++ {
		decision, err := svc.Check(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		clock.Advance(2 * time.Second)
	}

	decision, err := svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, model.ReasonRateLimited, decision.Reason)

	// the rate-limited request consumed no quota
	used, ok := store.Peek("quota:2k:1.2.3.4:" + window.DayBucket(clock.Now()))
	require.True(t, ok)
	assert.Equal(t, int64(2), used)
}

func TestMinuteWindowRollsOver(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t, 100, 1, time.Second)

	decision, err := svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	clock.Advance(2 * time.Second)
	decision, err = svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonRateLimited, decision.Reason)

	// a new minute bucket starts a fresh count
	clock.Advance(2 * time.Minute)
	decision, err = svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestIdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, 3, 10, 10*time.Second)

	first, err := svc.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	other, err := svc.Check(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, int64(1), other.UsedToday)
}

type failingStore struct {
	err error
}

func (s failingStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, s.err
}

func (s failingStore) SetIfAbsent(context.Context, string, time.Duration) (bool, error) {
	return false, s.err
}

func TestStoreFailureSurfacesAsError(t *testing.T) {
	ctx := context.Background()
	storeErr := fmt.Errorf("%w: setnx cd:1.2.3.4: connection refused", model.ErrStoreUnavailable)
	svc := NewAdmissionService(failingStore{err: storeErr}, newFakeClock(), config.LimitsConfig{
		DailyLimit:     3,
		PerMinuteLimit: 10,
		Cooldown:       10 * time.Second,
	}, zap.NewNop())

	decision, err := svc.Check(ctx, "1.2.3.4")
	require.Error(t, err)
	assert.Nil(t, decision)
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
}

func TestClampOutputCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{5, 2},
		{-3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampOutputCount(tt.in))
	}
}
