package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"imagegate-service/internal/config"
	"imagegate-service/internal/model"
	"imagegate-service/internal/window"
)

// CounterStore is the remote atomic counter abstraction the engine runs on.
// Implementations must guarantee linearizable increment and conditional-set
// across all processes; the engine itself holds no state.
type CounterStore interface {
	// Increment atomically increments key by 1, creating it at 1 with the
	// TTL attached only on the creation transition. Returns the
	// post-increment value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// SetIfAbsent sets key with TTL if and only if it does not exist;
	// reports whether this caller acquired the window.
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const (
	cooldownPrefix = "cd:"
	minutePrefix   = "rl:min:"
	quotaPrefix    = "quota:2k:"

	// Window TTLs run longer than their nominal windows to absorb clock and
	// creation skew at bucket boundaries. A counter can therefore span
	// slightly more than its nominal window under adversarial timing; that
	// is an accepted approximation.
	minuteWindowTTL = 70 * time.Second
	dailyWindowTTL  = 26 * time.Hour
)

// AdmissionService runs the three limiting stages in strict order:
// cooldown, per-minute rate limit, per-day quota. The first failing stage
// ends the request; each stage's store mutation happens as soon as the stage
// is reached, so a rejected request still consumes the earlier windows.
type AdmissionService struct {
	store  CounterStore
	clock  window.Clock
	limits config.LimitsConfig
	logger *zap.Logger
}

func NewAdmissionService(store CounterStore, clock window.Clock, limits config.LimitsConfig, logger *zap.Logger) *AdmissionService {
	if clock == nil {
		clock = window.SystemClock()
	}
	return &AdmissionService{
		store:  store,
		clock:  clock,
		limits: limits,
		logger: logger,
	}
}

// Check evaluates clientID against all three policies. A store failure is
// returned as an error, never folded into an admit or reject decision.
func (s *AdmissionService) Check(ctx context.Context, clientID string) (*model.Decision, error) {
	// Stage 1: cooldown. Exactly one caller per window can acquire the flag.
	acquired, err := s.store.SetIfAbsent(ctx, cooldownPrefix+clientID, s.limits.Cooldown)
	if err != nil {
		return nil, fmt.Errorf("cooldown stage: %w", err)
	}
	if !acquired {
		s.logger.Debug("request rejected by cooldown", zap.String("client_id", clientID))
		return &model.Decision{Reason: model.ReasonTooFast}, nil
	}

	now := s.clock.Now()

	// Stage 2: per-minute rate limit.
	minuteKey := minutePrefix + clientID + ":" + window.MinuteBucket(now)
	count, err := s.store.Increment(ctx, minuteKey, minuteWindowTTL)
	if err != nil {
		return nil, fmt.Errorf("rate limit stage: %w", err)
	}
	if count > s.limits.PerMinuteLimit {
		s.logger.Debug("request rejected by rate limit",
			zap.String("client_id", clientID),
			zap.Int64("count", count))
		return &model.Decision{Reason: model.ReasonRateLimited}, nil
	}

	// Stage 3: daily quota. The increment lands before the check, so the
	// request that trips the limit is still counted as used for the day.
	quotaKey := quotaPrefix + clientID + ":" + window.DayBucket(now)
	used, err := s.store.Increment(ctx, quotaKey, dailyWindowTTL)
	if err != nil {
		return nil, fmt.Errorf("quota stage: %w", err)
	}
	if used > s.limits.DailyLimit {
		s.logger.Info("daily quota exhausted",
			zap.String("client_id", clientID),
			zap.Int64("used", used))
		return &model.Decision{Reason: model.ReasonQuotaExceeded, UsedToday: used}, nil
	}

	remaining := s.limits.DailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return &model.Decision{
		Allowed:        true,
		UsedToday:      used,
		RemainingToday: remaining,
	}, nil
}

// ClampOutputCount bounds the requested output count to what the free tier
// generates, regardless of what the client asked for.
func ClampOutputCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > 2 {
		return 2
	}
	return n
}
