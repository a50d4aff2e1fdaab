package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginMetricsPrefix    = "metrics:logins:"
	loginMetricsRetention = 30 * 24 * time.Hour
)

// LoginMetrics holds the per-day login counters.
type LoginMetrics struct {
	Date     string `json:"date"`
	Granted  int64  `json:"granted"`
	Rejected int64  `json:"rejected"`
}

// MetricsService keeps coarse login telemetry in Redis: one counter per
// day and outcome, expiring after the retention window. It is glue for
// the admin dashboard, not part of the authentication decision.
type MetricsService struct {
	redis RedisCounter
}

func NewMetricsService(redis RedisCounter) *MetricsService {
	return &MetricsService{redis: redis}
}

// RecordLogin bumps today's granted or rejected counter.
func (s *MetricsService) RecordLogin(ctx context.Context, granted bool) error {
	key := loginMetricsKey(granted, time.Now().UTC())
	if err := s.redis.Incr(ctx, key).Err(); err != nil {
		return err
	}
	// Refreshing the TTL on every hit keeps the key alive exactly one
	// retention window past its last update.
	return s.redis.Expire(ctx, key, loginMetricsRetention).Err()
}

// Recent returns counters for the last days days, most recent first.
// Days with no recorded logins come back as zeros.
func (s *MetricsService) Recent(ctx context.Context, days int) ([]LoginMetrics, error) {
	if days <= 0 {
		return nil, errors.New("days must be positive")
	}
	now := time.Now().UTC()
	out := make([]LoginMetrics, 0, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -i)
		granted, err := s.counter(ctx, loginMetricsKey(true, day))
		if err != nil {
			return nil, err
		}
		rejected, err := s.counter(ctx, loginMetricsKey(false, day))
		if err != nil {
			return nil, err
		}
		out = append(out, LoginMetrics{
			Date:     day.Format("2006-01-02"),
			Granted:  granted,
			Rejected: rejected,
		})
	}
	return out, nil
}

func (s *MetricsService) counter(ctx context.Context, key string) (int64, error) {
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", key, err)
	}
	return n, nil
}

func loginMetricsKey(granted bool, day time.Time) string {
	outcome := "rejected"
	if granted {
		outcome = "granted"
	}
	return loginMetricsPrefix + outcome + ":" + day.Format("2006-01-02")
}
