package redisdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/redis/go-redis/v9"
)

var _ port.SnapshotStorage = (*SnapshotStorage)(nil)

const (
	defaultSnapshotTTL = 30 * 24 * time.Hour
	defaultWriteTries  = 3
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type SnapshotOpt func(*SnapshotStorage)

// TTLOpt sets the expiration of written snapshots. Zero keeps them forever.
func TTLOpt(ttl time.Duration) SnapshotOpt {
	return func(s *SnapshotStorage) {
		s.ttl = ttl
	}
}

func RetryOpt(c retry.RetryConfig) SnapshotOpt {
	return func(s *SnapshotStorage) {
		s.retry = c
	}
}

// A SnapshotStorage keeps serialized carts as redis strings.
type SnapshotStorage struct {
	cl    redisClient
	ttl   time.Duration
	retry retry.RetryConfig
}

func NewSnapshotStorage(cl redisClient, opts ...SnapshotOpt) SnapshotStorage {
	s := SnapshotStorage{
		cl:  cl,
		ttl: defaultSnapshotTTL,
		retry: retry.RetryConfig{
			MaxAttempts: defaultWriteTries,
			Backoff:     retry.ExponentialBackoff(20 * time.Millisecond),
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.retry.ShouldRetry = isTransient
	return s
}

func (s SnapshotStorage) Get(
	ctx context.Context, key string,
) (string, bool, error) {
	const op = "SnapshotStorage.Get"

	v, err := s.cl.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

func (s SnapshotStorage) Set(ctx context.Context, key, value string) error {
	const op = "SnapshotStorage.Set"

	err := retry.Do(ctx, s.retry, func() error {
		return s.cl.Set(ctx, key, value, s.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isTransient(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
