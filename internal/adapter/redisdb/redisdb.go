package redisdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Option func(*redis.Options)

func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

func NewClient(addr string, opts ...Option) *redis.Client {
	o := &redis.Options{Addr: addr}
	for _, opt := range opts {
		opt(o)
	}
	return redis.NewClient(o)
}

func Ping(ctx context.Context, cl *redis.Client) error {
	const op = "redisdb.Ping"
	if err := cl.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	slog.Info("redis is available", "op", op)
	return nil
}

func Close(cl *redis.Client) {
	const op = "redisdb.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")
	if err := cl.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}
