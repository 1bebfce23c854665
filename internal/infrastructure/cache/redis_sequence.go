package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/traitedesk/backend/internal/infrastructure/config"
)

const defaultSequencePrefix = "traites:seq:"

// RedisSequence issues counter values with INCR. Redis executes INCR
// atomically, so every caller across every instance gets a distinct value.
type RedisSequence struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisSequence creates a sequence over an existing client
func NewRedisSequence(client *redis.Client, prefix string) *RedisSequence {
	if prefix == "" {
		prefix = defaultSequencePrefix
	}
	return &RedisSequence{client: client, prefix: prefix}
}

// Next increments the named counter and returns the new value
func (s *RedisSequence) Next(ctx context.Context, name string) (int64, error) {
	v, err := s.client.Incr(ctx, s.prefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("incr sequence %q: %w", name, err)
	}
	return v, nil
}

// Seed sets the counter only when it does not exist yet, so a fresh Redis
// continues from the value already issued by the database
func (s *RedisSequence) Seed(ctx context.Context, name string, value int64) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+name, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("seed sequence %q: %w", name, err)
	}
	return ok, nil
}
