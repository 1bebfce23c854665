package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SequenceFactory chooses the numbering backend from configuration
type SequenceFactory struct {
	redisConfig config.RedisConfig
	fallback    traite.SequenceGenerator
	logger      *zap.Logger
}

// SequenceFactoryOption is a functional option for configuring the factory
type SequenceFactoryOption func(*SequenceFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SequenceFactoryOption {
	return func(f *SequenceFactory) {
		f.logger = logger
	}
}

// NewSequenceFactory creates a factory that falls back to the given generator
func NewSequenceFactory(cfg config.RedisConfig, fallback traite.SequenceGenerator, opts ...SequenceFactoryOption) *SequenceFactory {
	f := &SequenceFactory{
		redisConfig: cfg,
		fallback:    fallback,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the Redis sequence when Redis is enabled and reachable, and
// the fallback otherwise. The returned client is nil on fallback; the caller
// owns closing it.
func (f *SequenceFactory) Create(ctx context.Context) (traite.SequenceGenerator, *redis.Client) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using database sequence")
		return f.fallback, nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		f.logger.Warn("Redis unavailable, falling back to database sequence",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return f.fallback, nil
	}

	f.logger.Info("Using Redis sequence", zap.String("addr", f.redisConfig.Addr()))
	return NewRedisSequence(client, ""), client
}
