package tier

import (
	"context"

	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// base holds the collaborators shared by the tier services
type base struct {
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	accounts *tier.AccountNumberGenerator
}

func newBase(opts []Option) base {
	b := base{
		logger:   zap.NewNop(),
		accounts: tier.NewAccountNumberGenerator(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Option configures the tier services
type Option func(*base)

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) Option {
	return func(b *base) { b.logger = l }
}

// WithMetrics records approvals and imports
func WithMetrics(m *telemetry.Metrics) Option {
	return func(b *base) { b.metrics = m }
}

// WithAccountNumbers replaces the numero_compte generator
func WithAccountNumbers(g *tier.AccountNumberGenerator) Option {
	return func(b *base) { b.accounts = g }
}

func (b *base) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, b.logger)
}

// recordActivity appends an activity row. Failures are logged, never returned.
func (b *base) recordActivity(ctx context.Context, activities tier.ActivityRepository, a *tier.TierActivity) {
	if a == nil || activities == nil {
		return
	}
	if err := activities.Append(ctx, a); err != nil {
		b.log(ctx).Warn("Failed to record tier activity",
			zap.Int64("tier_id", a.TierID),
			zap.String("action", string(a.Action)),
			zap.Error(err),
		)
	}
}
