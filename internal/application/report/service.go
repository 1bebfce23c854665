// Package report aggregates the dashboard statistics.
package report

import (
	"context"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// StatsReader runs the aggregate queries behind the dashboards
type StatsReader interface {
	CountTraites(ctx context.Context) (int64, error)
	CountTraitesEmitted(ctx context.Context, from, to time.Time) (int64, error)
	SumTraiteMontant(ctx context.Context) (int64, error)
	TraiteStatusCounts(ctx context.Context, today time.Time) ([]shared.LabelCount, error)
	TraiteEmissionDates(ctx context.Context, since time.Time) ([]time.Time, error)
	CountTiers(ctx context.Context) (int64, error)
	TierCategoryCounts(ctx context.Context) ([]shared.LabelCount, error)
	CountAccountsOpened(ctx context.Context, from, to time.Time) (int64, error)
	AccountOpeningDates(ctx context.Context, since time.Time) ([]time.Time, error)
}

var statusColors = map[string]string{
	string(traite.StatusNonEchu): "#4e73df",
	string(traite.StatusEchu):    "#f6c23e",
	string(traite.StatusImpaye):  "#e74a3b",
	string(traite.StatusRejete):  "#858796",
	string(traite.StatusPaye):    "#1cc88a",
	LabelOther:                   "#d1d3e2",
}

// Service builds dashboard payloads. It never returns an error: a failed
// query yields a zeroed payload whose Error field carries the reason.
type Service struct {
	stats  StatsReader
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a report Service
func NewService(stats StatsReader, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{stats: stats, logger: l, now: time.Now}
}

// TraiteStats returns the traite dashboard
func (s *Service) TraiteStats(ctx context.Context) TraiteStats {
	w := newWindow(s.now())
	out, err := s.traiteStats(ctx, w)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Error("Traite statistics failed", zap.Error(err))
		return TraiteStats{
			TotalMontantFormate: traite.FormatAmount(0),
			Monthly:             w.series(nil),
			ByStatus:            statusBreakdown(nil),
			Error:               err.Error(),
		}
	}
	return out
}

func (s *Service) traiteStats(ctx context.Context, w window) (TraiteStats, error) {
	var out TraiteStats
	var err error

	if out.Total, err = s.stats.CountTraites(ctx); err != nil {
		return out, err
	}
	if out.Today, err = s.stats.CountTraitesEmitted(ctx, w.today, w.tomorrow); err != nil {
		return out, err
	}
	if out.ThisMonth, err = s.stats.CountTraitesEmitted(ctx, w.monthStart, w.nextMonth); err != nil {
		return out, err
	}
	if out.TotalMontant, err = s.stats.SumTraiteMontant(ctx); err != nil {
		return out, err
	}
	out.TotalMontantFormate = traite.FormatAmount(out.TotalMontant)

	counts, err := s.stats.TraiteStatusCounts(ctx, w.today)
	if err != nil {
		return out, err
	}
	out.ByStatus = statusBreakdown(counts)
	echuKey := traite.NormalizeStatusLabel(string(traite.StatusEchu))
	for _, c := range counts {
		if traite.NormalizeStatusLabel(c.Label) == echuKey {
			out.Echu += c.Total
		}
	}

	dates, err := s.stats.TraiteEmissionDates(ctx, w.seriesStart)
	if err != nil {
		return out, err
	}
	out.Monthly = w.series(dates)
	return out, nil
}

// ClientStats returns the client dashboard
func (s *Service) ClientStats(ctx context.Context) ClientStats {
	w := newWindow(s.now())
	out, err := s.clientStats(ctx, w)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Error("Client statistics failed", zap.Error(err))
		return ClientStats{
			Monthly:    w.series(nil),
			ByCategory: categoryBreakdown(nil),
			Error:      err.Error(),
		}
	}
	return out
}

func (s *Service) clientStats(ctx context.Context, w window) (ClientStats, error) {
	var out ClientStats
	var err error

	if out.Total, err = s.stats.CountTiers(ctx); err != nil {
		return out, err
	}
	if out.NewToday, err = s.stats.CountAccountsOpened(ctx, w.today, w.tomorrow); err != nil {
		return out, err
	}
	if out.NewThisMonth, err = s.stats.CountAccountsOpened(ctx, w.monthStart, w.nextMonth); err != nil {
		return out, err
	}

	counts, err := s.stats.TierCategoryCounts(ctx)
	if err != nil {
		return out, err
	}
	out.ByCategory = categoryBreakdown(counts)

	dates, err := s.stats.AccountOpeningDates(ctx, w.seriesStart)
	if err != nil {
		return out, err
	}
	out.Monthly = w.series(dates)
	return out, nil
}

// statusBreakdown maps stored labels onto the canonical statuses, in
// business order, followed by Autres. Every bucket is present.
func statusBreakdown(counts []shared.LabelCount) []Breakdown {
	byStatus := make(map[string]int64)
	for _, c := range counts {
		label := LabelOther
		if s, ok := traite.ParseStatus(c.Label); ok {
			label = string(s)
		}
		byStatus[label] += c.Total
	}

	out := make([]Breakdown, 0, len(traite.AllStatuses())+1)
	for _, s := range traite.AllStatuses() {
		out = append(out, Breakdown{Label: string(s), Count: byStatus[string(s)], Color: statusColors[string(s)]})
	}
	return append(out, Breakdown{Label: LabelOther, Count: byStatus[LabelOther], Color: statusColors[LabelOther]})
}

// categoryBreakdown lists every fixed category in palette order, zero-filled.
// Unknown categories count as Autres.
func categoryBreakdown(counts []shared.LabelCount) []Breakdown {
	byCategory := make(map[string]int64)
	for _, c := range counts {
		label := c.Label
		if !tier.IsValidCategory(label) {
			label = tier.CategoryAutres
		}
		byCategory[label] += c.Total
	}

	categories := tier.Categories()
	out := make([]Breakdown, 0, len(categories))
	for _, c := range categories {
		out = append(out, Breakdown{Label: c, Count: byCategory[c], Color: tier.CategoryColor(c)})
	}
	return out
}
