package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

type fakeStats struct {
	traites    int64
	emitted    map[time.Time]int64
	montant    int64
	statuses   []shared.LabelCount
	emissions  []time.Time
	tiers      int64
	categories []shared.LabelCount
	opened     map[time.Time]int64
	openings   []time.Time
	err        error
	since      time.Time
	statusDay  time.Time
}

func (f *fakeStats) CountTraites(ctx context.Context) (int64, error) { return f.traites, nil }

func (f *fakeStats) CountTraitesEmitted(ctx context.Context, from, to time.Time) (int64, error) {
	return f.emitted[from], nil
}

func (f *fakeStats) SumTraiteMontant(ctx context.Context) (int64, error) { return f.montant, nil }

func (f *fakeStats) TraiteStatusCounts(ctx context.Context, today time.Time) ([]shared.LabelCount, error) {
	f.statusDay = today
	return f.statuses, f.err
}

func (f *fakeStats) TraiteEmissionDates(ctx context.Context, since time.Time) ([]time.Time, error) {
	f.since = since
	return f.emissions, nil
}

func (f *fakeStats) CountTiers(ctx context.Context) (int64, error) { return f.tiers, nil }

func (f *fakeStats) TierCategoryCounts(ctx context.Context) ([]shared.LabelCount, error) {
	return f.categories, f.err
}

func (f *fakeStats) CountAccountsOpened(ctx context.Context, from, to time.Time) (int64, error) {
	return f.opened[from], nil
}

func (f *fakeStats) AccountOpeningDates(ctx context.Context, since time.Time) ([]time.Time, error) {
	f.since = since
	return f.openings, nil
}

func newTestService(stats StatsReader, l *zap.Logger) *Service {
	s := NewService(stats, l)
	s.now = func() time.Time { return fixedNow }
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_TraiteStats(t *testing.T) {
	stats := &fakeStats{
		traites: 9,
		emitted: map[time.Time]int64{
			date(2025, 3, 15): 1,
			date(2025, 3, 1):  4,
		},
		montant: 2_750_000,
		statuses: []shared.LabelCount{
			{Label: "Non échu", Total: 3},
			{Label: "ECHU", Total: 1},
			{Label: "Échu", Total: 2},
			{Label: "Payé", Total: 2},
			{Label: "archivé", Total: 1},
		},
		emissions: []time.Time{
			date(2024, 4, 2),
			date(2025, 3, 1),
			date(2025, 3, 14),
			date(2024, 3, 31),
		},
	}

	out := newTestService(stats, nil).TraiteStats(context.Background())

	assert.Empty(t, out.Error)
	assert.Equal(t, int64(9), out.Total)
	assert.Equal(t, int64(1), out.Today)
	assert.Equal(t, int64(4), out.ThisMonth)
	assert.Equal(t, int64(3), out.Echu)
	assert.Equal(t, "2 750 000", out.TotalMontantFormate)
	assert.Equal(t, date(2024, 4, 1), stats.since)
	assert.Equal(t, date(2025, 3, 15), stats.statusDay)

	require.Len(t, out.Monthly, SeriesMonths)
	assert.Equal(t, MonthlyPoint{Month: "2024-04", Count: 1}, out.Monthly[0])
	assert.Equal(t, MonthlyPoint{Month: "2025-03", Count: 2}, out.Monthly[11])
	assert.Equal(t, int64(0), out.Monthly[5].Count)

	labels := make([]string, len(out.ByStatus))
	counts := map[string]int64{}
	for i, b := range out.ByStatus {
		labels[i] = b.Label
		counts[b.Label] = b.Count
		assert.NotEmpty(t, b.Color, b.Label)
	}
	assert.Equal(t, []string{"Non échu", "Échu", "Impayé", "Rejeté", "Payé", LabelOther}, labels)
	assert.Equal(t, int64(3), counts["Échu"])
	assert.Equal(t, int64(0), counts["Impayé"])
	assert.Equal(t, int64(1), counts[LabelOther])
}

func TestService_ClientStats(t *testing.T) {
	stats := &fakeStats{
		tiers: 6,
		opened: map[time.Time]int64{
			date(2025, 3, 15): 2,
			date(2025, 3, 1):  5,
		},
		categories: []shared.LabelCount{
			{Label: "Entreprises", Total: 4},
			{Label: "Particuliers", Total: 1},
			{Label: "Inconnue", Total: 1},
		},
		openings: []time.Time{date(2025, 1, 20), date(2025, 3, 2)},
	}

	out := newTestService(stats, nil).ClientStats(context.Background())

	assert.Empty(t, out.Error)
	assert.Equal(t, int64(6), out.Total)
	assert.Equal(t, int64(2), out.NewToday)
	assert.Equal(t, int64(5), out.NewThisMonth)
	assert.Equal(t, int64(1), out.Monthly[9].Count)
	assert.Equal(t, "2025-01", out.Monthly[9].Month)

	labels := map[string]int64{}
	for _, b := range out.ByCategory {
		labels[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int64{
		"Particuliers":     1,
		"Salariés":         0,
		"Entreprises":      4,
		"Administrations":  0,
		"Concessionnaires": 0,
		"Revendeurs":       0,
		"Transporteurs":    0,
		"Autres":           1,
	}, labels)
	require.Len(t, out.ByCategory, len(tier.Categories()))
	assert.Equal(t, "Particuliers", out.ByCategory[0].Label)
	assert.Equal(t, "Autres", out.ByCategory[len(out.ByCategory)-1].Label)
}

func TestService_DegradesOnError(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	stats := &fakeStats{traites: 4, tiers: 2, err: errors.New("relation does not exist")}
	svc := newTestService(stats, zap.New(core))

	traites := svc.TraiteStats(context.Background())
	assert.Equal(t, "relation does not exist", traites.Error)
	assert.Zero(t, traites.Total)
	assert.Len(t, traites.Monthly, SeriesMonths)
	assert.Len(t, traites.ByStatus, 6)

	clients := svc.ClientStats(context.Background())
	assert.Equal(t, "relation does not exist", clients.Error)
	assert.Zero(t, clients.Total)
	require.Len(t, clients.ByCategory, len(tier.Categories()))
	for _, b := range clients.ByCategory {
		assert.Zero(t, b.Count, b.Label)
	}

	assert.Equal(t, 2, recorded.Len())
}

func TestService_DegradesOnDatabaseError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "traites"`).WillReturnError(errors.New("connection refused"))

	out := newTestService(persistence.NewGormStatsRepository(db, nil), nil).TraiteStats(context.Background())

	assert.Contains(t, out.Error, "connection refused")
	assert.Zero(t, out.Total)
	assert.Equal(t, "0", out.TotalMontantFormate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
