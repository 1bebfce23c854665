package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStatsRepository runs the dashboard aggregate queries
type GormStatsRepository struct {
	db       *gorm.DB
	openings *GormOpeningRequestStore
}

// NewGormStatsRepository creates a new GormStatsRepository. New-account counts
// prefer the account-opening table when the store reports a date_creation column.
func NewGormStatsRepository(db *gorm.DB, openings *GormOpeningRequestStore) *GormStatsRepository {
	return &GormStatsRepository{db: db, openings: openings}
}

// CountTraites counts all traites
func (r *GormStatsRepository) CountTraites(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.TraiteModel{}).Count(&total).Error
	return total, err
}

// CountTraitesEmitted counts traites whose emission date is in [from, to)
func (r *GormStatsRepository) CountTraitesEmitted(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.TraiteModel{}).
		Where("date_emission >= ? AND date_emission < ?", dateOnly(from), dateOnly(to)).
		Count(&total).Error
	return total, err
}

// SumTraiteMontant sums every traite amount
func (r *GormStatsRepository) SumTraiteMontant(ctx context.Context) (int64, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&models.TraiteModel{}).
		Select("COALESCE(SUM(montant), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum.IntPart(), nil
}

// TraiteStatusCounts groups traites by their status label as read on today,
// so overdue Non échu rows count as Échu
func (r *GormStatsRepository) TraiteStatusCounts(ctx context.Context, today time.Time) ([]shared.LabelCount, error) {
	var rows []shared.LabelCount
	err := r.db.WithContext(ctx).Model(&models.TraiteModel{}).
		Select(effectiveStatutSQL+" AS label, COUNT(*) AS total", effectiveStatutArgs(dateOnly(today))...).
		Group("label").
		Scan(&rows).Error
	return rows, err
}

// TraiteEmissionDates returns the emission dates on or after since
func (r *GormStatsRepository) TraiteEmissionDates(ctx context.Context, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).Model(&models.TraiteModel{}).
		Where("date_emission >= ?", dateOnly(since)).
		Pluck("date_emission", &dates).Error
	return dates, err
}

// CountTiers counts all tiers
func (r *GormStatsRepository) CountTiers(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.TierModel{}).Count(&total).Error
	return total, err
}

// TierCategoryCounts groups tiers by category
func (r *GormStatsRepository) TierCategoryCounts(ctx context.Context) ([]shared.LabelCount, error) {
	var rows []shared.LabelCount
	err := r.db.WithContext(ctx).Model(&models.TierModel{}).
		Select("categorie AS label, COUNT(*) AS total").
		Group("categorie").
		Scan(&rows).Error
	return rows, err
}

// CountAccountsOpened counts new accounts in [from, to)
func (r *GormStatsRepository) CountAccountsOpened(ctx context.Context, from, to time.Time) (int64, error) {
	query, column, err := r.accountSource(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	if column == "date_creation" {
		from, to = dateOnly(from), dateOnly(to)
	}
	err = query.Where(column+" >= ? AND "+column+" < ?", from, to).Count(&total).Error
	return total, err
}

// AccountOpeningDates returns the opening dates on or after since
func (r *GormStatsRepository) AccountOpeningDates(ctx context.Context, since time.Time) ([]time.Time, error) {
	query, column, err := r.accountSource(ctx)
	if err != nil {
		return nil, err
	}
	if column == "date_creation" {
		since = dateOnly(since)
	}
	var dates []time.Time
	err = query.Where(column+" >= ?", since).Pluck(column, &dates).Error
	return dates, err
}

// accountSource picks the account-opening table when it carries dates,
// otherwise tier creation timestamps
func (r *GormStatsRepository) accountSource(ctx context.Context) (*gorm.DB, string, error) {
	if r.openings != nil {
		ok, err := r.openings.HasField(ctx, "date_creation")
		if err != nil {
			return nil, "", err
		}
		if ok {
			return r.db.WithContext(ctx).Table(OpeningRequestTable).Where("date_creation IS NOT NULL"), "date_creation", nil
		}
	}
	return r.db.WithContext(ctx).Model(&models.TierModel{}), "created_at", nil
}
