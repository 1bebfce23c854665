package persistence

import (
	"context"
	"fmt"

	"github.com/traitedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequence issues counter values from the sequences table. The row
// update runs inside a transaction, so concurrent callers never share a value.
type GormSequence struct {
	db *gorm.DB
}

// NewGormSequence creates a new GormSequence
func NewGormSequence(db *gorm.DB) *GormSequence {
	return &GormSequence{db: db}
}

// Next increments the named counter and returns the new value. A missing
// counter starts at 1.
func (s *GormSequence) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SequenceModel{Name: name, Value: 0}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SequenceModel{}).
			Where("name = ?", name).
			UpdateColumn("value", gorm.Expr("value + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.SequenceModel{}).
			Select("value").
			Where("name = ?", name).
			Scan(&value).Error
	})
	if err != nil {
		return 0, fmt.Errorf("next value of sequence %q: %w", name, err)
	}
	return value, nil
}

// Reset sets the counter so the next call returns value+1
func (s *GormSequence) Reset(ctx context.Context, name string, value int64) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{"value": value}),
	}).Create(&models.SequenceModel{Name: name, Value: value}).Error
}
