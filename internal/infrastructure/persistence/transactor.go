package persistence

import (
	"context"

	"github.com/traitedesk/backend/internal/domain/tier"
	"gorm.io/gorm"
)

// GormTransactor implements tier.Transactor. Every repository handed to fn
// shares one database transaction.
type GormTransactor struct {
	db       *gorm.DB
	tiers    *GormTierRepository
	pending  *GormPendingClientRepository
	approval *GormApprovalRepository
	activity *GormActivityRepository
	openings *GormOpeningRequestStore
}

// NewGormTransactor creates a transactor over the given repositories
func NewGormTransactor(
	db *gorm.DB,
	tiers *GormTierRepository,
	pending *GormPendingClientRepository,
	approval *GormApprovalRepository,
	activity *GormActivityRepository,
	openings *GormOpeningRequestStore,
) *GormTransactor {
	return &GormTransactor{
		db:       db,
		tiers:    tiers,
		pending:  pending,
		approval: approval,
		activity: activity,
		openings: openings,
	}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise
func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos tier.Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tier.Repositories{
			Tiers:      t.tiers.WithTx(tx),
			Pending:    t.pending.WithTx(tx),
			Approvals:  t.approval.WithTx(tx),
			Activities: t.activity.WithTx(tx),
			Openings:   t.openings.WithTx(tx),
		})
	})
}

// Repositories returns the non-transactional set
func (t *GormTransactor) Repositories() tier.Repositories {
	return tier.Repositories{
		Tiers:      t.tiers,
		Pending:    t.pending,
		Approvals:  t.approval,
		Activities: t.activity,
		Openings:   t.openings,
	}
}
