package tier

import (
	"context"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TierService manages approved tiers and their change log
type TierService struct {
	base
	tx    tier.Transactor
	repos tier.Repositories
}

// NewTierService creates a TierService
func NewTierService(tx tier.Transactor, repos tier.Repositories, opts ...Option) *TierService {
	return &TierService{
		base:  newBase(opts),
		tx:    tx,
		repos: repos,
	}
}

// Create adds a tier directly, bypassing review. A Création activity is
// recorded once the tier is committed.
func (s *TierService) Create(ctx context.Context, userID string, req IdentityRequest) (*TierResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tier", "create")
	defer span.End()

	t, err := tier.NewTier(req.ToIdentity())
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos tier.Repositories) error {
		if err := assignAccountNumber(ctx, repos.Tiers, s.accounts, t, nil); err != nil {
			return err
		}
		return repos.Tiers.Save(ctx, t)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recordActivity(ctx, s.repos.Activities, tier.NewCreationActivity(t, userID))
	s.log(ctx).Info("Tier created", zap.Int64("tier_id", t.ID), zap.String("numero_compte", t.NumeroCompte))
	resp := ToTierResponse(t)
	return &resp, nil
}

// Update replaces the identity of a tier and logs the field changes.
// A blank numero_compte keeps the current number.
func (s *TierService) Update(ctx context.Context, id int64, userID string, req IdentityRequest) (*TierResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tier", "update", telemetry.SpanAttrTierID, id)
	defer span.End()

	var (
		t       *tier.Tier
		changes map[string]tier.Change
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos tier.Repositories) error {
		var err error
		if t, err = repos.Tiers.FindByID(ctx, id); err != nil {
			return err
		}
		if changes, err = t.Update(req.ToIdentity()); err != nil {
			return err
		}
		if _, renamed := changes["numero_compte"]; renamed {
			if err := assignAccountNumber(ctx, repos.Tiers, s.accounts, t, nil); err != nil {
				return err
			}
		}
		return repos.Tiers.Save(ctx, t)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if activity, ok := tier.NewModificationActivity(t.ID, changes, userID); ok {
		s.recordActivity(ctx, s.repos.Activities, activity)
	}
	s.log(ctx).Info("Tier updated", zap.Int64("tier_id", t.ID), zap.Int("changed_fields", len(changes)))
	resp := ToTierResponse(t)
	return &resp, nil
}

// Get returns one tier
func (s *TierService) Get(ctx context.Context, id int64) (*TierResponse, error) {
	t, err := s.repos.Tiers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTierResponse(t)
	return &resp, nil
}

// List returns one page of tiers
func (s *TierService) List(ctx context.Context, filter tier.ListFilter) (shared.Paginated[TierResponse], error) {
	filter.Normalize()
	rows, total, err := s.repos.Tiers.List(ctx, filter)
	if err != nil {
		return shared.Paginated[TierResponse]{}, err
	}
	items := make([]TierResponse, len(rows))
	for i := range rows {
		items[i] = ToTierResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListActivities returns the change log of a tier, newest first
func (s *TierService) ListActivities(ctx context.Context, tierID int64) ([]TierActivityResponse, error) {
	if _, err := s.repos.Tiers.FindByID(ctx, tierID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Activities.ListByTier(ctx, tierID)
	if err != nil {
		return nil, err
	}
	items := make([]TierActivityResponse, len(rows))
	for i, a := range rows {
		items[i] = toTierActivityResponse(a)
	}
	return items, nil
}
