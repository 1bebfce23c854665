package tier

import (
	"context"

	"github.com/traitedesk/backend/internal/domain/shared"
)

// ListFilter holds list options for tiers
type ListFilter struct {
	shared.Filter
	TypeTiers Type
	Categorie string
}

// PendingFilter holds list options for the review queue
type PendingFilter struct {
	shared.Filter
	Status    PendingStatus
	CreatedBy string
}

// TierRepository persists tiers
type TierRepository interface {
	FindByID(ctx context.Context, id int64) (*Tier, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Tier, error)
	ExistsByNumeroCompte(ctx context.Context, numero string, excludeID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Tier, int64, error)
	Save(ctx context.Context, t *Tier) error
}

// PendingClientRepository persists the review queue
type PendingClientRepository interface {
	FindByID(ctx context.Context, id int64) (*PendingClient, error)
	FindByIDs(ctx context.Context, ids []int64) ([]PendingClient, error)
	List(ctx context.Context, filter PendingFilter) ([]PendingClient, int64, error)
	Save(ctx context.Context, p *PendingClient) error
	Delete(ctx context.Context, id int64) error
}

// ApprovalRepository appends and reads the review audit trail
type ApprovalRepository interface {
	Append(ctx context.Context, entry *ClientApproval) error
	ListByUser(ctx context.Context, userID string, filter shared.Filter) ([]ClientApproval, int64, error)
}

// ActivityRepository stores tier change history
type ActivityRepository interface {
	Append(ctx context.Context, activity *TierActivity) error
	ListByTier(ctx context.Context, tierID int64) ([]TierActivity, error)
}

// Repositories groups the stores that take part in one unit of work
type Repositories struct {
	Tiers      TierRepository
	Pending    PendingClientRepository
	Approvals  ApprovalRepository
	Activities ActivityRepository
	Openings   OpeningRequestStore
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls every write back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
