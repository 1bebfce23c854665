package tier

import (
	"context"
	"errors"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrNotAwaitingReview is returned when approving or rejecting a submission
// that was already rejected
var ErrNotAwaitingReview = shared.NewDomainError(shared.ErrInvalidState.Code, "client submission is not awaiting review")

// ApprovalService runs the client review workflow
type ApprovalService struct {
	base
	tx              tier.Transactor
	repos           tier.Repositories
	archiveOnReject bool
}

// NewApprovalService creates an ApprovalService. repos are the
// non-transactional repositories used for reads; writes that must be atomic
// go through tx. When archiveOnReject is set, rejected submissions are kept
// with status rejected so they can be resubmitted.
func NewApprovalService(tx tier.Transactor, repos tier.Repositories, archiveOnReject bool, opts ...Option) *ApprovalService {
	return &ApprovalService{
		base:            newBase(opts),
		tx:              tx,
		repos:           repos,
		archiveOnReject: archiveOnReject,
	}
}

// Submit queues a new client for review
func (s *ApprovalService) Submit(ctx context.Context, userID string, req PendingClientRequest) (*PendingClientResponse, error) {
	identity, opening, err := req.ToDomain()
	if err != nil {
		return nil, err
	}
	p, err := tier.NewPendingClient(identity, opening, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Pending.Save(ctx, p); err != nil {
		return nil, err
	}

	s.log(ctx).Info("Client submitted for review",
		zap.Int64("pending_id", p.ID),
		zap.String("nom_raison_sociale", p.NomRaisonSociale),
	)
	resp := ToPendingClientResponse(p)
	return &resp, nil
}

// GetPending returns one submission
func (s *ApprovalService) GetPending(ctx context.Context, id int64) (*PendingClientResponse, error) {
	p, err := s.repos.Pending.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPendingClientResponse(p)
	return &resp, nil
}

// ListPending returns one page of the review queue
func (s *ApprovalService) ListPending(ctx context.Context, filter tier.PendingFilter) (shared.Paginated[PendingClientResponse], error) {
	filter.Normalize()
	rows, total, err := s.repos.Pending.List(ctx, filter)
	if err != nil {
		return shared.Paginated[PendingClientResponse]{}, err
	}
	items := make([]PendingClientResponse, len(rows))
	for i := range rows {
		items[i] = ToPendingClientResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Resubmit replaces a still-existing submission and puts it back in review.
// No audit entry is written.
func (s *ApprovalService) Resubmit(ctx context.Context, id int64, req PendingClientRequest) (*PendingClientResponse, error) {
	identity, opening, err := req.ToDomain()
	if err != nil {
		return nil, err
	}
	p, err := s.repos.Pending.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Resubmit(identity, opening); err != nil {
		return nil, err
	}
	if err := s.repos.Pending.Save(ctx, p); err != nil {
		return nil, err
	}

	s.log(ctx).Info("Client resubmitted", zap.Int64("pending_id", id))
	resp := ToPendingClientResponse(p)
	return &resp, nil
}

// Approve turns a submission into a tier. The tier insert, the
// account-opening row, the submission delete and the audit entry commit
// together or not at all.
func (s *ApprovalService) Approve(ctx context.Context, id int64, userID string) (*TierResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval", "approve", telemetry.SpanAttrPendingID, id)
	defer span.End()

	var created *tier.Tier
	var openingWritten bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos tier.Repositories) error {
		p, err := repos.Pending.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsAwaitingReview() {
			return ErrNotAwaitingReview
		}

		t, err := p.ToTier()
		if err != nil {
			return err
		}
		if err := assignAccountNumber(ctx, repos.Tiers, s.accounts, t, nil); err != nil {
			return err
		}
		if err := repos.Tiers.Save(ctx, t); err != nil {
			return err
		}
		if openingWritten, err = repos.Openings.WriteIfSupported(ctx, t.ID, p.Opening); err != nil {
			return err
		}
		if err := repos.Pending.Delete(ctx, p.ID); err != nil {
			return err
		}
		if err := repos.Approvals.Append(ctx, tier.NewApprovedEntry(p.ID, t.ID, userID)); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Error("Client approval failed", zap.Int64("pending_id", id), zap.Error(err))
		return nil, workflowError(err)
	}

	s.recordActivity(ctx, s.repos.Activities, tier.NewCreationActivity(created, userID))
	s.metrics.ObserveApproval("approved")
	telemetry.SetAttributes(span, telemetry.SpanAttrTierID, created.ID)
	s.log(ctx).Info("Client approved",
		zap.Int64("pending_id", id),
		zap.Int64("tier_id", created.ID),
		zap.String("numero_compte", created.NumeroCompte),
		zap.Bool("opening_written", openingWritten),
	)
	resp := ToTierResponse(created)
	return &resp, nil
}

// Reject records a rejection and removes the submission, or archives it
// when archive-on-reject is enabled
func (s *ApprovalService) Reject(ctx context.Context, id int64, userID, reason string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval", "reject", telemetry.SpanAttrPendingID, id)
	defer span.End()

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos tier.Repositories) error {
		p, err := repos.Pending.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsAwaitingReview() {
			return ErrNotAwaitingReview
		}

		if s.archiveOnReject {
			if err := p.MarkRejected(reason); err != nil {
				return err
			}
			if err := repos.Pending.Save(ctx, p); err != nil {
				return err
			}
		} else if err := repos.Pending.Delete(ctx, p.ID); err != nil {
			return err
		}
		return repos.Approvals.Append(ctx, tier.NewRejectedEntry(p.ID, reason, userID))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Error("Client rejection failed", zap.Int64("pending_id", id), zap.Error(err))
		return workflowError(err)
	}

	s.metrics.ObserveApproval("rejected")
	s.log(ctx).Info("Client rejected",
		zap.Int64("pending_id", id),
		zap.Bool("archived", s.archiveOnReject),
	)
	return nil
}

// History returns the caller's review decisions, newest first, each
// resolved to the client's current name and account number
func (s *ApprovalService) History(ctx context.Context, userID string, filter shared.Filter) (shared.Paginated[ApprovalHistoryResponse], error) {
	filter.Normalize()
	entries, total, err := s.repos.Approvals.ListByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[ApprovalHistoryResponse]{}, err
	}

	var tierIDs, pendingIDs []int64
	for _, e := range entries {
		if e.ApprovedTierID != nil {
			tierIDs = append(tierIDs, *e.ApprovedTierID)
		}
		pendingIDs = append(pendingIDs, e.TierID)
	}

	tiers, err := s.repos.Tiers.FindByIDs(ctx, tierIDs)
	if err != nil {
		return shared.Paginated[ApprovalHistoryResponse]{}, err
	}
	pending, err := s.repos.Pending.FindByIDs(ctx, pendingIDs)
	if err != nil {
		return shared.Paginated[ApprovalHistoryResponse]{}, err
	}

	tierByID := make(map[int64]tier.Tier, len(tiers))
	for _, t := range tiers {
		tierByID[t.ID] = t
	}
	pendingByID := make(map[int64]tier.PendingClient, len(pending))
	for _, p := range pending {
		pendingByID[p.ID] = p
	}

	items := make([]ApprovalHistoryResponse, len(entries))
	for i, e := range entries {
		entry := tier.ApprovalHistoryEntry{ClientApproval: e}
		entry.Resolve(tierByID, pendingByID)
		items[i] = toApprovalHistoryResponse(entry)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// workflowError passes client errors through and hides everything else
// behind a generic operation-failed error carrying the diagnostic
func workflowError(err error) error {
	var verrs shared.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrAlreadyExists),
		errors.Is(err, shared.ErrInvalidState):
		return err
	default:
		return shared.OperationFailed(err)
	}
}
