package tier

import (
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
)

// PendingStatus tracks where a submission sits in the review queue
type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusRejected PendingStatus = "rejected"
)

// PendingClient is a client submission awaiting review
type PendingClient struct {
	ID int64
	Identity
	Opening         OpeningRequest
	CreatedBy       string
	Status          PendingStatus
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPendingClient validates and builds a submission
func NewPendingClient(identity Identity, opening OpeningRequest, createdBy string) (*PendingClient, error) {
	identity = identity.Normalize()
	if err := identity.Validate().Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, shared.NewDomainError("INVALID_USER", "created_by is required")
	}
	now := time.Now()
	return &PendingClient{
		Identity:  identity,
		Opening:   opening,
		CreatedBy: createdBy,
		Status:    PendingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Resubmit replaces the submission and puts it back in review
func (p *PendingClient) Resubmit(identity Identity, opening OpeningRequest) error {
	identity = identity.Normalize()
	if err := identity.Validate().Err(); err != nil {
		return err
	}
	p.Identity = identity
	p.Opening = opening
	p.Status = PendingStatusPending
	p.RejectionReason = ""
	p.UpdatedAt = time.Now()
	return nil
}

// MarkRejected keeps the row for later resubmission
func (p *PendingClient) MarkRejected(reason string) error {
	if p.Status == PendingStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "client submission is already rejected")
	}
	p.Status = PendingStatusRejected
	p.RejectionReason = strings.TrimSpace(reason)
	p.UpdatedAt = time.Now()
	return nil
}

// IsAwaitingReview reports whether approve/reject may run
func (p *PendingClient) IsAwaitingReview() bool {
	return p.Status == PendingStatusPending
}

// ToTier copies the identity fields into a new tier
func (p *PendingClient) ToTier() (*Tier, error) {
	return NewTier(p.Identity)
}
