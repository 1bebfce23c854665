package tier

import (
	"strings"
	"time"
)

// ApprovalStatus is the outcome recorded by an audit entry
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// UnknownLabel is shown when an audit entry's target no longer exists
const UnknownLabel = "Inconnu"

// ClientApproval is an append-only audit entry of the review workflow.
// TierID is the pending client id, ApprovedTierID the created tier (approvals only).
type ClientApproval struct {
	ID              int64
	TierID          int64
	ApprovedTierID  *int64
	Status          ApprovalStatus
	RejectionReason string
	UserID          string
	CreatedAt       time.Time
}

// NewApprovedEntry records an approval
func NewApprovedEntry(pendingID, tierID int64, userID string) *ClientApproval {
	return &ClientApproval{
		TierID:         pendingID,
		ApprovedTierID: &tierID,
		Status:         ApprovalApproved,
		UserID:         userID,
		CreatedAt:      time.Now(),
	}
}

// NewRejectedEntry records a rejection
func NewRejectedEntry(pendingID int64, reason, userID string) *ClientApproval {
	return &ClientApproval{
		TierID:          pendingID,
		Status:          ApprovalRejected,
		RejectionReason: strings.TrimSpace(reason),
		UserID:          userID,
		CreatedAt:       time.Now(),
	}
}

// ApprovalHistoryEntry is an audit entry with its target resolved for display
type ApprovalHistoryEntry struct {
	ClientApproval
	ClientName    string
	AccountNumber string
}

// Resolve fills the display fields from the approved tier or the pending row,
// falling back to UnknownLabel when neither exists anymore
func (e *ApprovalHistoryEntry) Resolve(tiers map[int64]Tier, pending map[int64]PendingClient) {
	e.ClientName, e.AccountNumber = UnknownLabel, UnknownLabel

	if e.Status == ApprovalApproved && e.ApprovedTierID != nil {
		if t, ok := tiers[*e.ApprovedTierID]; ok {
			e.ClientName, e.AccountNumber = t.NomRaisonSociale, orUnknown(t.NumeroCompte)
			return
		}
	}
	if p, ok := pending[e.TierID]; ok {
		e.ClientName, e.AccountNumber = p.NomRaisonSociale, orUnknown(p.NumeroCompte)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownLabel
	}
	return s
}
