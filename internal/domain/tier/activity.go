package tier

import "time"

// Action describes what happened to a tier
type Action string

const (
	ActionCreation     Action = "Création"
	ActionModification Action = "Modification"
)

// Change is a before/after pair for one field
type Change struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// TierActivity is a change-audit row for a tier
type TierActivity struct {
	ID        int64
	TierID    int64
	UserID    string
	Action    Action
	Changes   map[string]Change
	CreatedAt time.Time
}

// NewCreationActivity records the initial values of a tier
func NewCreationActivity(t *Tier, userID string) *TierActivity {
	return &TierActivity{
		TierID:    t.ID,
		UserID:    userID,
		Action:    ActionCreation,
		Changes:   Identity{}.Diff(t.Identity),
		CreatedAt: time.Now(),
	}
}

// NewModificationActivity records a change set; ok is false when nothing changed
func NewModificationActivity(tierID int64, changes map[string]Change, userID string) (*TierActivity, bool) {
	if len(changes) == 0 {
		return nil, false
	}
	return &TierActivity{
		TierID:    tierID,
		UserID:    userID,
		Action:    ActionModification,
		Changes:   changes,
		CreatedAt: time.Now(),
	}, true
}
