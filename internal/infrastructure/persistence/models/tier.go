package models

import (
	"encoding/json"
	"time"

	"github.com/traitedesk/backend/internal/domain/tier"
)

// IdentityColumns are the client-identity columns shared by tiers and pending clients
type IdentityColumns struct {
	NumeroCompte     string `gorm:"type:varchar(20)"`
	NomRaisonSociale string `gorm:"type:varchar(255);not null;index"`
	BP               string `gorm:"column:bp;type:varchar(50)"`
	Ville            string `gorm:"type:varchar(100)"`
	Pays             string `gorm:"type:varchar(100)"`
	AdresseGeo1      string `gorm:"column:adresse_geo_1;type:varchar(255)"`
	AdresseGeo2      string `gorm:"column:adresse_geo_2;type:varchar(255)"`
	Telephone        string `gorm:"type:varchar(50)"`
	Email            string `gorm:"type:varchar(255)"`
	Categorie        string `gorm:"type:varchar(50);index"`
	NContribuable    string `gorm:"column:n_contribuable;type:varchar(50)"`
	TypeTiers        string `gorm:"type:varchar(20);not null;default:'Client';index"`
}

func (c IdentityColumns) toDomain() tier.Identity {
	return tier.Identity{
		NumeroCompte:     c.NumeroCompte,
		NomRaisonSociale: c.NomRaisonSociale,
		BP:               c.BP,
		Ville:            c.Ville,
		Pays:             c.Pays,
		AdresseGeo1:      c.AdresseGeo1,
		AdresseGeo2:      c.AdresseGeo2,
		Telephone:        c.Telephone,
		Email:            c.Email,
		Categorie:        c.Categorie,
		NContribuable:    c.NContribuable,
		TypeTiers:        tier.Type(c.TypeTiers),
	}
}

func identityColumns(i tier.Identity) IdentityColumns {
	return IdentityColumns{
		NumeroCompte:     i.NumeroCompte,
		NomRaisonSociale: i.NomRaisonSociale,
		BP:               i.BP,
		Ville:            i.Ville,
		Pays:             i.Pays,
		AdresseGeo1:      i.AdresseGeo1,
		AdresseGeo2:      i.AdresseGeo2,
		Telephone:        i.Telephone,
		Email:            i.Email,
		Categorie:        i.Categorie,
		NContribuable:    i.NContribuable,
		TypeTiers:        string(i.TypeTiers),
	}
}

// TierModel is the persistence model for an approved tier
type TierModel struct {
	BaseModel
	IdentityColumns `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (TierModel) TableName() string {
	return "tiers"
}

// ToDomain converts the persistence model to a domain Tier
func (m *TierModel) ToDomain() *tier.Tier {
	return &tier.Tier{
		ID:        m.ID,
		Identity:  m.IdentityColumns.toDomain(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// TierModelFromDomain creates a persistence model from a domain Tier
func TierModelFromDomain(t *tier.Tier) *TierModel {
	return &TierModel{
		BaseModel:       BaseModel{ID: t.ID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt},
		IdentityColumns: identityColumns(t.Identity),
	}
}

// PendingClientModel is a client submission awaiting review, carrying the
// account-opening details until approval
type PendingClientModel struct {
	BaseModel
	IdentityColumns `gorm:"embedded"`
	CreatedBy       string     `gorm:"type:varchar(100);not null;index"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	RejectionReason string     `gorm:"type:text"`
	DateCreation    *time.Time `gorm:"type:date"`
	MontantFacture  *int64
	MontantPaye     *int64
	Credit          *int64
	Motif           string `gorm:"type:text"`
	Etablissement   string `gorm:"type:varchar(255)"`
	Service         string `gorm:"type:varchar(255)"`
	NomSignataire   string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (PendingClientModel) TableName() string {
	return "pending_clients"
}

// ToDomain converts the persistence model to a domain PendingClient
func (m *PendingClientModel) ToDomain() *tier.PendingClient {
	return &tier.PendingClient{
		ID:       m.ID,
		Identity: m.IdentityColumns.toDomain(),
		Opening: tier.OpeningRequest{
			DateCreation:   m.DateCreation,
			MontantFacture: m.MontantFacture,
			MontantPaye:    m.MontantPaye,
			Credit:         m.Credit,
			Motif:          m.Motif,
			Etablissement:  m.Etablissement,
			Service:        m.Service,
			NomSignataire:  m.NomSignataire,
		},
		CreatedBy:       m.CreatedBy,
		Status:          tier.PendingStatus(m.Status),
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// PendingClientModelFromDomain creates a persistence model from a domain PendingClient
func PendingClientModelFromDomain(p *tier.PendingClient) *PendingClientModel {
	m := &PendingClientModel{
		BaseModel:       BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		IdentityColumns: identityColumns(p.Identity),
		CreatedBy:       p.CreatedBy,
		Status:          string(p.Status),
		RejectionReason: p.RejectionReason,
		MontantFacture:  p.Opening.MontantFacture,
		MontantPaye:     p.Opening.MontantPaye,
		Credit:          p.Opening.Credit,
		Motif:           p.Opening.Motif,
		Etablissement:   p.Opening.Etablissement,
		Service:         p.Opening.Service,
		NomSignataire:   p.Opening.NomSignataire,
	}
	if p.Opening.DateCreation != nil {
		d := dateOnly(*p.Opening.DateCreation)
		m.DateCreation = &d
	}
	return m
}

// ClientApprovalModel is an append-only review audit row
type ClientApprovalModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	TierID          int64     `gorm:"not null;index"`
	ApprovedTierID  *int64    `gorm:"index"`
	Status          string    `gorm:"type:varchar(20);not null"`
	RejectionReason string    `gorm:"type:text"`
	UserID          string    `gorm:"type:varchar(100);not null;index"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ClientApprovalModel) TableName() string {
	return "client_approvals"
}

// ToDomain converts the persistence model to a domain ClientApproval
func (m *ClientApprovalModel) ToDomain() *tier.ClientApproval {
	return &tier.ClientApproval{
		ID:              m.ID,
		TierID:          m.TierID,
		ApprovedTierID:  m.ApprovedTierID,
		Status:          tier.ApprovalStatus(m.Status),
		RejectionReason: m.RejectionReason,
		UserID:          m.UserID,
		CreatedAt:       m.CreatedAt,
	}
}

// ClientApprovalModelFromDomain creates a persistence model from a domain ClientApproval
func ClientApprovalModelFromDomain(a *tier.ClientApproval) *ClientApprovalModel {
	return &ClientApprovalModel{
		ID:              a.ID,
		TierID:          a.TierID,
		ApprovedTierID:  a.ApprovedTierID,
		Status:          string(a.Status),
		RejectionReason: a.RejectionReason,
		UserID:          a.UserID,
		CreatedAt:       a.CreatedAt,
	}
}

// TierActivityModel stores a tier change set as JSON text
type TierActivityModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	TierID    int64     `gorm:"not null;index"`
	UserID    string    `gorm:"type:varchar(100)"`
	Action    string    `gorm:"type:varchar(20);not null"`
	Changes   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TierActivityModel) TableName() string {
	return "tier_activities"
}

// ToDomain converts the persistence model to a domain TierActivity
func (m *TierActivityModel) ToDomain() (*tier.TierActivity, error) {
	changes := map[string]tier.Change{}
	if m.Changes != "" {
		if err := json.Unmarshal([]byte(m.Changes), &changes); err != nil {
			return nil, err
		}
	}
	return &tier.TierActivity{
		ID:        m.ID,
		TierID:    m.TierID,
		UserID:    m.UserID,
		Action:    tier.Action(m.Action),
		Changes:   changes,
		CreatedAt: m.CreatedAt,
	}, nil
}

// TierActivityModelFromDomain creates a persistence model from a domain TierActivity
func TierActivityModelFromDomain(a *tier.TierActivity) (*TierActivityModel, error) {
	raw, err := json.Marshal(a.Changes)
	if err != nil {
		return nil, err
	}
	return &TierActivityModel{
		ID:        a.ID,
		TierID:    a.TierID,
		UserID:    a.UserID,
		Action:    string(a.Action),
		Changes:   string(raw),
		CreatedAt: a.CreatedAt,
	}, nil
}

// AccountOpeningRequestModel mirrors the full account_opening_requests layout.
// Production databases may carry only a subset of these columns, so writes go
// through the schema-probing store rather than this model.
type AccountOpeningRequestModel struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	TierID         int64      `gorm:"not null;index"`
	DateCreation   *time.Time `gorm:"type:date;index"`
	MontantFacture *int64
	MontantPaye    *int64
	Credit         *int64
	Motif          string    `gorm:"type:text"`
	Etablissement  string    `gorm:"type:varchar(255)"`
	Service        string    `gorm:"type:varchar(255)"`
	NomSignataire  string    `gorm:"type:varchar(255)"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountOpeningRequestModel) TableName() string {
	return "account_opening_requests"
}
