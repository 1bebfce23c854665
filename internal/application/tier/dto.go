package tier

import (
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
)

// IdentityRequest carries the client identity fields
type IdentityRequest struct {
	NumeroCompte     string `json:"numero_compte" binding:"max=20"`
	NomRaisonSociale string `json:"nom_raison_sociale" binding:"required,max=255"`
	BP               string `json:"bp" binding:"max=50"`
	Ville            string `json:"ville" binding:"max=100"`
	Pays             string `json:"pays" binding:"max=100"`
	AdresseGeo1      string `json:"adresse_geo_1" binding:"max=255"`
	AdresseGeo2      string `json:"adresse_geo_2" binding:"max=255"`
	Telephone        string `json:"telephone" binding:"max=50"`
	Email            string `json:"email" binding:"omitempty,email"`
	Categorie        string `json:"categorie" binding:"required"`
	NContribuable    string `json:"n_contribuable" binding:"max=50"`
	TypeTiers        string `json:"type_tiers" binding:"required,oneof=Client Fournisseur"`
}

// ToIdentity converts the request to the domain identity
func (r IdentityRequest) ToIdentity() tier.Identity {
	return tier.Identity{
		NumeroCompte:     r.NumeroCompte,
		NomRaisonSociale: r.NomRaisonSociale,
		BP:               r.BP,
		Ville:            r.Ville,
		Pays:             r.Pays,
		AdresseGeo1:      r.AdresseGeo1,
		AdresseGeo2:      r.AdresseGeo2,
		Telephone:        r.Telephone,
		Email:            r.Email,
		Categorie:        r.Categorie,
		NContribuable:    r.NContribuable,
		TypeTiers:        tier.Type(r.TypeTiers),
	}
}

// OpeningRequestDTO holds the optional account-opening details
type OpeningRequestDTO struct {
	DateCreation   string `json:"date_creation"`
	MontantFacture *int64 `json:"montant_facture" binding:"omitempty,min=0"`
	MontantPaye    *int64 `json:"montant_paye" binding:"omitempty,min=0"`
	Credit         *int64 `json:"credit"`
	Motif          string `json:"motif"`
	Etablissement  string `json:"etablissement" binding:"max=255"`
	Service        string `json:"service" binding:"max=255"`
	NomSignataire  string `json:"nom_signataire" binding:"max=255"`
}

// PendingClientRequest is the body of submit and resubmit
type PendingClientRequest struct {
	IdentityRequest
	Opening OpeningRequestDTO `json:"opening"`
}

// ToDomain converts the request, reporting a bad opening date as a field error
func (r PendingClientRequest) ToDomain() (tier.Identity, tier.OpeningRequest, error) {
	opening := tier.OpeningRequest{
		MontantFacture: r.Opening.MontantFacture,
		MontantPaye:    r.Opening.MontantPaye,
		Credit:         r.Opening.Credit,
		Motif:          r.Opening.Motif,
		Etablissement:  r.Opening.Etablissement,
		Service:        r.Opening.Service,
		NomSignataire:  r.Opening.NomSignataire,
	}
	if r.Opening.DateCreation != "" {
		d, err := time.Parse(time.DateOnly, r.Opening.DateCreation)
		if err != nil {
			errs := shared.ValidationErrors{}
			errs.Add("opening.date_creation", "must be a date (YYYY-MM-DD)")
			return tier.Identity{}, tier.OpeningRequest{}, errs
		}
		opening.DateCreation = &d
	}
	return r.ToIdentity(), opening, nil
}

// RejectRequest is the body of the reject endpoint
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// IdentityResponse is the identity part of tier and pending responses
type IdentityResponse struct {
	NumeroCompte     string `json:"numero_compte"`
	NomRaisonSociale string `json:"nom_raison_sociale"`
	BP               string `json:"bp"`
	Ville            string `json:"ville"`
	Pays             string `json:"pays"`
	AdresseGeo1      string `json:"adresse_geo_1"`
	AdresseGeo2      string `json:"adresse_geo_2"`
	Telephone        string `json:"telephone"`
	Email            string `json:"email"`
	Categorie        string `json:"categorie"`
	NContribuable    string `json:"n_contribuable"`
	TypeTiers        string `json:"type_tiers"`
}

func toIdentityResponse(i tier.Identity) IdentityResponse {
	return IdentityResponse{
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

// TierResponse is a tier as returned by the API
type TierResponse struct {
	ID int64 `json:"id"`
	IdentityResponse
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToTierResponse converts a domain tier
func ToTierResponse(t *tier.Tier) TierResponse {
	return TierResponse{
		ID:               t.ID,
		IdentityResponse: toIdentityResponse(t.Identity),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// PendingClientResponse is a submission as returned by the API
type PendingClientResponse struct {
	ID int64 `json:"id"`
	IdentityResponse
	Opening         map[string]any `json:"opening,omitempty"`
	CreatedBy       string         `json:"created_by"`
	Status          string         `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ToPendingClientResponse converts a domain submission
func ToPendingClientResponse(p *tier.PendingClient) PendingClientResponse {
	resp := PendingClientResponse{
		ID:               p.ID,
		IdentityResponse: toIdentityResponse(p.Identity),
		CreatedBy:        p.CreatedBy,
		Status:           string(p.Status),
		RejectionReason:  p.RejectionReason,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if !p.Opening.IsEmpty() {
		resp.Opening = p.Opening.Columns()
	}
	return resp
}

// ApprovalHistoryResponse is one entry of the caller's review history
type ApprovalHistoryResponse struct {
	ID              int64     `json:"id"`
	PendingID       int64     `json:"tier_id"`
	ApprovedTierID  *int64    `json:"approved_tier_id,omitempty"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ClientName      string    `json:"client_name"`
	AccountNumber   string    `json:"account_number"`
	CreatedAt       time.Time `json:"created_at"`
}

func toApprovalHistoryResponse(e tier.ApprovalHistoryEntry) ApprovalHistoryResponse {
	return ApprovalHistoryResponse{
		ID:              e.ID,
		PendingID:       e.TierID,
		ApprovedTierID:  e.ApprovedTierID,
		Status:          string(e.Status),
		RejectionReason: e.RejectionReason,
		ClientName:      e.ClientName,
		AccountNumber:   e.AccountNumber,
		CreatedAt:       e.CreatedAt,
	}
}

// TierActivityResponse is one change-log row
type TierActivityResponse struct {
	ID        int64                  `json:"id"`
	TierID    int64                  `json:"tier_id"`
	UserID    string                 `json:"user_id"`
	Action    string                 `json:"action"`
	Changes   map[string]tier.Change `json:"changes"`
	CreatedAt time.Time              `json:"created_at"`
}

func toTierActivityResponse(a tier.TierActivity) TierActivityResponse {
	return TierActivityResponse{
		ID:        a.ID,
		TierID:    a.TierID,
		UserID:    a.UserID,
		Action:    string(a.Action),
		Changes:   a.Changes,
		CreatedAt: a.CreatedAt,
	}
}
