package tier

import (
	"net/mail"
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
)

// Type distinguishes customers from suppliers
type Type string

const (
	TypeClient      Type = "Client"
	TypeFournisseur Type = "Fournisseur"
)

// IsValid checks if the tier type is known
func (t Type) IsValid() bool {
	return t == TypeClient || t == TypeFournisseur
}

// Identity is the client-identity part shared by pending clients and tiers
type Identity struct {
	NumeroCompte     string
	NomRaisonSociale string
	BP               string
	Ville            string
	Pays             string
	AdresseGeo1      string
	AdresseGeo2      string
	Telephone        string
	Email            string
	Categorie        string
	NContribuable    string
	TypeTiers        Type
}

// Normalize trims every field
func (i Identity) Normalize() Identity {
	i.NumeroCompte = strings.ToUpper(strings.TrimSpace(i.NumeroCompte))
	i.NomRaisonSociale = strings.TrimSpace(i.NomRaisonSociale)
	i.BP = strings.TrimSpace(i.BP)
	i.Ville = strings.TrimSpace(i.Ville)
	i.Pays = strings.TrimSpace(i.Pays)
	i.AdresseGeo1 = strings.TrimSpace(i.AdresseGeo1)
	i.AdresseGeo2 = strings.TrimSpace(i.AdresseGeo2)
	i.Telephone = strings.TrimSpace(i.Telephone)
	i.Email = strings.TrimSpace(i.Email)
	i.Categorie = strings.TrimSpace(i.Categorie)
	i.NContribuable = strings.TrimSpace(i.NContribuable)
	return i
}

// Validate returns field-level errors
func (i Identity) Validate() shared.ValidationErrors {
	errs := shared.ValidationErrors{}
	if i.NomRaisonSociale == "" {
		errs.Add("nom_raison_sociale", "is required")
	}
	if !IsValidCategory(i.Categorie) {
		errs.Add("categorie", "must be one of: "+strings.Join(Categories(), ", "))
	}
	if !i.TypeTiers.IsValid() {
		errs.Add("type_tiers", "must be one of: Client, Fournisseur")
	}
	if len(i.NumeroCompte) > MaxAccountNumberLength {
		errs.Add("numero_compte", "must be at most 20 characters")
	}
	if i.Email != "" {
		if _, err := mail.ParseAddress(i.Email); err != nil {
			errs.Add("email", "Invalid email format")
		}
	}
	return errs
}

// Tier is an approved client or supplier account
type Tier struct {
	ID int64
	Identity
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTier validates identity and builds a tier. A blank account number is
// allowed here; it is generated before the tier is saved.
func NewTier(identity Identity) (*Tier, error) {
	identity = identity.Normalize()
	if err := identity.Validate().Err(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Tier{
		Identity:  identity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update replaces the identity and returns the field changes
func (t *Tier) Update(identity Identity) (map[string]Change, error) {
	identity = identity.Normalize()
	if identity.NumeroCompte == "" {
		identity.NumeroCompte = t.NumeroCompte
	}
	if err := identity.Validate().Err(); err != nil {
		return nil, err
	}
	changes := t.Identity.Diff(identity)
	t.Identity = identity
	t.UpdatedAt = time.Now()
	return changes, nil
}

// Diff lists tracked fields whose value differs between i and next
func (i Identity) Diff(next Identity) map[string]Change {
	before, after := i.trackedFields(), next.trackedFields()
	changes := make(map[string]Change)
	for field, old := range before {
		if nv := after[field]; nv != old {
			changes[field] = Change{Before: old, After: nv}
		}
	}
	return changes
}

func (i Identity) trackedFields() map[string]string {
	return map[string]string{
		"numero_compte":      i.NumeroCompte,
		"nom_raison_sociale": i.NomRaisonSociale,
		"bp":                 i.BP,
		"ville":              i.Ville,
		"pays":               i.Pays,
		"adresse_geo_1":      i.AdresseGeo1,
		"adresse_geo_2":      i.AdresseGeo2,
		"telephone":          i.Telephone,
		"email":              i.Email,
		"categorie":          i.Categorie,
		"n_contribuable":     i.NContribuable,
		"type_tiers":         string(i.TypeTiers),
	}
}
