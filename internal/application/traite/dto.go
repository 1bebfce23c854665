package traite

import (
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
)

// APIDateLayout is the date format of request and response bodies
const APIDateLayout = "2006-01-02"

// TraiteRequest is the body of create and update calls
type TraiteRequest struct {
	Numero                string `json:"numero" binding:"max=50"`
	NombreTraites         int    `json:"nombre_traites" binding:"omitempty,min=1,max=120"`
	DateEmission          string `json:"date_emission" binding:"required"`
	Echeance              string `json:"echeance" binding:"required"`
	Montant               int64  `json:"montant" binding:"min=0"`
	NomRaisonSociale      string `json:"nom_raison_sociale" binding:"required,max=255"`
	DomiciliationBancaire string `json:"domiciliation_bancaire" binding:"max=255"`
	RIB                   string `json:"rib" binding:"max=64"`
	Motif                 string `json:"motif"`
	Commentaires          string `json:"commentaires"`
	Statut                string `json:"statut"`
	OrigineTraite         string `json:"origine_traite" binding:"omitempty,oneof=Interne Externe"`
	Agios                 string `json:"agios"`
}

// UpdateStatusRequest is the body of the status endpoint
type UpdateStatusRequest struct {
	Statut string `json:"statut" binding:"required"`
}

// ToInput converts the request to a domain input, collecting date errors
func (r TraiteRequest) ToInput() (traite.Input, error) {
	errs := shared.ValidationErrors{}
	in := traite.Input{
		Numero:                r.Numero,
		NombreTraites:         r.NombreTraites,
		DateEmission:          ParseDate("date_emission", r.DateEmission, errs),
		Echeance:              ParseDate("echeance", r.Echeance, errs),
		Montant:               r.Montant,
		NomRaisonSociale:      r.NomRaisonSociale,
		DomiciliationBancaire: r.DomiciliationBancaire,
		RIB:                   r.RIB,
		Motif:                 r.Motif,
		Commentaires:          r.Commentaires,
		Statut:                canonicalStatus(r.Statut),
		Origine:               r.OrigineTraite,
		Agios:                 r.Agios,
	}
	if in.NombreTraites == 0 {
		in.NombreTraites = 1
	}
	return in, errs.Err()
}

// canonicalStatus maps "echu" or "NON ECHU" to the stored label and leaves
// unknown labels untouched so validation can report them
func canonicalStatus(label string) string {
	if s, ok := traite.ParseStatus(label); ok {
		return string(s)
	}
	return strings.TrimSpace(label)
}

// ParseDate reads a date in ISO, RFC 3339 or dd/mm/yyyy form. A bad value is
// recorded in errs under field and the zero time is returned.
func ParseDate(field, value string, errs shared.ValidationErrors) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{APIDateLayout, time.RFC3339, traite.DisplayDateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	errs.Add(field, "must be a date (YYYY-MM-DD or DD/MM/YYYY)")
	return time.Time{}
}

// TraiteResponse is a traite as returned by the API
type TraiteResponse struct {
	ID                    int64     `json:"id"`
	Numero                string    `json:"numero"`
	NombreTraites         int       `json:"nombre_traites"`
	DateEmission          string    `json:"date_emission"`
	Echeance              string    `json:"echeance"`
	Montant               int64     `json:"montant"`
	MontantFormate        string    `json:"montant_formate"`
	NomRaisonSociale      string    `json:"nom_raison_sociale"`
	DomiciliationBancaire string    `json:"domiciliation_bancaire"`
	RIB                   string    `json:"rib"`
	Motif                 string    `json:"motif"`
	Commentaires          string    `json:"commentaires"`
	Statut                string    `json:"statut"`
	OrigineTraite         string    `json:"origine_traite"`
	Agios                 string    `json:"agios,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ToTraiteResponse converts a domain traite to its API shape
func ToTraiteResponse(t *traite.Traite) TraiteResponse {
	return TraiteResponse{
		ID:                    t.ID,
		Numero:                t.Numero,
		NombreTraites:         t.NombreTraites,
		DateEmission:          formatDate(t.DateEmission),
		Echeance:              formatDate(t.Echeance),
		Montant:               t.Montant,
		MontantFormate:        traite.FormatAmount(t.Montant),
		NomRaisonSociale:      t.NomRaisonSociale,
		DomiciliationBancaire: t.DomiciliationBancaire,
		RIB:                   t.RIB,
		Motif:                 t.Motif,
		Commentaires:          t.Commentaires,
		Statut:                string(t.Statut),
		OrigineTraite:         string(t.Origine),
		Agios:                 string(t.Agios),
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(APIDateLayout)
}
