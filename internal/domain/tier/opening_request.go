package tier

import (
	"context"
	"strings"
	"time"
)

// OpeningRequest holds the optional account-opening details captured at submission
type OpeningRequest struct {
	DateCreation   *time.Time
	MontantFacture *int64
	MontantPaye    *int64
	Credit         *int64
	Motif          string
	Etablissement  string
	Service        string
	NomSignataire  string
}

// Columns returns the populated fields keyed by column name
func (r OpeningRequest) Columns() map[string]any {
	cols := make(map[string]any)
	if r.DateCreation != nil {
		cols["date_creation"] = *r.DateCreation
	}
	if r.MontantFacture != nil {
		cols["montant_facture"] = *r.MontantFacture
	}
	if r.MontantPaye != nil {
		cols["montant_paye"] = *r.MontantPaye
	}
	if r.Credit != nil {
		cols["credit"] = *r.Credit
	}
	for col, v := range map[string]string{
		"motif":          r.Motif,
		"etablissement":  r.Etablissement,
		"service":        r.Service,
		"nom_signataire": r.NomSignataire,
	} {
		if s := strings.TrimSpace(v); s != "" {
			cols[col] = s
		}
	}
	return cols
}

// IsEmpty reports whether no detail was provided
func (r OpeningRequest) IsEmpty() bool {
	return len(r.Columns()) == 0
}

// OpeningRequestStore writes account-opening rows into a table whose
// presence and columns are discovered at runtime
type OpeningRequestStore interface {
	// HasField reports whether the table exists and has the column
	HasField(ctx context.Context, name string) (bool, error)
	// WriteIfSupported inserts only the columns the table has. It returns
	// false without error when the table is absent.
	WriteIfSupported(ctx context.Context, tierID int64, req OpeningRequest) (bool, error)
}
