package traite

import (
	"context"
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
)

// AlphaOther selects names that do not start with a letter A-Z
const AlphaOther = "#"

// ListFilter holds every list/filter option for traites
type ListFilter struct {
	shared.Filter
	Alpha    string
	Statut   Status
	DateFrom *time.Time
	DateTo   *time.Time
	// AsOf is the moment overdue Non échu rows start reading as Échu;
	// zero means now
	AsOf time.Time
}

// Normalize clamps pagination, swaps an inverted date range and picks the
// default sort (echeance, or name when browsing by initial)
func (f *ListFilter) Normalize() {
	f.Filter.Normalize()
	f.Search = strings.TrimSpace(f.Search)

	f.Alpha = strings.ToUpper(strings.TrimSpace(f.Alpha))
	if f.Alpha != "" && f.Alpha != AlphaOther {
		if c := f.Alpha[0]; c < 'A' || c > 'Z' {
			f.Alpha = AlphaOther
		} else {
			f.Alpha = f.Alpha[:1]
		}
	}

	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		f.DateFrom, f.DateTo = f.DateTo, f.DateFrom
	}

	if f.OrderBy == "" {
		f.OrderBy = DefaultSortField(f.Alpha != "")
	}
	f.OrderDir = strings.ToLower(f.OrderDir)
	if f.OrderDir != "desc" {
		f.OrderDir = "asc"
	}
}

// DefaultSortField returns the sort column used when none is requested
func DefaultSortField(alphaActive bool) string {
	if alphaActive {
		return "nom_raison_sociale"
	}
	return "echeance"
}

// TraiteRepository persists traites
type TraiteRepository interface {
	FindByID(ctx context.Context, id int64) (*Traite, error)
	ExistsByNumero(ctx context.Context, numero string, excludeID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Traite, int64, error)
	Save(ctx context.Context, t *Traite) error
	Delete(ctx context.Context, id int64) error
	LastID(ctx context.Context) (int64, error)
}
