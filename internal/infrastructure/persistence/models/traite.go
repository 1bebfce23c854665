package models

import (
	"time"

	"github.com/traitedesk/backend/internal/domain/traite"
)

// TraiteModel is the persistence model for the Traite domain entity
type TraiteModel struct {
	BaseModel
	Numero                string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_traites_numero"`
	NombreTraites         int       `gorm:"not null;default:1"`
	DateEmission          time.Time `gorm:"type:date;not null;index"`
	Echeance              time.Time `gorm:"type:date;not null;index"`
	Montant               int64     `gorm:"not null;default:0"`
	NomRaisonSociale      string    `gorm:"type:varchar(255);not null;index"`
	DomiciliationBancaire string    `gorm:"type:varchar(255)"`
	RIB                   string    `gorm:"column:rib;type:varchar(64)"`
	Motif                 string    `gorm:"type:text"`
	Commentaires          string    `gorm:"type:text"`
	Statut                string    `gorm:"type:varchar(32);not null;default:'Non échu';index"`
	OrigineTraite         string    `gorm:"type:varchar(16);not null;default:'Interne'"`
	Agios                 string    `gorm:"type:varchar(16)"`
	// display renderings kept for substring search
	MontantTexte string `gorm:"type:varchar(32);not null;default:''"`
	DatesTexte   string `gorm:"type:varchar(32);not null;default:''"`
}

// TableName returns the table name for GORM
func (TraiteModel) TableName() string {
	return "traites"
}

// ToDomain converts the persistence model to a domain Traite
func (m *TraiteModel) ToDomain() *traite.Traite {
	return &traite.Traite{
		ID:                    m.ID,
		Numero:                m.Numero,
		NombreTraites:         m.NombreTraites,
		DateEmission:          m.DateEmission,
		Echeance:              m.Echeance,
		Montant:               m.Montant,
		NomRaisonSociale:      m.NomRaisonSociale,
		DomiciliationBancaire: m.DomiciliationBancaire,
		RIB:                   m.RIB,
		Motif:                 m.Motif,
		Commentaires:          m.Commentaires,
		Statut:                traite.Status(m.Statut),
		Origine:               traite.Origine(m.OrigineTraite),
		Agios:                 traite.Agios(m.Agios),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// TraiteModelFromDomain creates a persistence model from a domain Traite
func TraiteModelFromDomain(t *traite.Traite) *TraiteModel {
	return &TraiteModel{
		BaseModel: BaseModel{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
		Numero:                t.Numero,
		NombreTraites:         t.NombreTraites,
		DateEmission:          dateOnly(t.DateEmission),
		Echeance:              dateOnly(t.Echeance),
		Montant:               t.Montant,
		NomRaisonSociale:      t.NomRaisonSociale,
		DomiciliationBancaire: t.DomiciliationBancaire,
		RIB:                   t.RIB,
		Motif:                 t.Motif,
		Commentaires:          t.Commentaires,
		Statut:                string(t.Statut),
		OrigineTraite:         string(t.Origine),
		Agios:                 string(t.Agios),
		MontantTexte:          traite.FormatAmount(t.Montant),
		DatesTexte:            searchDates(t.DateEmission, t.Echeance),
	}
}

// searchDates renders both dates as dd/mm/yyyy, emission first
func searchDates(emission, echeance time.Time) string {
	return dateOnly(emission).Format(traite.DisplayDateLayout) + " " + dateOnly(echeance).Format(traite.DisplayDateLayout)
}
