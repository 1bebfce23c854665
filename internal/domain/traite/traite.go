package traite

import (
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
)

// Traite is a bill of exchange split into one or more tranches
type Traite struct {
	ID                    int64
	Numero                string
	NombreTraites         int
	DateEmission          time.Time
	Echeance              time.Time
	Montant               int64
	NomRaisonSociale      string
	DomiciliationBancaire string
	RIB                   string
	Motif                 string
	Commentaires          string
	Statut                Status
	Origine               Origine
	Agios                 Agios
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Input carries the editable fields of a traite
type Input struct {
	Numero                string
	NombreTraites         int
	DateEmission          time.Time
	Echeance              time.Time
	Montant               int64
	NomRaisonSociale      string
	DomiciliationBancaire string
	RIB                   string
	Motif                 string
	Commentaires          string
	Statut                string
	Origine               string
	Agios                 string
}

// Validate returns field-level errors for the input
func (in Input) Validate() shared.ValidationErrors {
	errs := shared.ValidationErrors{}
	if in.NombreTraites < 1 {
		errs.Add("nombre_traites", "must be at least 1")
	}
	if in.DateEmission.IsZero() {
		errs.Add("date_emission", "is required")
	}
	if in.Echeance.IsZero() {
		errs.Add("echeance", "is required")
	}
	if in.Montant < 0 {
		errs.Add("montant", "must be greater than or equal to 0")
	}
	if strings.TrimSpace(in.NomRaisonSociale) == "" {
		errs.Add("nom_raison_sociale", "is required")
	}
	if in.Statut != "" && !Status(in.Statut).IsValid() {
		errs.Add("statut", "must be one of: Non échu, Échu, Impayé, Rejeté, Payé")
	}
	if in.Origine != "" && !Origine(in.Origine).IsValid() {
		errs.Add("origine_traite", "must be one of: Interne, Externe")
	}
	if !Agios(in.Agios).IsValid() {
		errs.Add("agios", "must be one of: Tireur, Tiré")
	}
	return errs
}

// NewTraite validates input and builds a new traite.
// The numero may be blank; the caller assigns one before saving.
func NewTraite(in Input) (*Traite, error) {
	if err := in.Validate().Err(); err != nil {
		return nil, err
	}
	now := time.Now()
	t := &Traite{
		Statut:    StatusNonEchu,
		Origine:   OrigineInterne,
		CreatedAt: now,
	}
	t.apply(in)
	t.UpdatedAt = now
	return t, nil
}

// Update replaces every editable field after validation
func (t *Traite) Update(in Input) error {
	if err := in.Validate().Err(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Numero) == "" {
		in.Numero = t.Numero
	}
	t.apply(in)
	t.UpdatedAt = time.Now()
	return nil
}

func (t *Traite) apply(in Input) {
	t.Numero = strings.TrimSpace(in.Numero)
	t.NombreTraites = in.NombreTraites
	t.DateEmission = in.DateEmission
	t.Echeance = in.Echeance
	t.Montant = in.Montant
	t.NomRaisonSociale = strings.TrimSpace(in.NomRaisonSociale)
	t.DomiciliationBancaire = strings.TrimSpace(in.DomiciliationBancaire)
	t.RIB = strings.TrimSpace(in.RIB)
	t.Motif = in.Motif
	t.Commentaires = in.Commentaires
	t.Agios = Agios(in.Agios)
	if in.Statut != "" {
		t.Statut = Status(in.Statut)
	}
	if in.Origine != "" {
		t.Origine = Origine(in.Origine)
	}
}

// HasNumero reports whether a business number is already assigned
func (t *Traite) HasNumero() bool {
	return t.Numero != ""
}

// AssignNumero sets the number only when none was supplied
func (t *Traite) AssignNumero(numero string) {
	if !t.HasNumero() {
		t.Numero = numero
	}
}

// ChangeStatus writes a new status. Any-to-any transitions are allowed.
func (t *Traite) ChangeStatus(s Status) error {
	if !s.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "statut must be one of: Non échu, Échu, Impayé, Rejeté, Payé")
	}
	t.Statut = s
	t.UpdatedAt = time.Now()
	return nil
}

// IsOverdue reports whether the first due date is before today's date
func (t *Traite) IsOverdue(now time.Time) bool {
	if t.Echeance.IsZero() {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	ey, em, ed := t.Echeance.In(now.Location()).Date()
	return time.Date(ey, em, ed, 0, 0, 0, 0, now.Location()).Before(today)
}

// EffectiveStatus returns the status a reader should see at now
func (t *Traite) EffectiveStatus(now time.Time) Status {
	if t.Statut == StatusNonEchu && t.IsOverdue(now) {
		return StatusEchu
	}
	return t.Statut
}

// Coerce applies the read-time Non échu -> Échu rule in place and reports
// whether the status changed. Calling it again is a no-op.
func (t *Traite) Coerce(now time.Time) bool {
	effective := t.EffectiveStatus(now)
	if effective == t.Statut {
		return false
	}
	t.Statut = effective
	return true
}

// TotalTranches is the installment count used for documents
func (t *Traite) TotalTranches() int {
	return max(1, t.NombreTraites)
}
