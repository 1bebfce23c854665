package main

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	tierapp "github.com/traitedesk/backend/internal/application/tier"
	traiteapp "github.com/traitedesk/backend/internal/application/traite"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/domain/traite"
)

var (
	banks = []string{
		"Afriland First Bank", "SGC Douala", "BICEC Yaoundé", "Ecobank Cameroun",
		"UBA Cameroon", "SCB Cameroun", "CCA Bank",
	}
	cities   = []string{"Douala", "Yaoundé", "Bafoussam", "Garoua", "Limbé", "Kribi", "Bamenda"}
	statuses = []traite.Status{
		traite.StatusNonEchu, traite.StatusEchu, traite.StatusImpaye, traite.StatusRejete, traite.StatusPaye,
	}
)

// Fixtures generates demo records from a seeded faker
type Fixtures struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewFixtures creates a generator. A zero seed picks a random one.
func NewFixtures(seed uint64, now time.Time) *Fixtures {
	return &Fixtures{faker: gofakeit.New(seed), now: now}
}

// Traite returns a create request dated within the last year
func (f *Fixtures) Traite() traiteapp.TraiteRequest {
	emission := f.faker.DateRange(f.now.AddDate(-1, 0, 0), f.now)
	echeance := emission.AddDate(0, f.faker.IntRange(1, 6), f.faker.IntRange(0, 27))
	nombre := f.faker.IntRange(1, 6)

	req := traiteapp.TraiteRequest{
		NombreTraites:         nombre,
		DateEmission:          emission.Format(traiteapp.APIDateLayout),
		Echeance:              echeance.Format(traiteapp.APIDateLayout),
		Montant:               int64(f.faker.IntRange(10, 5000)) * 10000,
		NomRaisonSociale:      f.faker.Company(),
		DomiciliationBancaire: f.faker.RandomString(banks),
		RIB:                   f.faker.Numerify("10005 00001 ###########  ##"),
		Motif:                 "Facture " + f.faker.Numerify("FAC-#####"),
		OrigineTraite:         f.faker.RandomString([]string{"Interne", "Externe"}),
		Statut:                string(statuses[f.faker.IntRange(0, len(statuses)-1)]),
	}
	if f.faker.Bool() {
		req.Agios = f.faker.RandomString([]string{string(traite.AgiosTireur), string(traite.AgiosTire)})
	}
	if f.faker.IntRange(0, 4) == 0 {
		req.Commentaires = f.faker.Sentence(8)
	}
	return req
}

// Identity returns the identity of a tier of the given type
func (f *Fixtures) Identity(typ tier.Type) tierapp.IdentityRequest {
	categories := tier.Categories()
	return tierapp.IdentityRequest{
		NomRaisonSociale: f.faker.Company(),
		BP:               f.faker.Numerify("BP ####"),
		Ville:            f.faker.RandomString(cities),
		Pays:             "Cameroun",
		AdresseGeo1:      f.faker.Street(),
		Telephone:        f.faker.Numerify("+237 6## ### ###"),
		Email:            f.faker.Email(),
		Categorie:        categories[f.faker.IntRange(0, len(categories)-1)],
		NContribuable:    f.faker.Numerify("M0##########Z"),
		TypeTiers:        string(typ),
	}
}

// PendingClient returns a client account opening request
func (f *Fixtures) PendingClient() tierapp.PendingClientRequest {
	billed := int64(f.faker.IntRange(1, 200)) * 50000
	paid := billed * int64(f.faker.IntRange(0, 10)) / 10
	credit := billed - paid

	return tierapp.PendingClientRequest{
		IdentityRequest: f.Identity(tier.TypeClient),
		Opening: tierapp.OpeningRequestDTO{
			DateCreation:   f.faker.DateRange(f.now.AddDate(0, -3, 0), f.now).Format(time.DateOnly),
			MontantFacture: &billed,
			MontantPaye:    &paid,
			Credit:         &credit,
			Motif:          "Ouverture de compte client",
			Etablissement:  f.faker.RandomString(cities),
			Service:        f.faker.RandomString([]string{"Commercial", "Comptabilité", "Recouvrement"}),
			NomSignataire:  f.faker.Name(),
		},
	}
}

// Decision picks what the demo reviewer does with a pending client
func (f *Fixtures) Decision() Decision {
	switch n := f.faker.IntRange(0, 9); {
	case n < 5:
		return DecisionApprove
	case n < 7:
		return DecisionReject
	default:
		return DecisionLeave
	}
}

// RejectReason returns a reviewer comment
func (f *Fixtures) RejectReason() string {
	return f.faker.RandomString([]string{
		"Pièces justificatives incomplètes",
		"Numéro de contribuable invalide",
		"Doublon d'un compte existant",
	})
}

// Decision is the review outcome of a seeded pending client
type Decision int

const (
	DecisionLeave Decision = iota
	DecisionApprove
	DecisionReject
)
