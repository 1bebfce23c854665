package traite

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the lifecycle state of a traite
type Status string

const (
	StatusNonEchu Status = "Non échu"
	StatusEchu    Status = "Échu"
	StatusImpaye  Status = "Impayé"
	StatusRejete  Status = "Rejeté"
	StatusPaye    Status = "Payé"
)

// AllStatuses returns the statuses in business priority order
func AllStatuses() []Status {
	return []Status{StatusNonEchu, StatusEchu, StatusImpaye, StatusRejete, StatusPaye}
}

// IsValid checks if the status is one of the known values
func (s Status) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus resolves a free-form label ("echu", "NON ECHU", "Échu")
// to a Status, ignoring case and accents.
func ParseStatus(label string) (Status, bool) {
	key := NormalizeStatusLabel(label)
	if key == "" {
		return "", false
	}
	for _, s := range AllStatuses() {
		if NormalizeStatusLabel(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

// NormalizeStatusLabel folds a label to lowercase ASCII with collapsed spaces
func NormalizeStatusLabel(label string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		label,
	)
	if err != nil {
		folded = label
	}
	return strings.Join(strings.Fields(cases.Lower(language.French).String(folded)), " ")
}

// Origine tells whether a traite was issued in-house or imported
type Origine string

const (
	OrigineInterne Origine = "Interne"
	OrigineExterne Origine = "Externe"
)

// IsValid checks if the origin is known
func (o Origine) IsValid() bool {
	return o == OrigineInterne || o == OrigineExterne
}

// Agios designates who bears the bank charges printed on the document
type Agios string

const (
	AgiosTireur Agios = "Tireur"
	AgiosTire   Agios = "Tiré"
)

// IsValid checks if the value is known; empty is allowed
func (a Agios) IsValid() bool {
	return a == "" || a == AgiosTireur || a == AgiosTire
}
