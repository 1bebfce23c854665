package traite

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DisplayDateLayout is the dd/mm/yyyy layout used on screens and documents
const DisplayDateLayout = "02/01/2006"

// FormatAmount groups thousands with plain spaces: 1500000 -> "1 500 000"
func FormatAmount(amount int64) string {
	s := message.NewPrinter(language.French).Sprintf("%d", amount)
	return strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(s)
}

// SearchTerms is a free-text search split into the forms it can match
type SearchTerms struct {
	Text   string
	Amount *int64
	Date   *time.Time
}

// ParseSearch interprets a search box value. Besides the raw text it may be a
// formatted amount ("1 500 000", "1.500.000,00") or a date ("15/05/2025").
func ParseSearch(term string) SearchTerms {
	terms := SearchTerms{Text: strings.TrimSpace(term)}
	if terms.Text == "" {
		return terms
	}

	if d, err := time.Parse(DisplayDateLayout, terms.Text); err == nil {
		terms.Date = &d
	} else if d, err := time.Parse("2006-01-02", terms.Text); err == nil {
		terms.Date = &d
	}

	if amount, ok := parseAmount(terms.Text); ok {
		terms.Amount = &amount
	}
	return terms
}

// parseAmount accepts integers written with space or dot grouping and an
// optional zero fractional part after a comma
func parseAmount(s string) (int64, bool) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ".", "").Replace(s)
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" || strings.ContainsAny(cleaned, "/-+") {
		return 0, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return 0, false
	}
	return d.IntPart(), true
}
