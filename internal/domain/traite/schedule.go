package traite

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AddMonthsClamped adds months without overflowing into the next month:
// Jan 31 + 1 month is the last day of February.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysInMonth(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Tranche is one printable installment of a traite
type Tranche struct {
	Index       int
	Total       int
	DueDate     time.Time
	Amount      int64
	AmountWords string
}

// Tranches computes due dates, amounts and amounts-in-words for every installment
func (t *Traite) Tranches() ([]Tranche, error) {
	total := t.TotalTranches()
	amounts := Split(t.Montant, total)

	out := make([]Tranche, total)
	for i := range total {
		words, err := ToFrenchWords(amounts[i])
		if err != nil {
			return nil, err
		}
		out[i] = Tranche{
			Index:       i + 1,
			Total:       total,
			DueDate:     AddMonthsClamped(t.Echeance, i),
			Amount:      amounts[i],
			AmountWords: cases.Upper(language.French).String(words),
		}
	}
	return out, nil
}
