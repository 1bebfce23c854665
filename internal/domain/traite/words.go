package traite

import (
	"errors"
	"strings"
)

// MaxWordsAmount is the largest amount ToFrenchWords can spell
const MaxWordsAmount int64 = 999_999_999_999

var (
	ErrNegativeAmount = errors.New("amount in words: negative amounts are not supported")
	ErrAmountTooLarge = errors.New("amount in words: amount exceeds 999 999 999 999")
)

var frenchUnits = [...]string{
	"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
	"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
	"dix-sept", "dix-huit", "dix-neuf",
}

var frenchTens = [...]string{
	"", "", "vingt", "trente", "quarante", "cinquante", "soixante",
}

// ToFrenchWords spells n in French, lowercase, e.g. 71 -> "soixante et onze"
func ToFrenchWords(n int64) (string, error) {
	if n < 0 {
		return "", ErrNegativeAmount
	}
	if n > MaxWordsAmount {
		return "", ErrAmountTooLarge
	}
	if n == 0 {
		return "zéro", nil
	}

	var parts []string

	if milliards := n / 1_000_000_000; milliards > 0 {
		parts = append(parts, scaled(milliards, "milliard"))
	}
	if millions := (n / 1_000_000) % 1000; millions > 0 {
		parts = append(parts, scaled(millions, "million"))
	}
	if milliers := (n / 1000) % 1000; milliers > 0 {
		if milliers == 1 {
			parts = append(parts, "mille")
		} else {
			// mille is invariable and freezes a preceding cents/vingts
			parts = append(parts, belowThousand(milliers, true)+" mille")
		}
	}
	if rest := n % 1000; rest > 0 {
		parts = append(parts, belowThousand(rest, false))
	}

	return strings.Join(parts, " "), nil
}

// scaled spells count followed by a noun that takes a plural "s"
func scaled(count int64, noun string) string {
	words := belowThousand(count, false) + " " + noun
	if count > 1 {
		words += "s"
	}
	return words
}

func belowThousand(n int64, beforeMille bool) string {
	hundreds, rest := n/100, n%100

	var b strings.Builder
	switch {
	case hundreds == 1:
		b.WriteString("cent")
	case hundreds > 1:
		b.WriteString(frenchUnits[hundreds])
		b.WriteString(" cent")
		if rest == 0 && !beforeMille {
			b.WriteString("s")
		}
	}

	if rest > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(belowHundred(rest, beforeMille))
	}
	return b.String()
}

func belowHundred(n int64, beforeMille bool) string {
	switch {
	case n < 20:
		return frenchUnits[n]
	case n < 70:
		tens, unit := n/10, n%10
		switch unit {
		case 0:
			return frenchTens[tens]
		case 1:
			return frenchTens[tens] + " et un"
		default:
			return frenchTens[tens] + "-" + frenchUnits[unit]
		}
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + frenchUnits[n-60]
	default:
		rest := n - 80
		if rest == 0 {
			if beforeMille {
				return "quatre-vingt"
			}
			return "quatre-vingts"
		}
		return "quatre-vingt-" + frenchUnits[rest]
	}
}
