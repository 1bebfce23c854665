package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayouts are the date formats accepted in import files
var DateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02.01.2006"}

// ParseDate parses a date in any of DateLayouts, in UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseAmount parses a non-negative whole amount written with optional
// space or dot thousands grouping and an optional zero fraction
// ("1 500 000", "1.500.000", "1500000,00").
func ParseAmount(s string) (int64, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(s))
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else if strings.Count(cleaned, ".") > 1 || looksGrouped(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("amount %q must be a whole number", s)
	}
	return d.IntPart(), nil
}

// looksGrouped reports a single dot followed by exactly three digits ("1.500")
func looksGrouped(s string) bool {
	i := strings.IndexByte(s, '.')
	return i > 0 && len(s)-i-1 == 3
}

// ParseInt parses a whole number, defaulting blank values to def
func ParseInt(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
