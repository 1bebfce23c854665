package tier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/traitedesk/backend/internal/domain/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxAccountNumberLength bounds numero_compte
	MaxAccountNumberLength = 20
	accountNamePrefixLen   = 8
	accountStampLayout     = "060102150405"
	maxSuffixAttempts      = 20
)

// ErrAccountNumberExhausted is returned when no free suffix was found
var ErrAccountNumberExhausted = shared.NewDomainError("ACCOUNT_NUMBER_EXHAUSTED", "could not generate a unique numero_compte")

// AccountNumberBase derives the candidate number from the name and a timestamp
func AccountNumberBase(name string, now time.Time) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	var prefix strings.Builder
	for _, r := range strings.ToUpper(folded) {
		if prefix.Len() == accountNamePrefixLen {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prefix.WriteRune(r)
		}
	}
	if prefix.Len() == 0 {
		prefix.WriteString("TIER")
	}

	base := prefix.String() + now.Format(accountStampLayout)
	if len(base) > MaxAccountNumberLength {
		base = base[:MaxAccountNumberLength]
	}
	return base
}

// WithSuffix appends a 2-digit suffix, overwriting the tail when the
// result would exceed MaxAccountNumberLength
func WithSuffix(base string, suffix int) string {
	tail := fmt.Sprintf("%02d", suffix%100)
	if len(base)+len(tail) > MaxAccountNumberLength {
		base = base[:MaxAccountNumberLength-len(tail)]
	}
	return base + tail
}

// AccountNumberGenerator issues unique account numbers
type AccountNumberGenerator struct {
	now   func() time.Time
	intN  func(n int) int
	tries int
}

// NewAccountNumberGenerator creates a generator using the wall clock and math/rand
func NewAccountNumberGenerator() *AccountNumberGenerator {
	return &AccountNumberGenerator{
		now:   time.Now,
		intN:  rand.IntN,
		tries: maxSuffixAttempts,
	}
}

// WithClock overrides the time source
func (g *AccountNumberGenerator) WithClock(now func() time.Time) *AccountNumberGenerator {
	g.now = now
	return g
}

// WithRandom overrides the suffix source
func (g *AccountNumberGenerator) WithRandom(intN func(n int) int) *AccountNumberGenerator {
	g.intN = intN
	return g
}

// Generate returns the base number for name, or a suffixed variant when taken
func (g *AccountNumberGenerator) Generate(ctx context.Context, name string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	candidate := AccountNumberBase(name, g.now())
	exists, err := taken(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}

	base := candidate
	for range g.tries {
		candidate = WithSuffix(base, g.intN(100))
		exists, err = taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrAccountNumberExhausted
}
