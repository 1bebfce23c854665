package tier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2025, 5, 14, 9, 30, 15, 0, time.UTC)

func TestAccountNumberBase(t *testing.T) {
	assert.Equal(t, "GARAGECE250514093015", AccountNumberBase("Garage Central SARL", stamp))
	assert.Equal(t, "ETS250514093015", AccountNumberBase("Éts", stamp))
	assert.Equal(t, "TIER250514093015", AccountNumberBase("  --  ", stamp))

	for _, name := range []string{"A", "Société Générale de Distribution Automobile", "Ngô Ðình"} {
		assert.LessOrEqual(t, len(AccountNumberBase(name, stamp)), MaxAccountNumberLength)
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "GARAGECE2505140930"+"07", WithSuffix("GARAGECE250514093015", 7))
	assert.Equal(t, "ETS25051409301542", WithSuffix("ETS250514093015", 42))
	assert.Len(t, WithSuffix("GARAGECE250514093015", 99), MaxAccountNumberLength)
}

func TestAccountNumberGenerator_NoCollision(t *testing.T) {
	gen := NewAccountNumberGenerator().WithClock(func() time.Time { return stamp })

	got, err := gen.Generate(context.Background(), "Garage Central", func(context.Context, string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "GARAGECE250514093015", got)
}

func TestAccountNumberGenerator_SameBaseTwice(t *testing.T) {
	suffixes := []int{7, 7, 13}
	gen := NewAccountNumberGenerator().
		WithClock(func() time.Time { return stamp }).
		WithRandom(func(int) int {
			s := suffixes[0]
			suffixes = suffixes[1:]
			return s
		})

	issued := map[string]bool{}
	taken := func(_ context.Context, candidate string) (bool, error) {
		return issued[candidate], nil
	}

	first, err := gen.Generate(context.Background(), "Garage Central", taken)
	require.NoError(t, err)
	issued[first] = true

	second, err := gen.Generate(context.Background(), "Garage Central", taken)
	require.NoError(t, err)
	issued[second] = true

	third, err := gen.Generate(context.Background(), "Garage Central", taken)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)
	assert.Equal(t, "GARAGECE250514093013", third)
	for _, n := range []string{first, second, third} {
		assert.LessOrEqual(t, len(n), MaxAccountNumberLength)
	}
}

func TestAccountNumberGenerator_Exhausted(t *testing.T) {
	gen := NewAccountNumberGenerator().WithClock(func() time.Time { return stamp })
	_, err := gen.Generate(context.Background(), "Garage", func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, ErrAccountNumberExhausted)
}

func TestAccountNumberGenerator_LookupError(t *testing.T) {
	boom := errors.New("db down")
	gen := NewAccountNumberGenerator()
	_, err := gen.Generate(context.Background(), "Garage", func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
