package traite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFrenchWords(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "zéro"},
		{1, "un"},
		{16, "seize"},
		{17, "dix-sept"},
		{21, "vingt et un"},
		{22, "vingt-deux"},
		{61, "soixante et un"},
		{70, "soixante-dix"},
		{71, "soixante et onze"},
		{72, "soixante-douze"},
		{79, "soixante-dix-neuf"},
		{80, "quatre-vingts"},
		{81, "quatre-vingt-un"},
		{90, "quatre-vingt-dix"},
		{91, "quatre-vingt-onze"},
		{99, "quatre-vingt-dix-neuf"},
		{100, "cent"},
		{101, "cent un"},
		{180, "cent quatre-vingts"},
		{200, "deux cents"},
		{201, "deux cent un"},
		{1000, "mille"},
		{1001, "mille un"},
		{2000, "deux mille"},
		{80_000, "quatre-vingt mille"},
		{200_000, "deux cent mille"},
		{1_000_000, "un million"},
		{2_000_000, "deux millions"},
		{200_000_000, "deux cents millions"},
		{1_500_000, "un million cinq cent mille"},
		{1_000_000_000, "un milliard"},
		{3_000_000_021, "trois milliards vingt et un"},
		{999_999_999_999, "neuf cent quatre-vingt-dix-neuf milliards neuf cent quatre-vingt-dix-neuf millions neuf cent quatre-vingt-dix-neuf mille neuf cent quatre-vingt-dix-neuf"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := ToFrenchWords(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFrenchWords_RejectsOutOfRange(t *testing.T) {
	_, err := ToFrenchWords(-1)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ToFrenchWords(MaxWordsAmount + 1)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
}
