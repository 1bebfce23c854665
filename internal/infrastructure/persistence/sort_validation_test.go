package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"desc", "DESC"},
		{" DESC ", "DESC"},
		{"asc", "ASC"},
		{"", "ASC"},
		{"DROP TABLE", "ASC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValidateSortOrder(tt.input), tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	t.Run("accepts whitelisted traite fields", func(t *testing.T) {
		for field := range TraiteSortFields {
			assert.Equal(t, field, ValidateSortField(field, TraiteSortFields, "echeance"))
		}
	})

	t.Run("falls back on unknown or injected fields", func(t *testing.T) {
		assert.Equal(t, "echeance", ValidateSortField("", TraiteSortFields, "echeance"))
		assert.Equal(t, "echeance", ValidateSortField("rib", TraiteSortFields, "echeance"))
		assert.Equal(t, "echeance", ValidateSortField("montant; DROP TABLE traites", TraiteSortFields, "echeance"))
	})
}
