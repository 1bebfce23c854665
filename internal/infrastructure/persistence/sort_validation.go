package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "ASC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "DESC" {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TraiteSortFields contains allowed sort fields for traites
var TraiteSortFields = map[string]bool{
	"numero":             true,
	"nom_raison_sociale": true,
	"montant":            true,
	"echeance":           true,
	"date_emission":      true,
	"statut":             true,
	"created_at":         true,
	"nombre_traites":     true,
}

// TierSortFields contains allowed sort fields for tiers and pending clients
var TierSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"numero_compte":      true,
	"nom_raison_sociale": true,
	"ville":              true,
	"categorie":          true,
	"type_tiers":         true,
}
