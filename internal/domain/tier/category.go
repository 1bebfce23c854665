package tier

// Category values a tier can be filed under
const (
	CategoryParticuliers     = "Particuliers"
	CategorySalaries         = "Salariés"
	CategoryEntreprises      = "Entreprises"
	CategoryAdministrations  = "Administrations"
	CategoryConcessionnaires = "Concessionnaires"
	CategoryRevendeurs       = "Revendeurs"
	CategoryTransporteurs    = "Transporteurs"
	CategoryAutres           = "Autres"
)

// Categories returns the fixed category list in display order
func Categories() []string {
	return []string{
		CategoryParticuliers,
		CategorySalaries,
		CategoryEntreprises,
		CategoryAdministrations,
		CategoryConcessionnaires,
		CategoryRevendeurs,
		CategoryTransporteurs,
		CategoryAutres,
	}
}

// IsValidCategory checks membership in the fixed list
func IsValidCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryColor returns the dashboard color of a category
func CategoryColor(c string) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryAutres]
}

var categoryColors = map[string]string{
	CategoryParticuliers:     "#4e73df",
	CategorySalaries:         "#1cc88a",
	CategoryEntreprises:      "#36b9cc",
	CategoryAdministrations:  "#f6c23e",
	CategoryConcessionnaires: "#e74a3b",
	CategoryRevendeurs:       "#6f42c1",
	CategoryTransporteurs:    "#fd7e14",
	CategoryAutres:           "#858796",
}
