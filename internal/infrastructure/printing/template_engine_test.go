package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePage() TranchePage {
	return TranchePage{
		Letterhead:    true,
		CompanyName:   "SODIVA",
		CompanyCity:   "Douala",
		Numero:        "TR-202501-000042",
		Index:         2,
		Total:         3,
		DateEmission:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Amount:        1500000,
		AmountWords:   "UN MILLION CINQ CENT MILLE",
		Drawee:        "Garage <Central>",
		Domiciliation: "Afriland First Bank",
		RIB:           "10005 00001 12345678901 42",
		Motif:         "Achat véhicule",
		Agios:         "Tiré",
	}
}

func TestTemplateEngine_RenderTranche(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	t.Run("binds every field", func(t *testing.T) {
		html, err := engine.RenderTranche(samplePage())
		require.NoError(t, err)

		assert.Contains(t, html, "TR-202501-000042")
		assert.Contains(t, html, "2/3")
		assert.Contains(t, html, "1 500 000 FCFA")
		assert.Contains(t, html, "31/03/2025")
		assert.Contains(t, html, "15/01/2025")
		assert.Contains(t, html, "UN MILLION CINQ CENT MILLE")
		assert.Contains(t, html, "Afriland First Bank")
		assert.Contains(t, html, "À la charge du tiré")
		assert.Contains(t, html, `class="letterhead"`)
	})

	t.Run("escapes user content", func(t *testing.T) {
		html, err := engine.RenderTranche(samplePage())
		require.NoError(t, err)

		assert.Contains(t, html, "Garage &lt;Central&gt;")
		assert.NotContains(t, html, "<Central>")
	})

	t.Run("single tranche omits the index and optional rows", func(t *testing.T) {
		page := samplePage()
		page.Total, page.Index = 1, 1
		page.Letterhead = false
		page.Motif, page.Agios, page.RIB = "", "", ""

		html, err := engine.RenderTranche(page)
		require.NoError(t, err)

		assert.NotContains(t, html, "1/1")
		assert.NotContains(t, html, "Motif")
		assert.NotContains(t, html, "Agios")
		assert.NotContains(t, html, `class="letterhead"`)
		assert.Contains(t, html, `<td class="mono">-</td>`)
	})
}

func TestTemplateEngine_RenderDocument(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	doc, err := engine.RenderDocument("TR-202501-000042", []string{"<p>one</p>", "<p>two</p>", "<p>three</p>"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "<title>TR-202501-000042</title>")
	assert.Equal(t, 2, strings.Count(doc, PageBreak))
	assert.Less(t, strings.Index(doc, "<p>one</p>"), strings.Index(doc, "<p>two</p>"))
	assert.Contains(t, doc, "@page { size: A4; margin: 0; }")
}
