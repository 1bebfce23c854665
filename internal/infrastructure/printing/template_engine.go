package printing

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/traite"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageBreak separates tranche fragments inside one document
const PageBreak = `<div class="page-break"></div>`

// TranchePage is the data bound to one printed installment
type TranchePage struct {
	Letterhead    bool
	CompanyName   string
	CompanyCity   string
	Numero        string
	Index         int
	Total         int
	DateEmission  time.Time
	DueDate       time.Time
	Amount        int64
	AmountWords   string
	Drawee        string
	Domiciliation string
	RIB           string
	Motif         string
	Agios         string
}

// TemplateEngine renders traite documents from the embedded html/template set
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the embedded templates
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("traites").Funcs(funcMap()).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse document templates", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatAmount": traite.FormatAmount,
		"formatDate":   formatDate,
		"lower":        strings.ToLower,
		"upper":        strings.ToUpper,
		"default":      defaultString,
		"pageBreak":    func() template.HTML { return template.HTML(PageBreak) },
	}
}

// RenderTranche renders the HTML fragment of one installment
func (e *TemplateEngine) RenderTranche(page TranchePage) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "tranche", page); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute tranche template", err)
	}
	return buf.String(), nil
}

// RenderDocument wraps fragments in a complete A4 document, joined by PageBreak
func (e *TemplateEngine) RenderDocument(title string, fragments []string) (string, error) {
	pages := make([]template.HTML, len(fragments))
	for i, f := range fragments {
		pages[i] = template.HTML(f) // #nosec G203 -- fragments come from RenderTranche
	}

	var buf bytes.Buffer
	err := e.tmpl.ExecuteTemplate(&buf, "document", struct {
		Title string
		Pages []template.HTML
	}{Title: title, Pages: pages})
	if err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute document template", err)
	}
	return buf.String(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(traite.DisplayDateLayout)
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
