// Package document renders printable traite documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/infrastructure/printing"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TraiteFinder loads the traite to print
type TraiteFinder interface {
	Find(ctx context.Context, id int64) (*traite.Traite, error)
}

// Archiver stores rendered PDFs
type Archiver interface {
	DocumentKey(numero, mode string) string
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Config holds the document letterhead and renderer timeouts
type Config struct {
	CompanyName string
	CompanyCity string
	Timeouts    Timeouts
}

// Strategy is one step of the renderer chain
type Strategy = printing.Strategy

// Document is a rendered artifact ready to be served
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
	Renderer    string
	PageCount   int
	// ArchiveKey is set when the artifact was archived
	ArchiveKey string
}

// Service renders traite documents through an ordered renderer chain
type Service struct {
	traites   TraiteFinder
	templates *printing.TemplateEngine
	cfg       Config

	browserPDF  printing.PDFRenderer
	screenshots printing.Screenshotter
	fallback    printing.PDFRenderer
	archive     Archiver

	chain   *printing.Chain
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// Option configures a Service
type Option func(*Service)

// WithBrowser sets the primary, pixel-faithful renderer
func WithBrowser(pdf printing.PDFRenderer, screenshots printing.Screenshotter) Option {
	return func(s *Service) {
		s.browserPDF = pdf
		s.screenshots = screenshots
	}
}

// WithFallback sets the direct HTML-to-PDF renderer tried after the browser
func WithFallback(pdf printing.PDFRenderer) Option {
	return func(s *Service) { s.fallback = pdf }
}

// WithArchive archives successful PDFs
func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithLogger sets the fallback logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records render durations and outcomes
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a document Service
func NewService(traites TraiteFinder, templates *printing.TemplateEngine, cfg Config, opts ...Option) *Service {
	cfg.Timeouts = cfg.Timeouts.withDefaults()
	s := &Service{
		traites:   traites,
		templates: templates,
		cfg:       cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chain = printing.NewChain(s.logger)
	return s
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Render produces the document of traite id in the given mode
func (s *Service) Render(ctx context.Context, id int64, mode Mode) (doc *Document, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render",
		telemetry.SpanAttrTraiteID, id,
		telemetry.SpanAttrDocumentMode, string(mode),
	)
	defer span.End()
	defer func() {
		s.metrics.ObserveDocument(string(mode), err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if !isKnownMode(mode) {
		errs := shared.ValidationErrors{}
		errs.Add("mode", "must be one of: "+joinModes())
		return nil, errs
	}

	t, err := s.traites.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	fragments, err := s.fragments(t)
	if err != nil {
		return nil, err
	}

	title := "Traite " + t.Numero
	artifact, err := s.render(ctx, mode, title, fragments)
	if err != nil {
		s.log(ctx).Error("Document rendering failed",
			zap.Int64("traite_id", id),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return nil, err
	}

	doc = &Document{
		Data:        artifact.Data,
		ContentType: artifact.ContentType,
		Filename:    filename(t.Numero, mode, artifact.ContentType),
		Renderer:    artifact.Renderer,
		PageCount:   artifact.PageCount,
	}
	if doc.ContentType == printing.ContentTypePDF {
		doc.ArchiveKey = s.archiveCopy(ctx, t.Numero, mode, doc.Data)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRenderer, doc.Renderer,
		telemetry.SpanAttrPageCount, doc.PageCount,
	)
	s.log(ctx).Info("Document rendered",
		zap.Int64("traite_id", id),
		zap.String("mode", string(mode)),
		zap.String("renderer", doc.Renderer),
		zap.Int("bytes", len(doc.Data)),
		zap.Duration("duration", artifact.Duration),
	)
	return doc, nil
}

// fragments renders one HTML fragment per tranche
func (s *Service) fragments(t *traite.Traite) ([]string, error) {
	tranches, err := t.Tranches()
	if err != nil {
		errs := shared.ValidationErrors{}
		errs.Add("montant", err.Error())
		return nil, errs
	}

	out := make([]string, len(tranches))
	for i, tr := range tranches {
		html, err := s.templates.RenderTranche(printing.TranchePage{
			Letterhead:    true,
			CompanyName:   s.cfg.CompanyName,
			CompanyCity:   s.cfg.CompanyCity,
			Numero:        t.Numero,
			Index:         tr.Index,
			Total:         tr.Total,
			DateEmission:  t.DateEmission,
			DueDate:       tr.DueDate,
			Amount:        tr.Amount,
			AmountWords:   tr.AmountWords,
			Drawee:        t.NomRaisonSociale,
			Domiciliation: t.DomiciliationBancaire,
			RIB:           t.RIB,
			Motif:         t.Motif,
			Agios:         string(t.Agios),
		})
		if err != nil {
			return nil, err
		}
		out[i] = html
	}
	return out, nil
}

func (s *Service) render(ctx context.Context, mode Mode, title string, fragments []string) (*printing.Artifact, error) {
	timeout := s.cfg.Timeouts.forMode(mode)

	switch mode {
	case ModeTestImage:
		html, err := s.templates.RenderDocument(title, fragments[:1])
		if err != nil {
			return nil, err
		}
		req := &printing.Request{HTML: html, Title: title, Timeout: timeout}
		return s.chain.Run(ctx, "test image rendering failed", s.screenshotStrategies(mode, req)...)

	case ModeFullPageScreenshot:
		html, err := s.templates.RenderDocument(title, fragments)
		if err != nil {
			return nil, err
		}
		req := &printing.Request{HTML: html, Title: title, FullPage: true, Timeout: timeout}
		return s.chain.Run(ctx, "screenshot rendering failed", s.screenshotStrategies(mode, req)...)

	case ModeCompositedPDF:
		html, err := s.templates.RenderDocument(title, fragments)
		if err != nil {
			return nil, err
		}
		var strategies []Strategy
		if s.screenshots != nil {
			strategies = append(strategies, Strategy{
				Name: s.screenshots.Name() + "+composite",
				Run: func(ctx context.Context) (*printing.Artifact, error) {
					return s.composite(ctx, title, fragments, timeout)
				},
			})
		}
		req := &printing.Request{HTML: html, Title: title, Timeout: s.cfg.Timeouts.PDF}
		strategies = append(strategies, s.pdfStrategies(req, s.fallback)...)
		return s.chain.Run(ctx, "composited PDF rendering failed", s.timed(mode, timeout, strategies)...)

	default:
		html, err := s.templates.RenderDocument(title, fragments)
		if err != nil {
			return nil, err
		}
		req := &printing.Request{HTML: html, Title: title, Timeout: timeout}
		return s.chain.Run(ctx, "PDF rendering failed", s.timed(mode, timeout, s.pdfStrategies(req, s.browserPDF, s.fallback))...)
	}
}

func (s *Service) pdfStrategies(req *printing.Request, renderers ...printing.PDFRenderer) []Strategy {
	var out []Strategy
	for _, r := range renderers {
		if r == nil {
			continue
		}
		out = append(out, Strategy{
			Name: r.Name(),
			Run:  func(ctx context.Context) (*printing.Artifact, error) { return r.RenderPDF(ctx, req) },
		})
	}
	return out
}

func (s *Service) screenshotStrategies(mode Mode, req *printing.Request) []Strategy {
	if s.screenshots == nil {
		return nil
	}
	return s.timed(mode, req.Timeout, []Strategy{{
		Name: s.screenshots.Name(),
		Run:  func(ctx context.Context) (*printing.Artifact, error) { return s.screenshots.Screenshot(ctx, req) },
	}})
}

// timed gives every strategy its own deadline and records its duration
func (s *Service) timed(mode Mode, timeout time.Duration, strategies []Strategy) []Strategy {
	out := make([]Strategy, len(strategies))
	for i, st := range strategies {
		out[i] = Strategy{
			Name: st.Name,
			Run: func(ctx context.Context) (*printing.Artifact, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				start := time.Now()
				artifact, err := st.Run(ctx)
				if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
					var re *printing.RenderError
					if !errors.As(err, &re) || re.Code != printing.ErrCodeRenderTimeout {
						err = printing.NewRenderError(printing.ErrCodeRenderTimeout, fmt.Sprintf("%s timed out after %s", st.Name, timeout), err)
					}
				}
				s.metrics.ObserveRender(string(mode), st.Name, time.Since(start), err)
				return artifact, err
			},
		}
	}
	return out
}

// composite screenshots each tranche on its own and lays the images onto A4 pages
func (s *Service) composite(ctx context.Context, title string, fragments []string, timeout time.Duration) (*printing.Artifact, error) {
	pages := make([][]byte, 0, len(fragments))
	for i, fragment := range fragments {
		html, err := s.templates.RenderDocument(fmt.Sprintf("%s (%d/%d)", title, i+1, len(fragments)), []string{fragment})
		if err != nil {
			return nil, err
		}
		shot, err := s.screenshots.Screenshot(ctx, &printing.Request{HTML: html, Title: title, Timeout: timeout})
		if err != nil {
			return nil, fmt.Errorf("tranche %d: %w", i+1, err)
		}
		pages = append(pages, shot.Data)
	}
	return printing.NewImageComposer(title, s.logger).Compose(ctx, pages)
}

// archiveCopy uploads a PDF and returns its key. Failures are logged only.
func (s *Service) archiveCopy(ctx context.Context, numero string, mode Mode, data []byte) string {
	if s.archive == nil {
		return ""
	}
	key := s.archive.DocumentKey(numero, string(mode))
	if err := s.archive.Upload(ctx, key, data, printing.ContentTypePDF); err != nil {
		s.log(ctx).Warn("Failed to archive document", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

func isKnownMode(m Mode) bool {
	for _, known := range Modes() {
		if m == known {
			return true
		}
	}
	return false
}

func joinModes() string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func filename(numero string, mode Mode, contentType string) string {
	ext := ".pdf"
	if contentType == printing.ContentTypePNG {
		ext = ".png"
	}
	base := "traite-" + strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(numero)
	if mode == ModeTestImage {
		base += "-test"
	}
	return base + ext
}
