package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 90 * time.Second
	defaultDeviceScale   = 2.0
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// DefaultTimeout for rendering operations
	DefaultTimeout time.Duration
	// RemoteURL is the URL of a remote Chrome/Chromium instance (optional)
	// If empty, chromedp will launch a new browser instance
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// DeviceScale is the device pixel ratio used for screenshots
	DeviceScale float64
	Logger      *zap.Logger
}

// ChromedpRenderer renders HTML through the Chrome DevTools Protocol
type ChromedpRenderer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a chromedp-based renderer. The browser is
// started lazily on the first render.
func NewChromedpRenderer(config *ChromedpConfig) *ChromedpRenderer {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	if config.DeviceScale <= 0 {
		config.DeviceScale = defaultDeviceScale
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{
		config: config,
		logger: logger,
	}
	r.initAllocator()
	return r
}

func (r *ChromedpRenderer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("hide-scrollbars", true),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Name identifies the renderer in logs and aggregated errors
func (r *ChromedpRenderer) Name() string {
	return "chromedp"
}

// RenderPDF prints the document on A4 paper with zero margins
func (r *ChromedpRenderer) RenderPDF(ctx context.Context, req *Request) (*Artifact, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	params := buildPrintParams()
	var pdfData []byte
	duration, err := r.run(ctx, req, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPreferCSSPageSize(false).
			WithPaperWidth(params.paperWidth).
			WithPaperHeight(params.paperHeight).
			WithMarginTop(0).
			WithMarginRight(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithScale(1).
			Do(ctx)
		if err != nil {
			return err
		}
		pdfData = data
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	pageCount := estimatePageCount(pdfData)
	r.logger.Info("PDF rendered successfully",
		zap.String("renderer", r.Name()),
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", pageCount),
		zap.Duration("duration", duration))

	return &Artifact{
		Data:        pdfData,
		ContentType: ContentTypePDF,
		PageCount:   pageCount,
		Duration:    duration,
		Renderer:    r.Name(),
	}, nil
}

// Screenshot captures a PNG at the configured device scale. With
// req.FullPage the viewport grows to the document height first.
func (r *ChromedpRenderer) Screenshot(ctx context.Context, req *Request) (*Artifact, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	width, height := req.viewport()
	var png []byte
	duration, err := r.run(ctx, req, chromedp.ActionFunc(func(ctx context.Context) error {
		h := height
		if req.FullPage {
			var scrollHeight float64
			if err := chromedp.Evaluate(`Math.ceil(document.documentElement.scrollHeight)`, &scrollHeight).Do(ctx); err != nil {
				return err
			}
			h = max(h, int64(scrollHeight))
		}
		if err := emulation.SetDeviceMetricsOverride(width, h, r.config.DeviceScale, false).Do(ctx); err != nil {
			return err
		}
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(req.FullPage).
			WithFromSurface(true).
			Do(ctx)
		if err != nil {
			return err
		}
		png = data
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if len(png) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "screenshot is empty", nil)
	}

	r.logger.Info("screenshot captured",
		zap.String("renderer", r.Name()),
		zap.Int("bytes", len(png)),
		zap.Bool("full_page", req.FullPage),
		zap.Duration("duration", duration))

	return &Artifact{
		Data:        png,
		ContentType: ContentTypePNG,
		PageCount:   1,
		Duration:    duration,
		Renderer:    r.Name(),
	}, nil
}

// run loads the document into a fresh tab under a hard timeout, then runs action
func (r *ChromedpRenderer) run(ctx context.Context, req *Request, action chromedp.Action) (time.Duration, error) {
	start := time.Now()

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// Tie the tab lifetime to the request deadline
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	width, height := req.viewport()
	doc := buildCompleteHTML(req)

	err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(width, height, r.config.DeviceScale, false),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		action,
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("chromedp rendering timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return 0, NewRenderError(ErrCodeRenderTimeout, "chromedp rendering was cancelled", err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return 0, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	return time.Since(start), nil
}

type printParams struct {
	paperWidth  float64
	paperHeight float64
}

// buildPrintParams returns A4 in inches, the unit Chrome expects
func buildPrintParams() printParams {
	return printParams{
		paperWidth:  mmToInches(A4WidthMM),
		paperHeight: mmToInches(A4HeightMM),
	}
}

// buildCompleteHTML wraps a fragment in a full document; complete
// documents are returned as-is
func buildCompleteHTML(req *Request) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head>")
	buf.WriteString(`<meta charset="UTF-8">`)
	if req.Title != "" {
		buf.WriteString("<title>")
		buf.WriteString(html.EscapeString(req.Title))
		buf.WriteString("</title>")
	}
	buf.WriteString(`<style>@page{size:A4;margin:0}html,body{margin:0;padding:0}</style>`)
	buf.WriteString("</head><body>")
	buf.WriteString(req.HTML)
	buf.WriteString("</body></html>")
	return buf.String()
}

// Close stops the browser
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var (
	_ PDFRenderer   = (*ChromedpRenderer)(nil)
	_ Screenshotter = (*ChromedpRenderer)(nil)
)
