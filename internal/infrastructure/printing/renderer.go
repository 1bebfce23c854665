package printing

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// A4 page geometry
const (
	A4WidthMM  = 210.0
	A4HeightMM = 297.0
	// CSS pixels at 96 DPI
	A4WidthPx  = 794
	A4HeightPx = 1123
)

// Content types of rendered artifacts
const (
	ContentTypePDF = "application/pdf"
	ContentTypePNG = "image/png"
)

// Request contains the parameters for rendering an HTML document
type Request struct {
	// HTML is a complete document or a body fragment
	HTML string
	// Title for the document metadata
	Title string
	// Width and Height are the viewport in CSS pixels; zero means A4
	Width  int
	Height int
	// FullPage captures the whole scrollable document instead of the viewport
	FullPage bool
	// Timeout overrides the renderer default
	Timeout time.Duration
}

func (r *Request) validate() error {
	if r == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(r.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	return nil
}

func (r *Request) viewport() (int64, int64) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = A4WidthPx
	}
	if h <= 0 {
		h = A4HeightPx
	}
	return int64(w), int64(h)
}

// Artifact is a rendered document
type Artifact struct {
	Data        []byte
	ContentType string
	PageCount   int
	Duration    time.Duration
	// Renderer names the strategy that produced the artifact
	Renderer string
}

// PDFRenderer renders HTML to an A4 PDF
type PDFRenderer interface {
	Name() string
	RenderPDF(ctx context.Context, req *Request) (*Artifact, error)
	Close() error
}

// Screenshotter renders HTML to a PNG image
type Screenshotter interface {
	Name() string
	Screenshot(ctx context.Context, req *Request) (*Artifact, error)
}

// RenderError is the structured failure reported when no strategy succeeded.
// Errors lists one entry per attempted strategy.
type RenderError struct {
	Code    string   `json:"code"`
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Cause   error    `json:"-"`
}

func (e *RenderError) Error() string {
	msg := e.Message
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"
	ErrCodeComposeFailed  = "COMPOSE_FAILED"
	ErrCodeNoRenderer     = "NO_RENDERER"
)

// NewRenderError creates a RenderError reported to clients as a bad gateway
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Status:  http.StatusBadGateway,
		Message: message,
		Cause:   cause,
	}
}
