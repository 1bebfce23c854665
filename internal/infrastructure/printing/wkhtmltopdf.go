package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WkhtmltopdfConfig configures the wkhtmltopdf fallback renderer
type WkhtmltopdfConfig struct {
	// BinaryPath is absolute or looked up in PATH; defaults to "wkhtmltopdf"
	BinaryPath     string
	DefaultTimeout time.Duration
	// TempDir receives the scratch files of the child process
	TempDir      string
	DPI          int
	ImageQuality int
	Logger       *zap.Logger
}

func (c WkhtmltopdfConfig) withDefaults() WkhtmltopdfConfig {
	if c.BinaryPath == "" {
		c.BinaryPath = "wkhtmltopdf"
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 90 * time.Second
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.DPI <= 0 {
		c.DPI = 96
	}
	if c.ImageQuality <= 0 {
		c.ImageQuality = 94
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// WkhtmltopdfRenderer pipes HTML through the wkhtmltopdf command. It has no
// screenshot support and no browser state, so it is safe for concurrent use.
type WkhtmltopdfRenderer struct {
	config WkhtmltopdfConfig
	logger *zap.Logger
}

// NewWkhtmltopdfRenderer fails with BINARY_NOT_FOUND when the binary is missing
func NewWkhtmltopdfRenderer(cfg *WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	var c WkhtmltopdfConfig
	if cfg != nil {
		c = *cfg
	}
	c = c.withDefaults()

	path, err := lookBinary(c.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound, "wkhtmltopdf binary not found: "+c.BinaryPath, err)
	}
	c.BinaryPath = path
	return &WkhtmltopdfRenderer{config: c, logger: c.Logger}, nil
}

func lookBinary(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return exec.LookPath(path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *WkhtmltopdfRenderer) Name() string {
	return "wkhtmltopdf"
}

// RenderPDF prints the request to an A4 portrait PDF without margins
func (r *WkhtmltopdfRenderer) RenderPDF(ctx context.Context, req *Request) (*Artifact, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.config.BinaryPath, r.buildArgs(req)...)
	cmd.Dir = r.config.TempDir
	cmd.Env = append(os.Environ(), "TMPDIR="+r.config.TempDir)
	cmd.Stdin = strings.NewReader(buildCompleteHTML(req))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			msg := fmt.Sprintf("wkhtmltopdf timed out after %s", timeout)
			if errors.Is(ctxErr, context.Canceled) {
				msg = "wkhtmltopdf was cancelled"
			}
			return nil, NewRenderError(ErrCodeRenderTimeout, msg, err)
		}
		r.logger.Error("wkhtmltopdf failed", zap.Error(err), zap.String("stderr", stderr.String()))
		return nil, NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf failed: "+strings.TrimSpace(stderr.String()), err)
	}

	data := stdout.Bytes()
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf produced no PDF", nil)
	}

	artifact := &Artifact{
		Data:        data,
		ContentType: ContentTypePDF,
		PageCount:   estimatePageCount(data),
		Duration:    time.Since(start),
		Renderer:    r.Name(),
	}
	r.logger.Debug("wkhtmltopdf rendered",
		zap.Int("bytes", len(data)),
		zap.Int("pages", artifact.PageCount),
		zap.Duration("duration", artifact.Duration),
	)
	return artifact, nil
}

// buildArgs reads HTML from stdin and writes the PDF to stdout
func (r *WkhtmltopdfRenderer) buildArgs(req *Request) []string {
	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--dpi", strconv.Itoa(r.config.DPI),
		"--image-quality", strconv.Itoa(r.config.ImageQuality),
		"--page-size", "A4",
		"--orientation", "Portrait",
		"--print-media-type",
		"--disable-javascript",
		"--disable-local-file-access",
	}
	for _, side := range []string{"top", "right", "bottom", "left"} {
		args = append(args, "--margin-"+side, "0mm")
	}
	if req.Title != "" {
		args = append(args, "--title", req.Title)
	}
	return append(args, "-", "-")
}

func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}

// estimatePageCount counts page objects, leaving out the /Pages tree nodes
func estimatePageCount(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(pages, 1)
}

var _ PDFRenderer = (*WkhtmltopdfRenderer)(nil)
