package printing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // register PNG decoder for DecodeConfig
	"time"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

// CoverUpscale enlarges composited pages slightly so no white edge survives rounding
const CoverUpscale = 1.02

// ImageComposer lays PNG pages onto A4 PDF pages
type ImageComposer struct {
	title  string
	logger *zap.Logger
}

// NewImageComposer creates a composer; title is written into the PDF metadata
func NewImageComposer(title string, logger *zap.Logger) *ImageComposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageComposer{title: title, logger: logger}
}

// Compose builds one A4 page per image. Each image covers the page
// (aspect preserved, centered, cropped at the edges).
func (c *ImageComposer) Compose(ctx context.Context, pages [][]byte) (*Artifact, error) {
	if len(pages) == 0 {
		return nil, NewRenderError(ErrCodeComposeFailed, "no page images to compose", nil)
	}
	start := time.Now()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("traitedesk", true)
	if c.title != "" {
		pdf.SetTitle(c.title, true)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	for i, png := range pages {
		if err := ctx.Err(); err != nil {
			return nil, NewRenderError(ErrCodeRenderTimeout, "composition was cancelled", err)
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
		if err != nil {
			return nil, NewRenderError(ErrCodeComposeFailed, fmt.Sprintf("page %d is not a valid image", i+1), err)
		}

		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		x, y, w, h := coverFit(float64(cfg.Width), float64(cfg.Height), A4WidthMM, A4HeightMM, CoverUpscale)

		pdf.AddPage()
		pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
		if pdf.Err() {
			return nil, NewRenderError(ErrCodeComposeFailed, fmt.Sprintf("failed to place page %d", i+1), pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeComposeFailed, "failed to write composed PDF", err)
	}

	c.logger.Debug("pages composed",
		zap.Int("pages", len(pages)),
		zap.Int("bytes", buf.Len()))

	return &Artifact{
		Data:        buf.Bytes(),
		ContentType: ContentTypePDF,
		PageCount:   len(pages),
		Duration:    time.Since(start),
	}, nil
}

// coverFit scales an image of imgW x imgH so it fully covers a page of
// pageW x pageH, applies upscale and centers the result. Offsets may be negative.
func coverFit(imgW, imgH, pageW, pageH, upscale float64) (x, y, w, h float64) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0, pageW, pageH
	}
	scale := max(pageW/imgW, pageH/imgH) * upscale
	w, h = imgW*scale, imgH*scale
	return (pageW - w) / 2, (pageH - h) / 2, w, h
}
