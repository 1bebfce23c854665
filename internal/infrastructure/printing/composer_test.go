package printing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.White)
		}
	}
	for x := range w {
		img.Set(x, h/2, color.RGBA{R: 11, G: 79, B: 138, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCoverFit(t *testing.T) {
	tests := []struct {
		name       string
		imgW, imgH float64
		wantW      float64
		wantH      float64
	}{
		{
			name: "exact A4 ratio only applies upscale",
			imgW: 1588, imgH: 2246,
			wantW: A4WidthMM * CoverUpscale, wantH: A4WidthMM * CoverUpscale * 2246 / 1588,
		},
		{
			name: "wide image is driven by height",
			imgW: 2000, imgH: 1000,
			wantW: A4HeightMM * CoverUpscale * 2, wantH: A4HeightMM * CoverUpscale,
		},
		{
			name: "tall image is driven by width",
			imgW: 500, imgH: 2000,
			wantW: A4WidthMM * CoverUpscale, wantH: A4WidthMM * CoverUpscale * 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := coverFit(tt.imgW, tt.imgH, A4WidthMM, A4HeightMM, CoverUpscale)

			assert.InDelta(t, tt.wantW, w, 0.01)
			assert.InDelta(t, tt.wantH, h, 0.01)
			assert.GreaterOrEqual(t, w, A4WidthMM)
			assert.GreaterOrEqual(t, h, A4HeightMM)
			assert.InDelta(t, (A4WidthMM-w)/2, x, 0.0001)
			assert.InDelta(t, (A4HeightMM-h)/2, y, 0.0001)
			assert.LessOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, y, 0.0)
		})
	}

	t.Run("degenerate image fills the page", func(t *testing.T) {
		x, y, w, h := coverFit(0, 10, A4WidthMM, A4HeightMM, CoverUpscale)
		assert.Equal(t, [4]float64{0, 0, A4WidthMM, A4HeightMM}, [4]float64{x, y, w, h})
	})
}

func TestImageComposer_Compose(t *testing.T) {
	ctx := context.Background()
	composer := NewImageComposer("TR-202501-000001", nil)

	t.Run("one page per image", func(t *testing.T) {
		artifact, err := composer.Compose(ctx, [][]byte{
			testPNG(t, 40, 56),
			testPNG(t, 40, 56),
			testPNG(t, 60, 30),
		})
		require.NoError(t, err)

		assert.Equal(t, ContentTypePDF, artifact.ContentType)
		assert.Equal(t, 3, artifact.PageCount)
		assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF-")))
		assert.Equal(t, 3, estimatePageCount(artifact.Data))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := composer.Compose(ctx, nil)

		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeComposeFailed, renderErr.Code)
	})

	t.Run("rejects data that is not an image", func(t *testing.T) {
		_, err := composer.Compose(ctx, [][]byte{[]byte("not a png")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page 1 is not a valid image")
	})
}
