package printing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okStrategy(name string, calls *[]string) Strategy {
	return Strategy{Name: name, Run: func(ctx context.Context) (*Artifact, error) {
		*calls = append(*calls, name)
		return &Artifact{Data: []byte("%PDF"), ContentType: ContentTypePDF}, nil
	}}
}

func failStrategy(name string, err error, calls *[]string) Strategy {
	return Strategy{Name: name, Run: func(ctx context.Context) (*Artifact, error) {
		*calls = append(*calls, name)
		return nil, err
	}}
}

func TestChain_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("first success wins", func(t *testing.T) {
		var calls []string
		artifact, err := NewChain(nil).Run(ctx, "render failed",
			okStrategy("chromedp", &calls),
			okStrategy("wkhtmltopdf", &calls),
		)
		require.NoError(t, err)
		assert.Equal(t, "chromedp", artifact.Renderer)
		assert.Equal(t, []string{"chromedp"}, calls)
	})

	t.Run("falls back after a failure", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		var calls []string
		artifact, err := NewChain(zap.New(core)).Run(ctx, "render failed",
			failStrategy("chromedp", errors.New("browser crashed"), &calls),
			okStrategy("wkhtmltopdf", &calls),
		)
		require.NoError(t, err)
		assert.Equal(t, "wkhtmltopdf", artifact.Renderer)
		assert.Equal(t, []string{"chromedp", "wkhtmltopdf"}, calls)
		assert.Equal(t, 1, logs.FilterMessage("render strategy failed").Len())
	})

	t.Run("aggregates every error", func(t *testing.T) {
		var calls []string
		_, err := NewChain(nil).Run(ctx, "pdf rendering failed",
			failStrategy("chromedp", errors.New("browser crashed"), &calls),
			failStrategy("wkhtmltopdf", NewRenderError(ErrCodeRenderFailed, "exit status 1", nil), &calls),
		)
		require.Error(t, err)

		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, http.StatusBadGateway, renderErr.Status)
		assert.Equal(t, ErrCodeRenderFailed, renderErr.Code)
		assert.Equal(t, "pdf rendering failed", renderErr.Message)
		assert.Equal(t, []string{
			"chromedp: browser crashed",
			"wkhtmltopdf: exit status 1",
		}, renderErr.Errors)
	})

	t.Run("reports a timeout when every strategy timed out", func(t *testing.T) {
		var calls []string
		_, err := NewChain(nil).Run(ctx, "render failed",
			failStrategy("chromedp", NewRenderError(ErrCodeRenderTimeout, "timed out", nil), &calls),
		)

		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeRenderTimeout, renderErr.Code)
	})

	t.Run("nil artifact counts as failure", func(t *testing.T) {
		_, err := NewChain(nil).Run(ctx, "render failed", Strategy{
			Name: "empty",
			Run:  func(ctx context.Context) (*Artifact, error) { return nil, nil },
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty: renderer returned no output")
	})

	t.Run("no strategies", func(t *testing.T) {
		_, err := NewChain(nil).Run(ctx, "render failed")

		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeNoRenderer, renderErr.Code)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		var calls []string
		_, err := NewChain(nil).Run(cancelled, "render failed", okStrategy("chromedp", &calls))
		require.Error(t, err)
		assert.Empty(t, calls)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
