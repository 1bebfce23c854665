package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Strategy is one way of producing an artifact
type Strategy struct {
	Name string
	Run  func(ctx context.Context) (*Artifact, error)
}

// Chain tries strategies in order and returns the first success
type Chain struct {
	logger *zap.Logger
}

// NewChain creates a strategy chain
func NewChain(logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{logger: logger}
}

// Run executes the strategies in order. When all of them fail, the
// returned RenderError carries one message per strategy.
func (c *Chain) Run(ctx context.Context, message string, strategies ...Strategy) (*Artifact, error) {
	if len(strategies) == 0 {
		return nil, NewRenderError(ErrCodeNoRenderer, message+": no renderer available", nil)
	}

	var (
		messages []string
		causes   []error
		timedOut = true
	)
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			messages = append(messages, fmt.Sprintf("%s: %v", s.Name, err))
			causes = append(causes, err)
			break
		}

		start := time.Now()
		artifact, err := s.Run(ctx)
		if err == nil && artifact != nil {
			if artifact.Renderer == "" {
				artifact.Renderer = s.Name
			}
			if artifact.Duration == 0 {
				artifact.Duration = time.Since(start)
			}
			return artifact, nil
		}
		if err == nil {
			err = errors.New("renderer returned no output")
		}

		c.logger.Warn("render strategy failed",
			zap.String("strategy", s.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))

		var re *RenderError
		if !errors.As(err, &re) || re.Code != ErrCodeRenderTimeout {
			timedOut = false
		}
		messages = append(messages, fmt.Sprintf("%s: %v", s.Name, err))
		causes = append(causes, err)
	}

	code := ErrCodeRenderFailed
	if timedOut {
		code = ErrCodeRenderTimeout
	}
	renderErr := NewRenderError(code, message, errors.Join(causes...))
	renderErr.Errors = messages
	return nil, renderErr
}
