package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/traitedesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixedSequence struct{ value int64 }

func (s *fixedSequence) Next(context.Context, string) (int64, error) {
	s.value++
	return s.value, nil
}

func TestSequenceFactory_DisabledUsesFallback(t *testing.T) {
	fallback := &fixedSequence{}
	seq, client := NewSequenceFactory(config.RedisConfig{Enabled: false}, fallback).Create(context.Background())

	assert.Nil(t, client)
	assert.Same(t, fallback, seq)
}

func TestSequenceFactory_UnreachableRedisFallsBack(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	fallback := &fixedSequence{}

	f := NewSequenceFactory(
		config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
		fallback,
		WithLogger(zap.New(core)),
	)
	seq, client := f.Create(context.Background())

	assert.Nil(t, client)
	assert.Same(t, fallback, seq)
	assert.Equal(t, 1, recorded.FilterMessage("Redis unavailable, falling back to database sequence").Len())
}
