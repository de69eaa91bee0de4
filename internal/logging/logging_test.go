package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig("debug", "json")
	require.NoError(t, err)
	require.Equal(t, "json", cfg.Encoding)
	require.Equal(t, zapcore.DebugLevel, cfg.Level.Level())

	cfg, err = NewConfig("WARN", "")
	require.NoError(t, err)
	require.Equal(t, "console", cfg.Encoding)
	require.Equal(t, zapcore.WarnLevel, cfg.Level.Level())

	_, err = NewConfig("loud", "json")
	require.Error(t, err)
	_, err = NewConfig("info", "xml")
	require.Error(t, err)
}

func TestFromContext(t *testing.T) {
	fallback := zap.NewNop().Sugar()
	require.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := zap.NewNop().Sugar().With("request_id", "abc")
	ctx := WithLogger(context.Background(), scoped)
	require.Same(t, scoped, FromContext(ctx, fallback))
}
