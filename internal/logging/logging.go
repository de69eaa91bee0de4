// Package logging настраивает zap и переносит логгер запроса через context.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// NewConfig возвращает конфигурацию zap: console или json, без стектрейсов
func NewConfig(level, format string) (zap.Config, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zap.Config{}, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	switch strings.ToLower(format) {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg.Encoding = "json"
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", format)
	}
	return cfg, nil
}

// New создаёт логгер сервиса
func New(level, format string) (*zap.SugaredLogger, error) {
	cfg, err := NewConfig(level, format)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar().Named("riceguard"), nil
}

// WithLogger кладёт логгер запроса в контекст
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext достаёт логгер запроса; если его нет - возвращает fallback
func FromContext(ctx context.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && logger != nil {
		return logger
	}
	return fallback
}
