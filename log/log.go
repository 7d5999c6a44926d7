package log

import (
	"context"
	"strings"

	"device-api-client/httputil"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type key int

const (
	contextKey key = iota
)

// New builds the JSON logger used by every component. The returned level can
// be changed at runtime.
func New(logLevel string, sink zapcore.WriteSyncer) (*zap.Logger, zap.AtomicLevel) {
	atom := zap.NewAtomicLevel()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(sink),
		atom,
	), zap.AddCaller())

	atom.SetLevel(ZapLogLevel(logLevel))

	return logger, atom
}

// WithContext enriches the logger with fields from the context
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	fields := Fields(ctx)

	if requestID := httputil.RequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if accountID := httputil.AccountID(ctx); accountID != "" {
		fields = append(fields, zap.String("account_id", accountID))
	}

	return logger.With(fields...)
}

// WithFields adds log fields to the context
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	current := Fields(ctx)
	merged := make([]zap.Field, 0, len(current)+len(fields))
	merged = append(merged, current...)

	return context.WithValue(ctx, contextKey, append(merged, fields...))
}

// Fields extracts log fields from the context
func Fields(ctx context.Context) []zap.Field {
	fields, ok := ctx.Value(contextKey).([]zap.Field)

	if !ok {
		return []zap.Field{}
	}

	return fields
}

// ZapLogLevel returns zap log level with specified log level
func ZapLogLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
