package tracing

import (
	"fmt"
	"strings"

	"github.com/uber/jaeger-client-go"
	"go.uber.org/zap"
)

var _ jaeger.Logger = (*zapJaegerLogger)(nil)

// zapJaegerLogger forwards jaeger's reporter output to zap. Jaeger formats
// its own messages with a trailing newline, which is dropped.
type zapJaegerLogger struct {
	logger *zap.Logger
}

func newZapJaegerLogger(logger *zap.Logger) *zapJaegerLogger {
	return &zapJaegerLogger{logger: logger.With(zap.String("tracer", "jaeger"))}
}

func (l *zapJaegerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(trimMessage(format, args))
}

// Debugf is picked up by jaeger when present and carries the per span
// reporter chatter.
func (l *zapJaegerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(trimMessage(format, args))
}

func (l *zapJaegerLogger) Error(msg string) {
	l.logger.Error(strings.TrimRight(msg, "\n"))
}

func trimMessage(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
