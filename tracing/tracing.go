package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics/prometheus"
	"go.uber.org/zap"
)

const DefaultServiceName = "device-api-client"

// Start installs a jaeger tracer configured from the JAEGER_* environment as
// the global tracer. The returned closer flushes pending spans.
func Start(logger *zap.Logger) (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()

	if err != nil {
		return nil, errors.Wrap(err, "could not parse Jaeger env vars")
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Logger(newZapJaegerLogger(logger)),
		jaegercfg.Metrics(prometheus.New()),
	)

	if err != nil {
		return nil, errors.Wrap(err, "could not initialize jaeger tracer")
	}

	opentracing.SetGlobalTracer(tracer)

	return closer, nil
}
