package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"device-api-client/httputil"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func withMockTracer(t *testing.T) *mocktracer.MockTracer {
	tracer := mocktracer.New()
	previous := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	t.Cleanup(func() { opentracing.SetGlobalTracer(previous) })

	return tracer
}

func TestInstrumentHandlerJoinsClientTrace(t *testing.T) {
	tracer := withMockTracer(t)

	clientSpan := tracer.StartSpan("client")
	req := httptest.NewRequest(http.MethodGet, "/device/42", nil)
	require.NoError(t, tracer.Inject(clientSpan.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header)))

	rec := httptest.NewRecorder()
	InstrumentHandler("device.get", func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, opentracing.SpanFromContext(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	})(rec, req)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "device.get", span.OperationName)
	assert.Equal(t, clientSpan.Context().(mocktracer.MockSpanContext).TraceID, span.SpanContext.TraceID)
	assert.Equal(t, uint16(http.StatusNotFound), span.Tag(string(ext.HTTPStatusCode)))
	assert.Equal(t, "http://example.com/device/42", span.Tag(string(ext.HTTPUrl)))
	assert.Nil(t, span.Tag(string(ext.Error)))
}

func TestInstrumentHandlerMarksServerErrors(t *testing.T) {
	tracer := withMockTracer(t)

	InstrumentHandler("device.list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/device", nil))

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, true, spans[0].Tag(string(ext.Error)))
}

func TestInstrumentHandlerTagsRequestID(t *testing.T) {
	tracer := withMockTracer(t)

	req := httptest.NewRequest(http.MethodGet, "https://devices.local/device/50%25", nil)
	req.Header.Set(httputil.HeaderRequestID, "2f9c0d")

	InstrumentHandler("device.get", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})(httptest.NewRecorder(), req)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "2f9c0d", spans[0].Tag("request_id"))
	assert.Equal(t, uint16(http.StatusOK), spans[0].Tag(string(ext.HTTPStatusCode)))
	assert.Equal(t, "https://devices.local/device/50%25", spans[0].Tag(string(ext.HTTPUrl)))
}

func TestZapJaegerLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := newZapJaegerLogger(zap.New(core))

	logger.Infof("Initializing logging reporter\n")
	logger.Debugf("Reporting span %d", 7)
	logger.Error("flush failed\n")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "Initializing logging reporter", entries[0].Message)
	assert.Equal(t, "jaeger", entries[0].ContextMap()["tracer"])
	assert.Equal(t, zap.DebugLevel, entries[1].Level)
	assert.Equal(t, "Reporting span 7", entries[1].Message)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "flush failed", entries[2].Message)
}
