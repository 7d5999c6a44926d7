package tracing

import (
	"net/http"

	"device-api-client/httputil"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const tagRequestID = "request_id"

// InstrumentHandler wraps handler in a server span that continues the trace
// injected by the client. Responses with a 5xx status mark the span as failed.
func InstrumentHandler(operationName string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span := startServerSpan(operationName, r)
		defer span.Finish()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r.WithContext(opentracing.ContextWithSpan(r.Context(), span)))

		ext.HTTPStatusCode.Set(span, uint16(recorder.status))

		if recorder.status >= http.StatusInternalServerError {
			ext.Error.Set(span, true)
		}
	}
}

func startServerSpan(operationName string, r *http.Request) opentracing.Span {
	tracer := opentracing.GlobalTracer()
	parent, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(r.Header))
	span := tracer.StartSpan(operationName, ext.RPCServerOption(parent))

	ext.HTTPMethod.Set(span, r.Method)
	ext.HTTPUrl.Set(span, requestURL(r))

	if requestID := r.Header.Get(httputil.HeaderRequestID); requestID != "" {
		span.SetTag(tagRequestID, requestID)
	}

	return span
}

// requestURL rebuilds the absolute url of an incoming request, which servers
// only see as a path.
func requestURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}

	u := *r.URL
	u.Scheme = "http"

	if r.TLS != nil {
		u.Scheme = "https"
	}

	u.Host = r.Host

	return u.String()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
