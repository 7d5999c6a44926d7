package services

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"device-api-client/httputil"
	edge_log "device-api-client/log"
	"device-api-client/metrics"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	trace_log "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var absoluteURLRegex = regexp.MustCompile(`(?i)^([a-z][a-z\d+\-.]*:)?//`)

// Doer is satisfied by *http.Client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Requester is the part of the shared client the device API depends on
type Requester interface {
	Get(ctx context.Context, path string, options ...RequestOption) (*Response, error)
}

// Client is the shared HTTP client. Paths are resolved against BaseURL,
// Interceptors run on every request and non-2xx responses are returned as
// *httputil.PublicError. A Client must not be modified once in use; it is then
// safe for concurrent use.
type Client struct {
	BaseURL      *url.URL
	HTTPClient   Doer
	Logger       *zap.Logger
	Interceptors []RequestInterceptor
	// Timeout applies to requests that do not set their own. Zero means none.
	Timeout time.Duration
}

var _ Requester = (*Client)(nil)

func (client *Client) Get(ctx context.Context, path string, options ...RequestOption) (*Response, error) {
	return client.Do(ctx, http.MethodGet, path, options...)
}

func (client *Client) Do(ctx context.Context, method string, path string, options ...RequestOption) (response *Response, err error) {
	config := NewRequestConfig(options...)

	span, ctx := opentracing.StartSpanFromContext(ctx, "Client.Do()")
	defer span.Finish()

	ext.SpanKindRPCClient.Set(span)
	ext.HTTPMethod.Set(span, method)

	start := time.Now()
	outcome := metrics.OutcomeSuccess

	defer func() {
		metrics.PrometheusRequestDurations.WithLabelValues(method).Observe(time.Since(start).Seconds())
		metrics.PrometheusRequestCounter.WithLabelValues(method, outcome).Inc()

		if err != nil {
			span.LogFields(
				trace_log.String("event", "error"),
				trace_log.Error(err),
			)

			if outcome != metrics.OutcomeHTTPError {
				ext.Error.Set(span, true)
			}
		}
	}()

	baseLogger := client.logger().With(zap.String("function", "Do()"), zap.String("method", method))
	logger := edge_log.WithContext(ctx, baseLogger)

	urlStr, err := client.resolve(path, config.Params)

	if err != nil {
		logger.Error("could not resolve request url", zap.String("path", path), zap.Error(err))
		outcome = metrics.OutcomeTransport

		return nil, errors.Wrapf(err, "could not resolve request url %q", path)
	}

	ext.HTTPUrl.Set(span, urlStr)
	logger = logger.With(zap.String("url", urlStr))

	timeout := client.Timeout

	if config.Timeout > 0 {
		timeout = config.Timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, http.NoBody)

	if err != nil {
		logger.Error("could not create request", zap.Error(err))
		outcome = metrics.OutcomeTransport

		return nil, errors.Wrap(err, "could not create request")
	}

	for name, values := range config.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	for _, intercept := range client.Interceptors {
		req, err = intercept(req)

		if err != nil {
			logger.Error("request interceptor failed", zap.Error(err))
			outcome = metrics.OutcomeTransport

			return nil, err
		}
	}

	logger = edge_log.WithContext(req.Context(), baseLogger).With(zap.String("url", urlStr))

	if err := span.Tracer().Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header)); err != nil {
		logger.Debug("could not inject span context", zap.Error(err))
	}

	resp, err := client.httpClient().Do(req)

	if err != nil {
		outcome = metrics.OutcomeTransport

		if httputil.IsTimeout(err) {
			outcome = metrics.OutcomeTimeout
		}

		logger.Error("could not make request", zap.Duration("timeout", timeout), zap.Error(err))

		return nil, errors.Wrap(err, "could not make request")
	}

	defer resp.Body.Close()

	ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))
	metrics.PrometheusResponseStatusCounter.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	logger = logger.With(zap.Int("status_code", resp.StatusCode))

	respBody, err := ioutil.ReadAll(resp.Body)

	if err != nil {
		outcome = metrics.OutcomeTransport

		if httputil.IsTimeout(err) {
			outcome = metrics.OutcomeTimeout
		}

		logger.Error("unable to read response body", zap.Error(err))

		return nil, errors.Wrap(err, "unable to read response body")
	}

	logger.Debug("read response body", zap.String("response_body", string(respBody)))

	if !httputil.IsSuccessResponse(resp) {
		outcome = metrics.OutcomeHTTPError

		if resp.StatusCode >= http.StatusInternalServerError {
			ext.Error.Set(span, true)
		}

		publicError := newPublicError(resp.StatusCode, respBody, httputil.RequestID(req.Context()))
		logger.Warn("request failed", zap.Any("error", publicError), zap.Duration("duration", time.Since(start)))

		return nil, publicError
	}

	logger.Info("request succeeded", zap.Duration("duration", time.Since(start)))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// resolve joins path onto the base url the way browser http clients do:
// slashes between the two are collapsed and absolute paths bypass the base.
func (client *Client) resolve(path string, params map[string]interface{}) (string, error) {
	raw := path

	if client.BaseURL != nil && !absoluteURLRegex.MatchString(path) {
		base := strings.TrimRight(client.BaseURL.String(), "/")

		if path == "" {
			raw = base
		} else {
			raw = base + "/" + strings.TrimLeft(path, "/")
		}
	}

	if query := encodeParams(params); query != "" {
		separator := "?"

		if strings.Contains(raw, "?") {
			separator = "&"
		}

		raw += separator + query
	}

	u, err := url.Parse(escapeStrayPercents(raw))

	if err != nil {
		return "", err
	}

	if !u.IsAbs() {
		return "", errors.Errorf("%q is not an absolute url and no base url is configured", raw)
	}

	return u.String(), nil
}

// escapeStrayPercents turns every '%' that does not start a valid escape into
// "%25" so the backend receives the literal character. Valid escapes are left
// alone.
func escapeStrayPercents(raw string) string {
	if !strings.Contains(raw, "%") {
		return raw
	}

	var builder strings.Builder

	for i := 0; i < len(raw); i++ {
		if raw[i] == '%' && (i+2 >= len(raw) || !isHex(raw[i+1]) || !isHex(raw[i+2])) {
			builder.WriteString("%25")

			continue
		}

		builder.WriteByte(raw[i])
	}

	return builder.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (client *Client) logger() *zap.Logger {
	if client.Logger == nil {
		return zap.NewNop()
	}

	return client.Logger
}

func (client *Client) httpClient() Doer {
	if client.HTTPClient == nil {
		return http.DefaultClient
	}

	return client.HTTPClient
}

func newPublicError(statusCode int, body []byte, requestID string) *httputil.PublicError {
	publicError := &httputil.PublicError{}

	if err := json.Unmarshal(body, publicError); err != nil {
		publicError = &httputil.PublicError{
			Message: strings.TrimSpace(string(body)),
		}
	}

	publicError.Object = "error"
	publicError.Code = statusCode

	if publicError.Type == "" {
		publicError.Type = httputil.TypeForStatus(statusCode)
	}

	if publicError.RequestID == "" {
		publicError.RequestID = requestID
	}

	return publicError
}
