package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeTimeout   = "timeout"
)

// prometheus metrics setup
var (
	PrometheusRequestDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "device_api_client",
		Subsystem: "http_client",
		Name:      "request_durations_seconds",
		Help:      "The duration of each outbound request",
		Buckets:   prometheus.LinearBuckets(0.01, 0.05, 10),
	}, []string{"method"})

	PrometheusRequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_api_client",
		Subsystem: "http_client",
		Name:      "request_counter",
		Help:      "The number of accumulative outbound requests by outcome",
	}, []string{"method", "outcome"})

	PrometheusResponseStatusCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_api_client",
		Subsystem: "http_client",
		Name:      "response_status_counter",
		Help:      "The number of accumulative responses by status code",
	}, []string{"method", "code"})
)

func init() {
	prometheus.MustRegister(PrometheusRequestDurations, PrometheusRequestCounter, PrometheusResponseStatusCounter)
}

// WriteTextfile dumps the default registry in the node exporter textfile format
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
