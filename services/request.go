package services

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RequestConfig is the per request configuration understood by Requester
// implementations.
type RequestConfig struct {
	Params  map[string]interface{}
	Timeout time.Duration
	Header  http.Header
}

type RequestOption func(*RequestConfig)

// WithParams adds query parameters. Values are formatted with fmt.Sprint.
func WithParams(params map[string]interface{}) RequestOption {
	return func(config *RequestConfig) {
		if config.Params == nil {
			config.Params = make(map[string]interface{}, len(params))
		}

		for name, value := range params {
			config.Params[name] = value
		}
	}
}

// WithTimeout overrides the client's default timeout for one request
func WithTimeout(timeout time.Duration) RequestOption {
	return func(config *RequestConfig) {
		config.Timeout = timeout
	}
}

func WithHeader(name, value string) RequestOption {
	return func(config *RequestConfig) {
		if config.Header == nil {
			config.Header = http.Header{}
		}

		config.Header.Add(name, value)
	}
}

// NewRequestConfig applies options in order
func NewRequestConfig(options ...RequestOption) RequestConfig {
	var config RequestConfig

	for _, option := range options {
		option(&config)
	}

	return config
}

// encodeParams skips nil values, url.Values.Encode sorts by key
func encodeParams(params map[string]interface{}) string {
	values := url.Values{}

	for name, value := range params {
		if value == nil {
			continue
		}

		values.Add(name, fmt.Sprint(value))
	}

	return values.Encode()
}
