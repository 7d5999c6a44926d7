// Package devicetest runs an in-process device backend for tests.
package devicetest

import (
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"device-api-client/httputil"
	"device-api-client/tracing"

	"github.com/armPelionEdge/edge-gw-services-go/middleware"
	"github.com/armPelionEdge/edge-gw-services-go/middleware/access_tokens"
	"github.com/armPelionEdge/edge-gw-services-go/token"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Device is an arbitrary device document; only "id" is looked at.
type Device map[string]interface{}

func (d Device) ID() string {
	switch id := d["id"].(type) {
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// Request is what the backend observed for one handled request
type Request struct {
	Method    string
	Path      string
	RawPath   string
	Query     url.Values
	Header    http.Header
	AccountID string
	RequestID string
}

// DevicePage is the body returned for GET /device
type DevicePage struct {
	Object string   `json:"object"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
	Total  int      `json:"total"`
	Data   []Device `json:"data"`
}

type Options struct {
	// PublicKey enables access token checks on every route
	PublicKey *rsa.PublicKey
	// Delay holds every response back, or until the client goes away
	Delay time.Duration
	// Logger receives encoding and write failures. Defaults to a no-op logger.
	Logger *zap.Logger
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	devices  []Device
	requests []Request
	failure  *httputil.PublicError
	delay    time.Duration
	logger   *zap.Logger
}

func NewServer(options Options, devices ...Device) *Server {
	server := &Server{
		devices: devices,
		delay:   options.Delay,
		logger:  options.Logger,
	}

	if server.logger == nil {
		server.logger = zap.NewNop()
	}

	router := mux.NewRouter()

	if options.PublicKey != nil {
		router.Use(middleware.ArmAccessTokenMiddleware(
			&access_tokens.ArmAccessTokenGetterImpl{},
			&access_tokens.ArmAccessTokenDecoderImpl{PublicKey: options.PublicKey},
		))
		router.Use(middleware.RequestLoggerMiddleware())
	}

	router.HandleFunc("/device", tracing.InstrumentHandler("device.list", server.list)).Methods(http.MethodGet)
	router.HandleFunc("/device/{device_id}", tracing.InstrumentHandler("device.get", server.get)).Methods(http.MethodGet)

	server.Server = httptest.NewServer(router)

	return server
}

// Requests returns a copy of every request handled so far
func (server *Server) Requests() []Request {
	server.mu.Lock()
	defer server.mu.Unlock()

	requests := make([]Request, len(server.requests))
	copy(requests, server.requests)

	return requests
}

// FailWith makes every following request answer with publicError. Passing nil
// restores normal behaviour.
func (server *Server) FailWith(publicError *httputil.PublicError) {
	server.mu.Lock()
	defer server.mu.Unlock()

	server.failure = publicError
}

// record stores r and applies the configured delay. It reports false when
// the client gave up while waiting.
func (server *Server) record(r *http.Request) (*httputil.PublicError, bool) {
	armAccessToken, _ := r.Context().Value(middleware.ArmAccessTokenContextKey).(token.ArmAccessToken)

	server.mu.Lock()
	server.requests = append(server.requests, Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		RawPath:   r.URL.EscapedPath(),
		Query:     r.URL.Query(),
		Header:    r.Header.Clone(),
		AccountID: armAccessToken.AccountID,
		RequestID: armAccessToken.RequestID,
	})
	failure := server.failure
	delay := server.delay
	server.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return nil, false
		}
	}

	return failure, true
}

func (server *Server) list(w http.ResponseWriter, r *http.Request) {
	failure, ok := server.record(r)

	if !ok {
		return
	}

	if failure != nil {
		server.writeJSON(w, failure.Code, failure)

		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	server.mu.Lock()
	total := len(server.devices)
	start := (page - 1) * limit

	if start > total {
		start = total
	}

	end := start + limit

	if end > total {
		end = total
	}

	data := append([]Device{}, server.devices[start:end]...)
	server.mu.Unlock()

	server.writeJSON(w, http.StatusOK, DevicePage{
		Object: "list",
		Page:   page,
		Limit:  limit,
		Total:  total,
		Data:   data,
	})
}

func (server *Server) get(w http.ResponseWriter, r *http.Request) {
	failure, ok := server.record(r)

	if !ok {
		return
	}

	if failure != nil {
		server.writeJSON(w, failure.Code, failure)

		return
	}

	id := mux.Vars(r)["device_id"]

	server.mu.Lock()
	defer server.mu.Unlock()

	for _, device := range server.devices {
		if device.ID() == id {
			server.writeJSON(w, http.StatusOK, device)

			return
		}
	}

	server.writeJSON(w, http.StatusNotFound, &httputil.PublicError{
		Object:  "error",
		Code:    http.StatusNotFound,
		Type:    httputil.StatusNotFoundErrType,
		Message: "Could not find device " + id,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))

	if err != nil || value <= 0 {
		return fallback
	}

	return value
}

func (server *Server) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	encoded, err := json.Marshal(body)

	if err != nil {
		server.logger.Warn("Could not encode response as json.", zap.Error(err), zap.Int("response_code", http.StatusInternalServerError))

		code = http.StatusInternalServerError
		encoded, _ = json.Marshal(&httputil.PublicError{
			Object:  "error",
			Code:    http.StatusInternalServerError,
			Type:    httputil.StatusInternalServerErrType,
			Message: err.Error(),
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf8")
	w.WriteHeader(code)

	if _, err := io.WriteString(w, string(encoded)+"\n"); err != nil {
		server.logger.Warn("Could not write response.", zap.Error(err), zap.Int("response_code", code))
	}
}
