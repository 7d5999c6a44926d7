package services

import (
	"net/http"
	"strings"

	"device-api-client/httputil"

	"github.com/armPelionEdge/muuid-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RequestInterceptor runs before a request is sent. It may modify the request
// or return a replacement, for instance one carrying a derived context.
type RequestInterceptor func(req *http.Request) (*http.Request, error)

var ErrNoAccountID = errors.New("no account id available for the account token")

type TokenFactory interface {
	CreateAccountToken(accountID string, claims map[string]interface{}) (string, error)
}

type RequestIDGenerator interface {
	RequestID() string
}

// MUUIDRequestIDs generates MAC based ids, see muuid.MUUIDGeneratorBuilder
type MUUIDRequestIDs struct {
	Generator *muuid.MUUIDGenerator
}

func (ids *MUUIDRequestIDs) RequestID() string {
	return ids.Generator.UUID().String()
}

// RandomRequestIDs is used when no network interface is available for MUUIDs
type RandomRequestIDs struct{}

func (RandomRequestIDs) RequestID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// RequestIDInterceptor makes sure each request carries an X-Request-ID header
// and exposes the id through the request context.
func RequestIDInterceptor(generator RequestIDGenerator) RequestInterceptor {
	return func(req *http.Request) (*http.Request, error) {
		requestID := req.Header.Get(httputil.HeaderRequestID)

		if requestID == "" {
			requestID = httputil.RequestID(req.Context())
		}

		if requestID == "" {
			requestID = generator.RequestID()
		}

		req.Header.Set(httputil.HeaderRequestID, requestID)

		return req.WithContext(httputil.WithRequestID(req.Context(), requestID)), nil
	}
}

func BearerTokenInterceptor(token string) RequestInterceptor {
	return func(req *http.Request) (*http.Request, error) {
		req.Header.Set("Authorization", "Bearer "+token)

		return req, nil
	}
}

// AccountTokenInterceptor signs a fresh account token per request. The account
// stored in the request context wins over defaultAccountID.
func AccountTokenInterceptor(factory TokenFactory, defaultAccountID string) RequestInterceptor {
	return func(req *http.Request) (*http.Request, error) {
		accountID := httputil.AccountID(req.Context())

		if accountID == "" {
			accountID = defaultAccountID
		}

		if accountID == "" {
			return nil, ErrNoAccountID
		}

		bearer, err := factory.CreateAccountToken(accountID, map[string]interface{}{
			"request_id": httputil.RequestID(req.Context()),
		})

		if err != nil {
			return nil, errors.Wrap(err, "unable to generate access token")
		}

		req.Header.Set("Authorization", "Bearer "+bearer)

		return req.WithContext(httputil.WithAccountID(req.Context(), accountID)), nil
	}
}
