package httputil

import (
	"fmt"
	"net/http"
)

const (
	StatusInternalServerErrType = "internal_server_error"
	StatusNotFoundErrType       = "not_found"
	StatusUnauthorizedErrType   = "invalid_auth"
	StatusUpstreamErrType       = "upstream_error"
)

// PublicError is returned when a http response carries a non-success status code
type PublicError struct {
	Object    string             `json:"object"`
	Code      int                `json:"code"`
	Type      string             `json:"type"`
	Message   string             `json:"message"`
	Fields    []PublicErrorField `json:"fields,omitempty"`
	RequestID string             `json:"request_id"`
}

type PublicErrorField struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (pe *PublicError) Error() string {
	if pe.Message == "" {
		return fmt.Sprintf("%d %s", pe.Code, http.StatusText(pe.Code))
	}

	return fmt.Sprintf("%d %s: %s", pe.Code, pe.Type, pe.Message)
}

// TypeForStatus picks the error type used when the backend did not send one
func TypeForStatus(code int) string {
	switch code {
	case http.StatusNotFound:
		return StatusNotFoundErrType
	case http.StatusUnauthorized, http.StatusForbidden:
		return StatusUnauthorizedErrType
	case http.StatusInternalServerError:
		return StatusInternalServerErrType
	default:
		return StatusUpstreamErrType
	}
}
