package httputil

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

const minSuccessStatusCode = 200
const maxSuccessStatusCode = 299

// IsSuccessResponse returns true if the
// status code in the HTTP response indicates
// success (status_code E [200, 299])
func IsSuccessResponse(resp *http.Response) bool {
	return resp.StatusCode >= minSuccessStatusCode && resp.StatusCode <= maxSuccessStatusCode
}

// IsTimeout reports whether err was caused by a request running out of time
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
