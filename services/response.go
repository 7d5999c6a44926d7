package services

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v
func (response *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(response.Body, v); err != nil {
		return errors.Wrap(err, "unable to parse response body")
	}

	return nil
}
