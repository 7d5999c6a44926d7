package devicetest

import (
	"encoding/json"
	"net/http"
	"testing"

	"device-api-client/httputil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestServerReportsEncodeFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	server := NewServer(Options{Logger: zap.New(core)}, Device{"id": "broken", "channel": make(chan int)})
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/device/broken")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var publicError httputil.PublicError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&publicError))
	assert.Equal(t, http.StatusInternalServerError, publicError.Code)
	assert.Equal(t, httputil.StatusInternalServerErrType, publicError.Type)
	assert.Contains(t, publicError.Message, "unsupported type")

	entries := logs.FilterMessage("Could not encode response as json.").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[0].ContextMap()["response_code"])
}

func TestServerGetMatchesDecodedID(t *testing.T) {
	server := NewServer(Options{}, Device{"id": "50%"})
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/device/50%25")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/device/50%", requests[0].Path)
}
