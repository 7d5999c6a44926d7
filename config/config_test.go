package config

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	config, err := Parse("device-api-client", []string{"-baseURL", "http://localhost:8080/api/v1", "list"}, ioutil.Discard)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", config.BaseURL)
	assert.Equal(t, DefaultTimeout, config.Timeout)
	assert.Equal(t, "info", config.LoggingLevel)
	assert.Equal(t, DefaultJWTIssuer, config.JWTIssuer)
	assert.Equal(t, time.Minute, config.JWTExpiration())
	assert.Equal(t, "eth0", config.UUIDNetworkInterface)
	assert.Equal(t, []string{"list"}, config.Args)

	u, err := config.ParsedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", u.Host)
}

func TestParseAllFlags(t *testing.T) {
	config, err := Parse("device-api-client", []string{
		"-baseURL", "https://devices.example.com",
		"-timeout", "0",
		"-loggingLevel", "DEBUG",
		"-accountID", "acc-1",
		"-jwtSigningKey", "/etc/keys/signing.pem",
		"-jwtIssuer", "sync",
		"-jwtExpiration", "120",
		"-uuidNetworkInterface", "en0",
		"-metricsTextfile", "/tmp/device.prom",
		"get", "1", "2",
	}, ioutil.Discard)
	require.NoError(t, err)

	assert.Zero(t, config.Timeout)
	assert.Equal(t, "debug", config.LoggingLevel)
	assert.Equal(t, "acc-1", config.AccountID)
	assert.Equal(t, "/etc/keys/signing.pem", config.JWTSigningKeyFile)
	assert.Equal(t, "sync", config.JWTIssuer)
	assert.Equal(t, 2*time.Minute, config.JWTExpiration())
	assert.Equal(t, "en0", config.UUIDNetworkInterface)
	assert.Equal(t, "/tmp/device.prom", config.MetricsTextfile)
	assert.Equal(t, []string{"get", "1", "2"}, config.Args)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing base url", args: []string{"list"}, want: "invalid baseURL"},
		{name: "malformed base url", args: []string{"-baseURL", "not a url"}, want: "invalid baseURL"},
		{name: "negative timeout", args: []string{"-baseURL", "http://h", "-timeout", "-1s"}, want: "invalid timeout"},
		{name: "unknown level", args: []string{"-baseURL", "http://h", "-loggingLevel", "loud"}, want: "invalid loggingLevel"},
		{name: "signing key without account", args: []string{"-baseURL", "http://h", "-jwtSigningKey", "k.pem"}, want: "invalid accountID"},
		{name: "two auth methods", args: []string{"-baseURL", "http://h", "-accountID", "a", "-jwtSigningKey", "k.pem", "-bearerToken", "t"}, want: "invalid bearerToken"},
		{name: "zero expiration", args: []string{"-baseURL", "http://h", "-jwtExpiration", "0"}, want: "invalid jwtExpiration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("device-api-client", tt.args, ioutil.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseUnknownFlag(t *testing.T) {
	_, err := Parse("device-api-client", []string{"-esURL", "http://h"}, ioutil.Discard)
	assert.Error(t, err)
}
