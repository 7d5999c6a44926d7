package tokens

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return key
}

func TestCreateAccountToken(t *testing.T) {
	key := newKey(t)
	issued := time.Now().Truncate(time.Second)
	factory := &JWTTokenFactory{
		Issuer:     "device-api-client",
		TokenExp:   time.Minute,
		SigningKey: key,
		now:        func() time.Time { return issued },
	}

	signed, err := factory.CreateAccountToken("acc-1", map[string]interface{}{"request_id": "req-1"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, jwt.SigningMethodRS256, parsed.Method)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "acc-1", claims["account_id"])
	assert.Equal(t, "req-1", claims["request_id"])
	assert.Equal(t, "account", claims["sub"])
	assert.Equal(t, "device-api-client", claims["iss"])
	assert.Equal(t, float64(issued.Add(time.Minute).Unix()), claims["exp"])
}

func TestCreateAccountTokenKeepsExplicitExpiry(t *testing.T) {
	factory := &JWTTokenFactory{TokenExp: time.Minute, SigningKey: newKey(t)}
	claims := factory.initClaims(map[string]interface{}{"exp": int64(42)})

	assert.Equal(t, int64(42), claims["exp"])
}

func TestCreateAccountTokenWithoutKey(t *testing.T) {
	factory := &JWTTokenFactory{}
	_, err := factory.CreateAccountToken("acc-1", nil)

	assert.Error(t, err)
}

func TestLoadRSAPrivateKey(t *testing.T) {
	key := newKey(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "key.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	require.NoError(t, ioutil.WriteFile(path, pem.EncodeToMemory(block), 0600))

	loaded, err := LoadRSAPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadRSAPrivateKey(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, ioutil.WriteFile(garbage, []byte("not a key"), 0600))
	_, err = LoadRSAPrivateKey(garbage)
	assert.Error(t, err)
}
