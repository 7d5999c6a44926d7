package tokens

import (
	"crypto/rsa"
	"io/ioutil"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// JWTTokenFactory signs the short lived account tokens the device backend
// accepts from other services.
type JWTTokenFactory struct {
	Issuer     string
	TokenExp   time.Duration
	SigningKey *rsa.PrivateKey
	now        func() time.Time
}

func (tokenFactory *JWTTokenFactory) initClaims(claims map[string]interface{}) map[string]interface{} {
	if claims == nil {
		claims = map[string]interface{}{}
	}

	now := time.Now
	if tokenFactory.now != nil {
		now = tokenFactory.now
	}

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = now().Add(tokenFactory.TokenExp).Unix()
	}

	claims["iat"] = now().Unix()
	claims["iss"] = tokenFactory.Issuer

	return claims
}

func (tokenFactory *JWTTokenFactory) CreateAccountToken(accountID string, claims map[string]interface{}) (string, error) {
	if tokenFactory.SigningKey == nil {
		return "", errors.New("no signing key configured")
	}

	claims = tokenFactory.initClaims(claims)
	claims["sub"] = "account"
	claims["account_id"] = accountID

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims(claims))

	return token.SignedString(tokenFactory.SigningKey)
}

// LoadRSAPrivateKey reads a PEM encoded RSA private key
func LoadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	pem, err := ioutil.ReadFile(path)

	if err != nil {
		return nil, errors.Wrapf(err, "unable to read JWT signing key file %s", path)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)

	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse JWT signing key PEM %s", path)
	}

	return key, nil
}
