package config

import (
	"flag"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultLoggingLevel  = "info"
	DefaultJWTIssuer     = "device-api-client"
	DefaultJWTExpSeconds = 60
	DefaultUUIDInterface = "eth0"
)

// Config holds everything the command line can set
type Config struct {
	BaseURL              string        `validate:"required,url"`
	Timeout              time.Duration `validate:"gte=0"`
	LoggingLevel         string        `validate:"oneof=debug info warn error fatal"`
	AccountID            string        `validate:"required_with=JWTSigningKeyFile"`
	BearerToken          string        `validate:"excluded_with=JWTSigningKeyFile"`
	JWTSigningKeyFile    string
	JWTIssuer            string `validate:"required_with=JWTSigningKeyFile"`
	JWTExpSeconds        int64  `validate:"gt=0"`
	UUIDNetworkInterface string
	MetricsTextfile      string

	// Args are the positional arguments left after the flags
	Args []string
}

var validate = validator.New()

// Parse reads the flags in args (without the program name) and validates the
// result. Usage output goes to output.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	var config Config

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&config.BaseURL, "baseURL", "", "Root URL of the device backend, e.g. http://localhost:8080/api/v1")
	flags.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Default timeout for requests that do not set their own, 0 disables it")
	flags.StringVar(&config.LoggingLevel, "loggingLevel", DefaultLoggingLevel, "The level of logging desired")
	flags.StringVar(&config.AccountID, "accountID", "", "Account the requests are made on behalf of")
	flags.StringVar(&config.BearerToken, "bearerToken", "", "Static bearer token sent with every request")
	flags.StringVar(&config.JWTSigningKeyFile, "jwtSigningKey", "", "Private key used for signing account tokens")
	flags.StringVar(&config.JWTIssuer, "jwtIssuer", DefaultJWTIssuer, "Issuer field for JWT tokens")
	flags.Int64Var(&config.JWTExpSeconds, "jwtExpiration", DefaultJWTExpSeconds, "JWT expiration time in seconds")
	flags.StringVar(&config.UUIDNetworkInterface, "uuidNetworkInterface", DefaultUUIDInterface, "The network interface to be used for request id generation")
	flags.StringVar(&config.MetricsTextfile, "metricsTextfile", "", "Write prometheus metrics to this file before exiting")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	config.LoggingLevel = strings.ToLower(config.LoggingLevel)
	config.Args = flags.Args()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate reports the first invalid field in a readable form
func (config Config) Validate() error {
	err := validate.Struct(config)

	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	fieldErr := validationErrors[0]

	return errors.Errorf("invalid %s: failed %q check", flagName(fieldErr.StructField()), fieldErr.Tag())
}

// JWTExpiration is the configured token lifetime
func (config Config) JWTExpiration() time.Duration {
	return time.Duration(config.JWTExpSeconds) * time.Second
}

// ParsedBaseURL returns BaseURL as a *url.URL
func (config Config) ParsedBaseURL() (*url.URL, error) {
	u, err := url.Parse(config.BaseURL)

	if err != nil {
		return nil, errors.Wrap(err, "\"baseURL\" could not be parsed")
	}

	return u, nil
}

func flagName(field string) string {
	switch field {
	case "BaseURL":
		return "baseURL"
	case "JWTSigningKeyFile":
		return "jwtSigningKey"
	case "JWTIssuer":
		return "jwtIssuer"
	case "JWTExpSeconds":
		return "jwtExpiration"
	case "UUIDNetworkInterface":
		return "uuidNetworkInterface"
	default:
		return strings.ToLower(field[:1]) + field[1:]
	}
}
