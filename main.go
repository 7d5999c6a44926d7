package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"device-api-client/config"
	"device-api-client/httputil"
	"device-api-client/log"
	"device-api-client/metrics"
	"device-api-client/services"
	"device-api-client/tokens"
	"device-api-client/tracing"

	"github.com/armPelionEdge/muuid-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitPublicError = 2
)

const usage = `Usage: device-api-client [flags] <command>

Commands:
  list                    fetch every device
  page <page> <limit>     fetch a single page of devices
  get <id> [<id>...]      fetch devices by id

Flags:
`

var errUsage = errors.New("invalid command line")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Parse("device-api-client", args, stderr)

	if err != nil {
		fmt.Fprintf(stderr, "%s\n\n%s", err, usage)

		return exitFailure
	}

	// Set up zap logging component. Stdout carries the response bodies.
	logger, _ := log.New(cfg.LoggingLevel, zapcore.AddSync(stderr))
	defer logger.Sync()

	closer, err := tracing.Start(logger.With(zap.String("component", "opentracing")))

	if err != nil {
		fmt.Fprintf(stderr, "Could not start tracing: %s\n", err)

		return exitFailure
	}

	defer closer.Close()

	deviceAPI, err := newDeviceAPI(cfg, logger)

	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)

		return exitFailure
	}

	if cfg.AccountID != "" {
		ctx = httputil.WithAccountID(ctx, cfg.AccountID)
	}

	err = execute(ctx, deviceAPI, cfg.Args, stdout)

	if cfg.MetricsTextfile != "" {
		if metricsErr := metrics.WriteTextfile(cfg.MetricsTextfile); metricsErr != nil {
			logger.Error("run(): Could not write metrics textfile", zap.String("path", cfg.MetricsTextfile), zap.Error(metricsErr))
		}
	}

	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %s\n", err)

	if errors.Is(err, errUsage) {
		fmt.Fprint(stderr, usage)

		return exitFailure
	}

	var publicError *httputil.PublicError

	if errors.As(err, &publicError) {
		return exitPublicError
	}

	return exitFailure
}

func newDeviceAPI(cfg config.Config, logger *zap.Logger) (*services.DeviceAPIImpl, error) {
	baseURL, err := cfg.ParsedBaseURL()

	if err != nil {
		return nil, err
	}

	interceptors := []services.RequestInterceptor{
		services.RequestIDInterceptor(requestIDGenerator(cfg.UUIDNetworkInterface, logger)),
	}

	switch {
	case cfg.JWTSigningKeyFile != "":
		signingKey, err := tokens.LoadRSAPrivateKey(cfg.JWTSigningKeyFile)

		if err != nil {
			return nil, err
		}

		interceptors = append(interceptors, services.AccountTokenInterceptor(&tokens.JWTTokenFactory{
			Issuer:     cfg.JWTIssuer,
			TokenExp:   cfg.JWTExpiration(),
			SigningKey: signingKey,
		}, cfg.AccountID))
	case cfg.BearerToken != "":
		interceptors = append(interceptors, services.BearerTokenInterceptor(cfg.BearerToken))
	}

	return &services.DeviceAPIImpl{
		Client: &services.Client{
			BaseURL:      baseURL,
			HTTPClient:   &http.Client{},
			Logger:       logger.With(zap.String("component", "services.Client")),
			Interceptors: interceptors,
			Timeout:      cfg.Timeout,
		},
	}, nil
}

// requestIDGenerator prefers MAC based ids and falls back to random ones when
// the interface does not exist, as in most containers.
func requestIDGenerator(networkInterface string, logger *zap.Logger) services.RequestIDGenerator {
	muuidGeneratorBuilder := muuid.MUUIDGeneratorBuilder{
		NetworkInterface: networkInterface,
		InstanceId:       1,
	}

	generator, err := muuidGeneratorBuilder.Build()

	if err != nil {
		logger.Warn("requestIDGenerator(): Falling back to random request ids", zap.String("interface", networkInterface), zap.Error(err))

		return services.RandomRequestIDs{}
	}

	return &services.MUUIDRequestIDs{Generator: &generator}
}

func execute(ctx context.Context, deviceAPI services.DeviceAPI, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.Wrap(errUsage, "no command given")
	}

	switch command := args[0]; command {
	case "list":
		if len(args) != 1 {
			return errors.Wrap(errUsage, "list takes no arguments")
		}

		response, err := deviceAPI.DeviceList(ctx)

		if err != nil {
			return err
		}

		return writeBody(stdout, response)
	case "page":
		if len(args) != 3 {
			return errors.Wrap(errUsage, "page takes <page> <limit>")
		}

		page, err := strconv.Atoi(args[1])

		if err != nil {
			return errors.Wrapf(errUsage, "page %q is not a number", args[1])
		}

		limit, err := strconv.Atoi(args[2])

		if err != nil {
			return errors.Wrapf(errUsage, "limit %q is not a number", args[2])
		}

		response, err := deviceAPI.DevicePage(ctx, page, limit)

		if err != nil {
			return err
		}

		return writeBody(stdout, response)
	case "get":
		if len(args) < 2 {
			return errors.Wrap(errUsage, "get takes at least one <id>")
		}

		return getDevices(ctx, deviceAPI, args[1:], stdout)
	default:
		return errors.Wrapf(errUsage, "unknown command %q", command)
	}
}

// getDevices fetches all ids concurrently and prints the bodies in argument
// order once every request succeeded.
func getDevices(ctx context.Context, deviceAPI services.DeviceAPI, ids []string, stdout io.Writer) error {
	responses := make([]*services.Response, len(ids))
	group, ctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		i, id := i, id

		group.Go(func() error {
			response, err := deviceAPI.DeviceByID(ctx, services.DeviceID(id))

			if err != nil {
				return errors.Wrapf(err, "device %s", id)
			}

			responses[i] = response

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	for _, response := range responses {
		if err := writeBody(stdout, response); err != nil {
			return err
		}
	}

	return nil
}

func writeBody(stdout io.Writer, response *services.Response) error {
	body := response.Body

	if len(body) == 0 || body[len(body)-1] != '\n' {
		body = append(body[:len(body):len(body)], '\n')
	}

	_, err := stdout.Write(body)

	return err
}
