package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"google.golang.org/grpc"

	api "github.com/oshokin/smart-home/internal/api/grpc/house"
	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/evaluator"
	"github.com/oshokin/smart-home/internal/hub"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/publisher/mqtt"
	"github.com/oshokin/smart-home/internal/report"
	"github.com/oshokin/smart-home/internal/repository/history"
	"github.com/oshokin/smart-home/internal/version"
)

// Options controls the house-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HistoryFile overrides the history file from the settings.
	HistoryFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the controllers and the gRPC server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
//
//nolint:funlen // Startup wiring reads best in one place.
func Run(ctx context.Context, opts *Options) error {
	// Load configuration first to get server and logging settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyLogSettings(ctx, settings)

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "house-server")

	// Workers run on a derived context so a failed Serve can stop them too.
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if opts.HistoryFile != "" {
		settings.History.File = opts.HistoryFile
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	repo, err := openHistory(ctx, settings.History)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	defer func() {
		if err := repo.Close(context.WithoutCancel(ctx)); err != nil {
			logger.WarnKV(ctx, "Failed to close history", "error", err)
		}
	}()

	publisher, closePublisher, err := openPublisher(ctx, settings.MQTT)
	if err != nil {
		return fmt.Errorf("open publisher: %w", err)
	}

	defer closePublisher()

	svc, err := buildService(ctx, settings, repo, publisher, audit.SystemClock)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	defer svc.close()

	sink, err := openSink(ctx, settings.Report)
	if err != nil {
		return fmt.Errorf("open report sink: %w", err)
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with house service.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(api.ActorLogging(), api.BasicAuth(usersOf(settings))))
	api.RegisterHouseServiceServer(grpcServer, api.NewServer(svc))

	var workers sync.WaitGroup

	for _, c := range svc.controllers {
		workers.Go(func() {
			poll(ctx, c)
		})
	}

	workers.Go(func() {
		every(ctx, settings.History.Interval, func(ctx context.Context) {
			if err := svc.record(ctx); err != nil {
				logger.WarnKV(ctx, "Failed to record history", "error", err)
			}
		})
	})

	reporter := report.NewReporter(repo, sink, audit.SystemClock)

	workers.Go(func() {
		every(ctx, settings.Report.Interval, func(ctx context.Context) {
			written, err := reporter.Run(ctx)
			if err != nil {
				logger.WarnKV(ctx, "Report run failed", "error", err)
			}

			logger.DebugKV(ctx, "Reports written", "files", written)
		})
	})

	logger.InfoKV(ctx, "House server listening",
		"version", version.Short(),
		"listen_address", listenAddress,
		"houses", svc.names,
		"history_file", settings.History.File,
		"mongo", settings.History.MongoURI != "",
		"mqtt_broker", settings.MQTT.Broker,
	)

	if err := serve(ctx, stop, grpcServer, lis, &workers); err != nil {
		return err
	}

	logger.Info(ctx, "GRPC server stopped")

	// Final snapshot so the next start resumes light accounting.
	if err := svc.record(context.WithoutCancel(ctx)); err != nil {
		logger.WarnKV(ctx, "Failed to record final history", "error", err)
	}

	return nil
}

// serve blocks until the server stops, then stops and waits for the workers.
func serve(ctx context.Context, stop context.CancelFunc, srv *grpc.Server, lis net.Listener, workers *sync.WaitGroup) error {
	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		srv.GracefulStop()
		close(done)
	}()

	err := srv.Serve(lis)

	stop()
	<-done
	workers.Wait()

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// applyLogSettings switches the global logger to the configured level and format.
func applyLogSettings(ctx context.Context, settings *config.Config) {
	if settings.LogFormat != "" {
		format, ok := logger.ParseFormat(settings.LogFormat)
		if !ok {
			logger.WarnKV(ctx, "Unknown log format, keeping console", "log_format", settings.LogFormat)
		}

		logger.SetLogger(logger.New(format, os.Stdout))
	}

	if settings.LogLevel != "" {
		level, ok := logger.ParseLogLevel(settings.LogLevel)
		if !ok {
			logger.WarnKV(ctx, "Unknown log level, keeping info", "log_level", settings.LogLevel)
		}

		logger.SetLevel(level)
	}
}

// openHistory selects the Mongo backend when a URI is configured, the file backend otherwise.
func openHistory(ctx context.Context, settings config.History) (history.Repository, error) {
	if settings.MongoURI == "" {
		return history.NewFileRepository(settings.File), nil
	}

	return history.NewMongoRepository(ctx, settings.MongoURI, settings.MongoDatabase, settings.MongoCollection)
}

// openPublisher connects to the MQTT broker when one is configured.
// The returned close function is always safe to call.
func openPublisher(ctx context.Context, settings config.MQTT) (Publisher, func(), error) {
	if settings.Broker == "" {
		return nil, func() {}, nil
	}

	client, err := mqtt.NewClient(settings.Broker, settings.ClientID, settings.TopicRoot)
	if err != nil {
		return nil, nil, err
	}

	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}

	return client, client.Close, nil
}

// openSink writes reports to S3 when a bucket is configured, to a directory otherwise.
func openSink(ctx context.Context, settings config.Report) (report.Sink, error) {
	if settings.S3Bucket == "" {
		return report.NewDirectorySink(settings.Directory), nil
	}

	return report.NewS3Sink(ctx, settings.S3Bucket, settings.S3Prefix)
}

// buildService creates one controller per configured house.
func buildService(
	ctx context.Context,
	settings *config.Config,
	repo history.Repository,
	publisher Publisher,
	clock audit.Clock,
) (*service, error) {
	ev := evaluator.New(evaluator.WithClock(clock))

	controllers := make([]*controller, 0, len(settings.Houses))

	for _, h := range settings.Houses {
		var houseHub Hub

		if h.Address != "" {
			houseHub = hub.NewClient(h.Address, settings.Timeout)
		} else {
			logger.InfoKV(ctx, "House has no hub address, running detached", "house", h.Name)
		}

		controllers = append(controllers, newController(h, houseHub, publisher, ev, clock))
	}

	return newService(ctx, controllers, repo, clock)
}

func usersOf(settings *config.Config) map[string]string {
	users := make(map[string]string, len(settings.Users))
	for _, u := range settings.Users {
		users[u.Name] = u.Password
	}

	return users
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
