package main

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/pkg/clients"
	"github.com/ajitpratap0/tap-purecloud/pkg/compression"
	"github.com/ajitpratap0/tap-purecloud/pkg/config"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/base"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/destinations/singer"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/sources/purecloud"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
	"github.com/ajitpratap0/tap-purecloud/pkg/logger"
	"github.com/ajitpratap0/tap-purecloud/pkg/metrics"
	"github.com/ajitpratap0/tap-purecloud/pkg/observability"
	"github.com/ajitpratap0/tap-purecloud/pkg/state"
)

const shutdownTimeout = 5 * time.Second

// applyFlags lets command-line flags override the loaded config.
func applyFlags(cfg *config.Config, flags *syncFlags) {
	if flags.stateFile != "" {
		cfg.State.Backend = state.BackendFile
		cfg.State.Path = flags.stateFile
	}
	if flags.logLevel != "" {
		cfg.Observability.LogLevel = flags.logLevel
	}
	if flags.metricsAddr != "" {
		cfg.Observability.MetricsAddr = flags.metricsAddr
	}
	if flags.trace {
		cfg.Observability.EnableTracing = true
	}
	if flags.output != "" {
		cfg.Output.Path = flags.output
	}
	if flags.compression != "" {
		cfg.Output.Compression = flags.compression
	}
}

func runSync(ctx context.Context, flags *syncFlags, stdout io.Writer) error {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = logger.Component(log, "tap-purecloud-cli")

	if err := execute(ctx, cfg, stdout, log); err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}

func execute(ctx context.Context, cfg *config.Config, stdout io.Writer, log *zap.Logger) (err error) {
	if cfg.Observability.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.Observability.MetricsAddr, log)
		if err != nil {
			return err
		}
		defer shutdown(log, "metrics server", srv.Shutdown)
	}

	if cfg.Observability.EnableTracing {
		tp, err := observability.Setup(ctx, observability.DefaultTracingConfig(version), log)
		if err != nil {
			return err
		}
		defer shutdown(log, "tracing", tp.Shutdown)
	}

	sink, err := openSink(cfg, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			if err == nil {
				err = cerr
				return
			}
			log.Warn("failed to close output", zap.Error(cerr))
		}
	}()

	store, err := state.New(ctx, cfg.State)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close state store", zap.Error(err))
		}
	}()

	client, err := clients.NewHTTPClient(clients.HTTPConfigFrom(cfg), log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	if err := client.Authenticate(ctx); err != nil {
		return err
	}

	rel := cfg.Reliability
	notifier := genesys.NewNotifier(client, genesys.NotifierConfig{
		MaxMessages: cfg.Notifications.MaxMessages,
		SettleDelay: cfg.Notifications.SettleDelay,
		Timeout:     cfg.Timeouts.Notification,
		Retry:       base.NewRetryPolicy(rel.RetryAttempts, rel.RetryInterval, rel.RetryJitter),
	}, log)

	runner, err := purecloud.New(purecloud.Options{
		Config:    cfg,
		API:       client,
		Adherence: notifier,
		Sink:      sink,
		Store:     store,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	summary, err := runner.Sync(ctx)
	if err != nil {
		return err
	}
	log.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int64("records", sink.RecordsWritten()),
		zap.String("next_start_date", summary.NextStart.Format(config.DateLayout)))
	return nil
}

func openSink(cfg *config.Config, stdout io.Writer) (*singer.Destination, error) {
	if cfg.Output.Path == "" {
		return singer.New(stdout, singer.Options{}), nil
	}
	algo, err := compression.ParseAlgorithm(cfg.Output.Compression)
	if err != nil {
		return nil, err
	}
	return singer.Open(singer.Options{
		Path:        cfg.Output.Path,
		Compression: algo,
		Level:       compression.Default,
	})
}

func shutdown(log *zap.Logger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("shutdown failed", zap.String("component", what), zap.Error(err))
	}
}
