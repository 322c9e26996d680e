package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradeflow/hl-sessiond/internal/metadata"
	"github.com/tradeflow/hl-sessiond/pkg/config"
	"github.com/tradeflow/hl-sessiond/pkg/healthprobe"
	"github.com/tradeflow/hl-sessiond/pkg/httpserver"
	"github.com/tradeflow/hl-sessiond/pkg/hlws"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()
	supervisor := setupSupervisor(cfg, logger, healthChecker, opts)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, supervisor)
	metadataClient := setupMetadataClient(cfg, logger)

	return &App{
		cfg:            cfg,
		logger:         logger,
		healthChecker:  healthChecker,
		httpServer:     httpServer,
		supervisor:     supervisor,
		metadataClient: metadataClient,
		ctx:            ctx,
		cancel:         cancel,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupSupervisor(cfg *config.Config, logger *zap.Logger, healthChecker *healthprobe.HealthChecker, opts *Options) *hlws.Supervisor {
	subs := make([]hlws.Subscription, 0, len(cfg.SubscribeCoins)+len(opts.Subscriptions))
	for _, coin := range cfg.SubscribeCoins {
		subs = append(subs, hlws.Subscription{Type: "l2Book", Coin: coin})
	}
	subs = append(subs, opts.Subscriptions...)

	return hlws.New(hlws.Config{
		Endpoint:              cfg.Endpoint,
		IntendedSubscriptions: subs,
		MessageCallback:       opts.MessageCallback,
		StateCallback: func(_, to hlws.ConnectionState) {
			healthChecker.SetReady(to == hlws.Connected)
			healthChecker.SetState(to.String())
		},
		ConnectDeadline:     cfg.ConnectDeadline,
		SubscribeDeadline:   cfg.SubscribeDeadline,
		CloseDeadline:       cfg.CloseDeadline,
		PingInterval:        cfg.PingInterval,
		HealthCheckInterval: cfg.HealthCheckInterval,
		DataTimeout:         cfg.DataTimeout,
		WarningThreshold:    cfg.WarningThreshold,
		HealthLogCadence:    cfg.HealthLogCadence,
		Backoff: hlws.BackoffConfig{
			InitialDelay:   cfg.BackoffInitialDelay,
			MaxDelay:       cfg.BackoffMaxDelay,
			Multiplier:     cfg.BackoffMultiplier,
			MaxAttempts:    cfg.BackoffMaxAttempts,
			JitterFraction: cfg.BackoffJitterFraction,
		},
		Logger: logger,
	})
}

func setupHTTPServer(cfg *config.Config, logger *zap.Logger, healthChecker *healthprobe.HealthChecker, supervisor *hlws.Supervisor) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Supervisor:    supervisor,
	})
}

func setupMetadataClient(cfg *config.Config, logger *zap.Logger) *metadata.Client {
	return metadata.NewClient(cfg.MetaURL, cfg.MetaTimeout, logger)
}
