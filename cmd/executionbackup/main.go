// Command executionbackup runs an Ethereum engine API load-balancing
// proxy: one endpoint for the consensus client, many execution nodes
// behind it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/executionbackup/config"
	"github.com/kbukum/executionbackup/jwt"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/node"
	"github.com/kbukum/executionbackup/observability"
	"github.com/kbukum/executionbackup/router"
	"github.com/kbukum/executionbackup/server"
	"github.com/kbukum/executionbackup/version"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to .env file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.ClientVersion())
		return
	}

	if err := run(*configFile, *envFile); err != nil {
		logger.Fatal("startup failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

func run(configFile, envFile string) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent("main")
	log.Info("starting", logger.Fields(
		"version", version.GetShortVersion(),
		"network", cfg.Network,
		"nodes", len(cfg.Nodes),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, shutdownObs, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownObs()

	nodes, err := buildNodes(cfg)
	if err != nil {
		return err
	}

	rt, err := router.New(router.Config{
		MajorityFraction: cfg.FcuMajority,
		RecheckInterval:  cfg.RecheckInterval,
		NodeTimings:      cfg.NodeTimings,
		Forks:            cfg.ForkConfig(),
		Metrics:          metrics,
	}, nodes)
	if err != nil {
		return err
	}
	go rt.Run(ctx)

	poolSecret, err := loadPoolSecret(cfg)
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Addr:    cfg.Server.Addr(),
		Metrics: metrics,
	}, rt, nodeFactory(poolSecret))

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutting down")
	return srv.Stop(context.Background())
}

// buildNodes creates a node per config entry, resolving per-node JWT
// secrets against the pool-wide one.
func buildNodes(cfg *config.Config) ([]*node.Node, error) {
	entries := cfg.ParsedNodes()
	nodes := make([]*node.Node, 0, len(entries))

	for _, entry := range entries {
		path := entry.JwtSecretPath
		if path == "" {
			path = cfg.JwtSecret
		}
		secret, err := jwt.LoadSecret(path)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", entry.URL, err)
		}

		n, err := node.New(entry.URL, secret)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// loadPoolSecret loads the pool-wide JWT secret used for nodes added at
// runtime. It may be absent when every configured node carries its own.
func loadPoolSecret(cfg *config.Config) (jwt.Secret, error) {
	if cfg.JwtSecret == "" {
		return nil, nil
	}
	return jwt.LoadSecret(cfg.JwtSecret)
}

// nodeFactory resolves /add_nodes entries, honoring #jwt-secret=
// suffixes.
func nodeFactory(poolSecret jwt.Secret) server.NodeFactory {
	return func(raw string) (*node.Node, error) {
		entry := (&config.Config{Nodes: []string{raw}}).ParsedNodes()[0]

		secret := poolSecret
		if entry.JwtSecretPath != "" {
			loaded, err := jwt.LoadSecret(entry.JwtSecretPath)
			if err != nil {
				return nil, err
			}
			secret = loaded
		}
		if secret == nil {
			return nil, fmt.Errorf("node %s: no jwt secret available", entry.URL)
		}
		return node.New(entry.URL, secret)
	}
}

// initObservability wires OTLP metrics and tracing when enabled.
func initObservability(ctx context.Context, cfg *config.Config) (*observability.ProxyMetrics, func(), error) {
	shutdowns := make([]func(), 0, 2)
	shutdown := func() {
		for _, fn := range shutdowns {
			fn()
		}
	}

	var metrics *observability.ProxyMetrics

	if cfg.Observability.MetricsEnabled {
		mc := observability.DefaultMeterConfig(cfg.Name)
		mc.ServiceVersion = version.GetShortVersion()
		mc.Environment = cfg.Environment
		mc.Endpoint = cfg.Observability.Endpoint
		mc.Insecure = cfg.Observability.Insecure
		mc.Interval = cfg.Observability.Interval

		mp, err := observability.InitMeter(ctx, &mc)
		if err != nil {
			return nil, shutdown, err
		}
		shutdowns = append(shutdowns, func() { _ = mp.Shutdown(context.Background()) })

		metrics, err = observability.NewProxyMetrics(observability.Meter("executionbackup"))
		if err != nil {
			return nil, shutdown, err
		}
	}

	if cfg.Observability.TracingEnabled {
		tc := observability.DefaultTracerConfig(cfg.Name)
		tc.ServiceVersion = version.GetShortVersion()
		tc.Environment = cfg.Environment
		tc.Endpoint = cfg.Observability.Endpoint
		tc.Insecure = cfg.Observability.Insecure
		tc.SampleRate = cfg.Observability.SampleRate

		tp, err := observability.InitTracer(ctx, tc)
		if err != nil {
			return nil, shutdown, err
		}
		shutdowns = append(shutdowns, func() { _ = tp.Shutdown(context.Background()) })
	}

	return metrics, shutdown, nil
}
