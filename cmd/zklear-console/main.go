package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zklear-console/pkg/actions"
	"zklear-console/pkg/api"
	"zklear-console/pkg/config"
	"zklear-console/pkg/console"
	"zklear-console/pkg/gateway"
	"zklear-console/pkg/logging"
	metricsPrometheus "zklear-console/pkg/metrics/prometheus"
	"zklear-console/pkg/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLoggerFromEnv(os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	defer logger.Sync()

	cfg, err := config.Load(config.FromEnviron())
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OtelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsCollector := metricsPrometheus.NewPrometheusCollector(cfg.MetricsNamespace)
	if err := metricsCollector.Register(registry); err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	gatewayConfig, err := cfg.GatewayConfig()
	if err != nil {
		logger.Fatal("invalid gateway configuration", zap.Error(err))
	}
	client, err := gateway.NewClientWithMetrics(gatewayConfig, metricsCollector)
	if err != nil {
		logger.Fatal("failed to create ledger gateway", zap.Error(err))
	}

	ctrl := console.New(client,
		console.WithLogger(logger.Named("console")),
		console.WithMetrics(metricsCollector),
	)

	queue := actions.NewQueueWithMetrics(cfg.QueueConfig(), metricsCollector)

	serverConfig := cfg.ServerConfig()
	serverConfig.Gatherer = registry
	server := api.NewServer(ctrl, queue, serverConfig)

	logger.Info("starting zklear console",
		zap.String("ledger_url", client.BaseURL()),
		zap.String("routes", cfg.LedgerRoutes),
		zap.String("address", cfg.ConsoleAddr),
		zap.Bool("tracing", cfg.OtelEndpoint != ""),
	)

	if err := server.Start(); err != nil {
		logger.Fatal("failed to start console api", zap.Error(err))
	}

	// Initial load; a failure is shown in the view and the operator can retry.
	go func() {
		if err := ctrl.Initialize(ctx); err != nil {
			logger.Warn("initial refresh failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("console api shutdown error", zap.Error(err))
	}
	if err := queue.Flush(cfg.QueueConfig().ActionTimeout); err != nil {
		logger.Warn("pending actions abandoned", zap.Error(err), zap.Int64("pending", queue.Stats().Pending))
	}
	queue.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", zap.Error(err))
	}

	logger.Info("stopped")
}
