// Package config builds the console configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"zklear-console/pkg/actions"
	"zklear-console/pkg/api"
	"zklear-console/pkg/gateway"
	"zklear-console/pkg/resilience"
)

type Config struct {
	LedgerURL          string
	LedgerTimeout      time.Duration
	LedgerBatchTimeout time.Duration
	LedgerRoutes       string
	ConsoleAddr        string
	BreakerEnabled     bool
	BreakerFailures    uint32
	BreakerCooldown    time.Duration
	ActionQueueSize    int
	MetricsNamespace   string
	OtelEndpoint       string
	ServiceName        string
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	ledgerURL := gateway.DefaultBaseURL
	if raw, ok := source.Lookup("LEDGER_API_URL"); ok && strings.TrimSpace(raw) != "" {
		ledgerURL = strings.TrimSpace(raw)
	}

	timeout, err := parseDurationEnv(source, "LEDGER_API_TIMEOUT", gateway.DefaultTimeout)
	if err != nil {
		return Config{}, err
	}
	batchTimeout, err := parseDurationEnv(source, "LEDGER_API_BATCH_TIMEOUT", timeout)
	if err != nil {
		return Config{}, err
	}

	routes := "canonical"
	if raw, ok := source.Lookup("LEDGER_API_ROUTES"); ok && strings.TrimSpace(raw) != "" {
		routes = strings.ToLower(strings.TrimSpace(raw))
	}
	if _, err := gateway.RoutesByName(routes); err != nil {
		return Config{}, fmt.Errorf("invalid LEDGER_API_ROUTES: %w", err)
	}

	consoleAddr := ":3000"
	if raw, ok := source.Lookup("CONSOLE_ADDR"); ok && raw != "" {
		consoleAddr = raw
	}

	breakerEnabled, err := parseBoolEnv(source, "BREAKER_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	breakerFailures, err := parseUintEnv(source, "BREAKER_FAILURES", 5)
	if err != nil {
		return Config{}, err
	}
	if breakerFailures == 0 || breakerFailures > 1<<31 {
		return Config{}, fmt.Errorf("invalid BREAKER_FAILURES: %d", breakerFailures)
	}
	breakerCooldown, err := parseDurationEnv(source, "BREAKER_COOLDOWN", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	queueSize, err := parseUintEnv(source, "ACTION_QUEUE_SIZE", 16)
	if err != nil {
		return Config{}, err
	}
	if queueSize == 0 || queueSize > 1<<16 {
		return Config{}, fmt.Errorf("invalid ACTION_QUEUE_SIZE: %d", queueSize)
	}

	namespace := "zklear_console"
	if raw, ok := source.Lookup("METRICS_NAMESPACE"); ok && strings.TrimSpace(raw) != "" {
		namespace = strings.TrimSpace(raw)
	}

	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelEndpoint = strings.TrimSpace(otelEndpoint)

	serviceName := "zklear-console"
	if raw, ok := source.Lookup("OTEL_SERVICE_NAME"); ok && strings.TrimSpace(raw) != "" {
		serviceName = strings.TrimSpace(raw)
	}

	return Config{
		LedgerURL:          ledgerURL,
		LedgerTimeout:      timeout,
		LedgerBatchTimeout: batchTimeout,
		LedgerRoutes:       routes,
		ConsoleAddr:        consoleAddr,
		BreakerEnabled:     breakerEnabled,
		BreakerFailures:    uint32(breakerFailures),
		BreakerCooldown:    breakerCooldown,
		ActionQueueSize:    int(queueSize),
		MetricsNamespace:   namespace,
		OtelEndpoint:       otelEndpoint,
		ServiceName:        serviceName,
	}, nil
}

// GatewayConfig returns the explicit client configuration for the ledger gateway.
func (c Config) GatewayConfig() (gateway.Config, error) {
	routes, err := gateway.RoutesByName(c.LedgerRoutes)
	if err != nil {
		return gateway.Config{}, err
	}

	breaker := resilience.DefaultBreakerConfig().
		WithFailureThreshold(c.BreakerFailures).
		WithCooldown(c.BreakerCooldown)
	if !c.BreakerEnabled {
		breaker = breaker.Disabled()
	}

	return gateway.Config{
		BaseURL:      c.LedgerURL,
		Timeout:      c.LedgerTimeout,
		BatchTimeout: c.LedgerBatchTimeout,
		Routes:       routes,
		Breaker:      breaker,
	}, nil
}

// QueueConfig returns the background action queue configuration. Actions are
// bounded by the batch timeout plus the refresh that follows a batch.
func (c Config) QueueConfig() actions.QueueConfig {
	return actions.QueueConfig{
		Name:          "console",
		QueueSize:     c.ActionQueueSize,
		Workers:       1,
		ActionTimeout: c.LedgerBatchTimeout + c.LedgerTimeout,
	}
}

// ServerConfig returns the console API server configuration.
func (c Config) ServerConfig() api.ServerConfig {
	config := api.DefaultServerConfig()
	config.Address = c.ConsoleAddr

	// Inline operations run a call plus a refresh.
	if op := 2*c.LedgerTimeout + time.Second; op > config.OperationTimeout {
		config.OperationTimeout = op
		config.WriteTimeout = op + 5*time.Second
	}
	return config
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}

func parseBoolEnv(source EnvSource, key string, defaultValue bool) (bool, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
