package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"zklear-console/pkg/gateway"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(EnvMap{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LedgerURL != "http://localhost:8081" {
		t.Errorf("Expected local ledger url, got %s", cfg.LedgerURL)
	}
	if cfg.LedgerTimeout != 10*time.Second || cfg.LedgerBatchTimeout != 10*time.Second {
		t.Errorf("Expected 10s timeouts, got %v / %v", cfg.LedgerTimeout, cfg.LedgerBatchTimeout)
	}
	if cfg.LedgerRoutes != "canonical" {
		t.Errorf("Expected canonical routes, got %s", cfg.LedgerRoutes)
	}
	if cfg.ConsoleAddr != ":3000" {
		t.Errorf("Expected :3000, got %s", cfg.ConsoleAddr)
	}
	if !cfg.BreakerEnabled || cfg.BreakerFailures != 5 || cfg.BreakerCooldown != 30*time.Second {
		t.Errorf("Unexpected breaker defaults %+v", cfg)
	}
	if cfg.ActionQueueSize != 16 || cfg.MetricsNamespace != "zklear_console" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.OtelEndpoint != "" {
		t.Errorf("Expected tracing disabled by default, got %q", cfg.OtelEndpoint)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(EnvMap{
		"LEDGER_API_URL":              " https://ledger.internal:8443 ",
		"LEDGER_API_TIMEOUT":          "3s",
		"LEDGER_API_BATCH_TIMEOUT":    "2m",
		"LEDGER_API_ROUTES":           "Legacy",
		"CONSOLE_ADDR":                "127.0.0.1:9000",
		"BREAKER_ENABLED":             "false",
		"BREAKER_FAILURES":            "2",
		"BREAKER_COOLDOWN":            "5s",
		"ACTION_QUEUE_SIZE":           "4",
		"METRICS_NAMESPACE":           "ops",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4318",
		"OTEL_SERVICE_NAME":           "console-a",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LedgerURL != "https://ledger.internal:8443" {
		t.Errorf("Unexpected url %q", cfg.LedgerURL)
	}
	if cfg.LedgerTimeout != 3*time.Second || cfg.LedgerBatchTimeout != 2*time.Minute {
		t.Errorf("Unexpected timeouts %v / %v", cfg.LedgerTimeout, cfg.LedgerBatchTimeout)
	}
	if cfg.LedgerRoutes != "legacy" || cfg.ConsoleAddr != "127.0.0.1:9000" {
		t.Errorf("Unexpected routes/addr %+v", cfg)
	}
	if cfg.BreakerEnabled || cfg.BreakerFailures != 2 || cfg.BreakerCooldown != 5*time.Second {
		t.Errorf("Unexpected breaker %+v", cfg)
	}
	if cfg.ActionQueueSize != 4 || cfg.MetricsNamespace != "ops" || cfg.OtelEndpoint != "localhost:4318" || cfg.ServiceName != "console-a" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestLoad_BatchTimeoutFollowsTimeout(t *testing.T) {
	cfg, err := Load(EnvMap{"LEDGER_API_TIMEOUT": "4s"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LedgerBatchTimeout != 4*time.Second {
		t.Errorf("Expected batch timeout to follow timeout, got %v", cfg.LedgerBatchTimeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  EnvMap
	}{
		{"timeout", EnvMap{"LEDGER_API_TIMEOUT": "soon"}},
		{"negative timeout", EnvMap{"LEDGER_API_TIMEOUT": "-1s"}},
		{"routes", EnvMap{"LEDGER_API_ROUTES": "v2"}},
		{"breaker flag", EnvMap{"BREAKER_ENABLED": "maybe"}},
		{"breaker failures", EnvMap{"BREAKER_FAILURES": "0"}},
		{"queue size", EnvMap{"ACTION_QUEUE_SIZE": "-3"}},
		{"zero queue", EnvMap{"ACTION_QUEUE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.env); err == nil {
				t.Errorf("Expected error for %v", tt.env)
			}
		})
	}

	if _, err := Load(nil); err == nil {
		t.Error("Expected error for nil source")
	}
}

func TestConfig_GatewayConfig(t *testing.T) {
	cfg, err := Load(EnvMap{"LEDGER_API_ROUTES": "legacy", "BREAKER_FAILURES": "3"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	gw, err := cfg.GatewayConfig()
	if err != nil {
		t.Fatalf("GatewayConfig failed: %v", err)
	}
	if gw.Routes != gateway.LegacyRoutes() {
		t.Errorf("Expected legacy routes, got %+v", gw.Routes)
	}
	if !gw.Breaker.Enabled || gw.Breaker.FailureThreshold != 3 {
		t.Errorf("Unexpected breaker %+v", gw.Breaker)
	}
	if _, err := gateway.NewClient(gw); err != nil {
		t.Errorf("Gateway config should build a client: %v", err)
	}

	cfg.BreakerEnabled = false
	gw, _ = cfg.GatewayConfig()
	if gw.Breaker.Enabled {
		t.Error("Expected breaker disabled")
	}
}

func TestConfig_QueueAndServerConfig(t *testing.T) {
	cfg, err := Load(EnvMap{"LEDGER_API_TIMEOUT": "20s", "ACTION_QUEUE_SIZE": "8"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	q := cfg.QueueConfig()
	if q.QueueSize != 8 || q.Workers != 1 || q.ActionTimeout != 40*time.Second {
		t.Errorf("Unexpected queue config %+v", q)
	}

	s := cfg.ServerConfig()
	if s.OperationTimeout != 41*time.Second || s.WriteTimeout <= s.OperationTimeout {
		t.Errorf("Unexpected server timeouts %+v", s)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ZKLEAR_TEST_DOTENV=from-file\nZKLEAR_TEST_PRESET=from-file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("ZKLEAR_TEST_PRESET", "from-env")
	t.Setenv("ZKLEAR_TEST_DOTENV", "")
	os.Unsetenv("ZKLEAR_TEST_DOTENV")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv failed: %v", err)
	}
	if got := os.Getenv("ZKLEAR_TEST_DOTENV"); got != "from-file" {
		t.Errorf("Expected value from file, got %q", got)
	}
	if got := os.Getenv("ZKLEAR_TEST_PRESET"); got != "from-env" {
		t.Errorf("Existing variables must win, got %q", got)
	}

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Missing file should be ignored, got %v", err)
	}
}
