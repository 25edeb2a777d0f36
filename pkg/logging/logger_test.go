package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}

	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewLoggerFromEnv(t *testing.T) {
	logger, err := NewLoggerFromEnv(envLookup(map[string]string{
		"LOG_LEVEL":  "warn",
		"LOG_FORMAT": "console",
	}))
	if err != nil {
		t.Fatalf("NewLoggerFromEnv failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("Expected warn to be enabled")
	}
}

func TestNewLoggerFromEnv_Dev(t *testing.T) {
	logger, err := NewLoggerFromEnv(envLookup(map[string]string{"LOG_DEV": "true"}))
	if err != nil {
		t.Fatalf("NewLoggerFromEnv failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level in development mode")
	}
}

func TestSetGlobal_Nil(t *testing.T) {
	defer SetGlobal(NewNoOpLogger())

	SetGlobal(nil)
	if L() == nil {
		t.Fatal("Expected a no-op logger after SetGlobal(nil)")
	}
	L().Named("test").Info("discarded")
}
