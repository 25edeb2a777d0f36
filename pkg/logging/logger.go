package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so console packages share one logging surface.
type Logger struct {
	*zap.Logger
}

// Config holds logging configuration
type Config struct {
	// Level is one of debug, info, warn, error
	Level string
	// Format is json or console
	Format string
	// OutputPaths lists log sinks
	OutputPaths []string
	// Development switches to the human-friendly encoder with caller and stack traces
	Development bool
}

// DefaultConfig returns the production configuration: info level, JSON to stdout.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DevelopmentConfig returns a configuration for local work against a dev ledger service.
func DevelopmentConfig() Config {
	return Config{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{"stdout"},
		Development: true,
	}
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config Config) (*Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	if config.Format == "" {
		config.Format = "json"
	}
	outputs := config.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(config.Level)),
		Development:       config.Development,
		DisableCaller:     !config.Development,
		DisableStacktrace: !config.Development,
		Encoding:          config.Format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// NewLoggerFromEnv creates a logger from LOG_LEVEL, LOG_FORMAT and LOG_DEV.
// lookup is usually os.LookupEnv; tests pass a map-backed function.
func NewLoggerFromEnv(lookup func(string) (string, bool)) (*Logger, error) {
	config := DefaultConfig()
	if dev, ok := lookup("LOG_DEV"); ok && dev == "true" {
		config = DevelopmentConfig()
	}
	if level, ok := lookup("LOG_LEVEL"); ok && level != "" {
		config.Level = level
	}
	if format, ok := lookup("LOG_FORMAT"); ok && format != "" {
		config.Format = format
	}
	return NewLogger(config)
}

// NewNoOpLogger creates a logger that discards all logs
func NewNoOpLogger() *Logger {
	return &Logger{zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With creates a child logger with additional fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.Logger.With(fields...)}
}

// Named creates a child logger with a name
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

var global = NewNoOpLogger()

// SetGlobal sets the process-wide logger. Components created afterwards log through it.
func SetGlobal(logger *Logger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	global = logger
}

// L returns the process-wide logger.
func L() *Logger {
	return global
}
