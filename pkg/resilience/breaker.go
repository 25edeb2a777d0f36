package resilience

import (
	"errors"

	"zklear-console/pkg/logging"
	"zklear-console/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker rejects a call without running it.
var ErrCircuitOpen = errors.New("resilience: circuit breaker open")

// IsCircuitOpen checks if the given error indicates the circuit breaker rejected the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// Breaker wraps gobreaker for calls against a single remote dependency.
type Breaker struct {
	name    string
	enabled bool
	cb      *gobreaker.CircuitBreaker
	metrics metrics.MetricsCollector
	logger  *logging.Logger
}

// NewBreaker creates a breaker with no metrics.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	return NewBreakerWithMetrics(name, config, metrics.NoOpCollector{})
}

// NewBreakerWithMetrics creates a breaker reporting state changes to the given collector.
func NewBreakerWithMetrics(name string, config BreakerConfig, metricsCollector metrics.MetricsCollector) *Breaker {
	if metricsCollector == nil {
		metricsCollector = metrics.NoOpCollector{}
	}
	logger := logging.L().Named("resilience").Named(name)

	b := &Breaker{
		name:    name,
		enabled: config.Enabled,
		metrics: metricsCollector,
		logger:  logger,
	}
	if !config.Enabled {
		logger.Info("circuit breaker disabled", zap.String("name", name))
		return b
	}

	maxRequests := config.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	trip := config.tripFunc()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    config.Interval,
		Timeout:     config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return trip(Counts{
				Requests:             counts.Requests,
				TotalSuccesses:       counts.TotalSuccesses,
				TotalFailures:        counts.TotalFailures,
				ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
				ConsecutiveFailures:  counts.ConsecutiveFailures,
			})
		},
		IsSuccessful: config.IsSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			b.metrics.RecordCircuitState(name, convertState(to))
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)

	logger.Info("circuit breaker initialized",
		zap.Uint32("max_requests", maxRequests),
		zap.Duration("cooldown", config.Cooldown),
		zap.Uint32("failure_threshold", config.FailureThreshold),
	)

	return b
}

func convertState(s gobreaker.State) metrics.CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// Execute runs fn through the breaker. fn runs at most once.
// While open, the call is rejected with ErrCircuitOpen and fn is not invoked.
// While half-open, calls beyond the trial quota run unguarded: their outcome
// is not counted, and the trial calls alone decide whether the breaker closes.
func (b *Breaker) Execute(fn func() error) error {
	if !b.enabled {
		return fn()
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Debug("half-open trial quota used, running call unguarded", zap.String("name", b.name))
		return fn()
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		b.logger.Warn("circuit breaker open - request rejected", zap.String("name", b.name))
		return ErrCircuitOpen
	}
	return err
}

// State returns the current breaker state. A disabled breaker is always closed.
func (b *Breaker) State() metrics.CircuitState {
	if !b.enabled {
		return metrics.CircuitClosed
	}
	return convertState(b.cb.State())
}
