package resilience

import (
	"time"
)

// BreakerConfig configures the circuit breaker that guards ledger service calls.
// The breaker never retries; it only fails fast while the service looks unreachable.
type BreakerConfig struct {
	// Enabled turns the breaker on. A disabled breaker passes every call through.
	Enabled bool

	// MaxRequests is the number of trial calls allowed while half-open. Default: 1
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which counts are
	// cleared. 0 never clears.
	Interval time.Duration

	// Cooldown is how long the breaker stays open before going half-open.
	Cooldown time.Duration

	// ReadyToTrip is consulted after every failure. If nil, the breaker trips
	// after FailureThreshold consecutive failures.
	ReadyToTrip func(counts Counts) bool

	// FailureThreshold is the consecutive failure count used when ReadyToTrip is nil.
	FailureThreshold uint32

	// IsSuccessful decides whether an error counts against the breaker.
	// If nil, only a nil error is a success.
	IsSuccessful func(err error) bool
}

// Counts holds the numbers of requests and their successes/failures.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// DefaultBreakerConfig trips after 5 consecutive failures and lets trial calls through again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         0,
		Cooldown:         30 * time.Second,
		FailureThreshold: 5,
	}
}

// WithFailureThreshold returns a copy of the config tripping after n consecutive failures.
func (c BreakerConfig) WithFailureThreshold(n uint32) BreakerConfig {
	c.FailureThreshold = n
	return c
}

// WithCooldown returns a copy of the config with the given open-state duration.
func (c BreakerConfig) WithCooldown(d time.Duration) BreakerConfig {
	c.Cooldown = d
	return c
}

// Disabled returns a copy of the config with the breaker turned off.
func (c BreakerConfig) Disabled() BreakerConfig {
	c.Enabled = false
	return c
}

func (c BreakerConfig) tripFunc() func(Counts) bool {
	if c.ReadyToTrip != nil {
		return c.ReadyToTrip
	}
	threshold := c.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return func(counts Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}
}
