package metrics

import (
	"time"
)

// MetricsCollector defines the interface for collecting console metrics.
// Implementations can export metrics to various backends (Prometheus, in-memory for tests).
type MetricsCollector interface {
	// Gateway round trips. outcome is "ok" or an error class such as "timeout".
	RecordRequest(operation string, outcome string, duration time.Duration)

	// Circuit breaker guarding the gateway
	RecordCircuitState(name string, state CircuitState)

	// Controller. outcome is "success", "validation", "transport" or "application".
	RecordRefresh(success bool, duration time.Duration)
	RecordOperation(operation string, outcome string)

	// Background action queue
	RecordQueueDepth(queue string, depth int)
	RecordActionDropped(queue string)
	RecordAction(queue string, success bool, duration time.Duration)
}

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed means calls reach the ledger service.
	CircuitClosed CircuitState = iota
	// CircuitOpen means calls are rejected without touching the network.
	CircuitOpen
	// CircuitHalfOpen means a limited number of trial calls are let through.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is the default collector when metrics are not needed.
type NoOpCollector struct{}

func (NoOpCollector) RecordRequest(operation string, outcome string, duration time.Duration) {}

func (NoOpCollector) RecordCircuitState(name string, state CircuitState) {}

func (NoOpCollector) RecordRefresh(success bool, duration time.Duration) {}

func (NoOpCollector) RecordOperation(operation string, outcome string) {}

func (NoOpCollector) RecordQueueDepth(queue string, depth int) {}

func (NoOpCollector) RecordActionDropped(queue string) {}

func (NoOpCollector) RecordAction(queue string, success bool, duration time.Duration) {}
