package memory

import (
	"sync"
	"time"

	"zklear-console/pkg/metrics"
)

// MemoryCollector implements MetricsCollector for in-memory testing.
type MemoryCollector struct {
	mu sync.RWMutex

	requests      map[string]map[string]int64
	operations    map[string]map[string]int64
	circuitStates map[string]metrics.CircuitState
	circuitOpens  map[string]int64

	refreshes        int64
	refreshFailures  int64
	refreshLatencies []time.Duration

	queueDepth     map[string]int
	actions        map[string]int64
	actionErrors   map[string]int64
	droppedActions map[string]int64
}

// NewMemoryCollector creates a new in-memory metrics collector.
func NewMemoryCollector() *MemoryCollector {
	mc := &MemoryCollector{}
	mc.reset()
	return mc
}

func (mc *MemoryCollector) reset() {
	mc.requests = make(map[string]map[string]int64)
	mc.operations = make(map[string]map[string]int64)
	mc.circuitStates = make(map[string]metrics.CircuitState)
	mc.circuitOpens = make(map[string]int64)
	mc.refreshes = 0
	mc.refreshFailures = 0
	mc.refreshLatencies = nil
	mc.queueDepth = make(map[string]int)
	mc.actions = make(map[string]int64)
	mc.actionErrors = make(map[string]int64)
	mc.droppedActions = make(map[string]int64)
}

func inc(m map[string]map[string]int64, key, label string) {
	inner, ok := m[key]
	if !ok {
		inner = make(map[string]int64)
		m[key] = inner
	}
	inner[label]++
}

// RecordRequest records a gateway round trip.
func (mc *MemoryCollector) RecordRequest(operation string, outcome string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	inc(mc.requests, operation, outcome)
}

// RecordCircuitState records the current circuit breaker state.
func (mc *MemoryCollector) RecordCircuitState(name string, state metrics.CircuitState) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	old := mc.circuitStates[name]
	mc.circuitStates[name] = state
	if old != metrics.CircuitOpen && state == metrics.CircuitOpen {
		mc.circuitOpens[name]++
	}
}

// RecordRefresh records one refresh round.
func (mc *MemoryCollector) RecordRefresh(success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.refreshes++
	if !success {
		mc.refreshFailures++
	}
	mc.refreshLatencies = append(mc.refreshLatencies, duration)
}

// RecordOperation records the outcome of a controller operation.
func (mc *MemoryCollector) RecordOperation(operation string, outcome string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	inc(mc.operations, operation, outcome)
}

// RecordQueueDepth records the current action queue depth.
func (mc *MemoryCollector) RecordQueueDepth(queue string, depth int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.queueDepth[queue] = depth
}

// RecordActionDropped records an action rejected by a full queue.
func (mc *MemoryCollector) RecordActionDropped(queue string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.droppedActions[queue]++
}

// RecordAction records an executed background action.
func (mc *MemoryCollector) RecordAction(queue string, success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.actions[queue]++
	if !success {
		mc.actionErrors[queue]++
	}
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Requests        map[string]map[string]int64
	Operations      map[string]map[string]int64
	CircuitStates   map[string]metrics.CircuitState
	CircuitOpens    map[string]int64
	Refreshes       int64
	RefreshFailures int64
	QueueDepth      map[string]int
	Actions         map[string]int64
	ActionErrors    map[string]int64
	DroppedActions  map[string]int64
}

func copyNested(src map[string]map[string]int64) map[string]map[string]int64 {
	dst := make(map[string]map[string]int64, len(src))
	for k, inner := range src {
		c := make(map[string]int64, len(inner))
		for l, v := range inner {
			c[l] = v
		}
		dst[k] = c
	}
	return dst
}

func copyFlat[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Snapshot returns a copy of the current metrics state.
func (mc *MemoryCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return Snapshot{
		Requests:        copyNested(mc.requests),
		Operations:      copyNested(mc.operations),
		CircuitStates:   copyFlat(mc.circuitStates),
		CircuitOpens:    copyFlat(mc.circuitOpens),
		Refreshes:       mc.refreshes,
		RefreshFailures: mc.refreshFailures,
		QueueDepth:      copyFlat(mc.queueDepth),
		Actions:         copyFlat(mc.actions),
		ActionErrors:    copyFlat(mc.actionErrors),
		DroppedActions:  copyFlat(mc.droppedActions),
	}
}

// RequestCount returns how many round trips of operation ended with outcome.
func (mc *MemoryCollector) RequestCount(operation, outcome string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.requests[operation][outcome]
}

// OperationCount returns how many controller operations ended with outcome.
func (mc *MemoryCollector) OperationCount(operation, outcome string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.operations[operation][outcome]
}

// Reset clears all collected metrics.
func (mc *MemoryCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.reset()
}
