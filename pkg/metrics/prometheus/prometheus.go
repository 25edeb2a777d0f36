package prometheus

import (
	"time"

	"zklear-console/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector for Prometheus.
type PrometheusCollector struct {
	namespace string

	// Gateway
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec

	// Circuit breaker
	circuitOpens *prometheus.CounterVec
	circuitState *prometheus.GaugeVec

	// Controller
	refreshes      *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	operations     *prometheus.CounterVec

	// Action queue
	queueDepth     *prometheus.GaugeVec
	droppedActions *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionLatency  *prometheus.HistogramVec
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Ledger service round trips per operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Ledger service round trip latency",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s, batch proofs are slow
			},
			[]string{"operation"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Total number of circuit breaker opens",
			},
			[]string{"name"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refreshes_total",
				Help:      "Refresh rounds by result",
			},
			[]string{"result"},
		),
		refreshLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Duration of a full snapshot/accounts/transactions refresh round",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Controller operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "action_queue_depth",
				Help:      "Pending background actions",
			},
			[]string{"queue"},
		),
		droppedActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_dropped_total",
				Help:      "Background actions rejected because the queue was full",
			},
			[]string{"queue"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Executed background actions",
			},
			[]string{"queue", "status"},
		),
		actionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Background action latency",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
			},
			[]string{"queue"},
		),
	}
}

func (pc *PrometheusCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		pc.requests,
		pc.requestLatency,
		pc.circuitOpens,
		pc.circuitState,
		pc.refreshes,
		pc.refreshLatency,
		pc.operations,
		pc.queueDepth,
		pc.droppedActions,
		pc.actions,
		pc.actionLatency,
	}
}

// Register registers all metrics with the given Prometheus registry.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	for _, collector := range pc.collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordRequest records a gateway round trip.
func (pc *PrometheusCollector) RecordRequest(operation string, outcome string, duration time.Duration) {
	pc.requests.WithLabelValues(operation, outcome).Inc()
	pc.requestLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCircuitState records the current circuit breaker state.
func (pc *PrometheusCollector) RecordCircuitState(name string, state metrics.CircuitState) {
	pc.circuitState.WithLabelValues(name).Set(float64(state))
	if state == metrics.CircuitOpen {
		pc.circuitOpens.WithLabelValues(name).Inc()
	}
}

// RecordRefresh records one refresh round.
func (pc *PrometheusCollector) RecordRefresh(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	pc.refreshes.WithLabelValues(result).Inc()
	pc.refreshLatency.Observe(duration.Seconds())
}

// RecordOperation records the outcome of a controller operation.
func (pc *PrometheusCollector) RecordOperation(operation string, outcome string) {
	pc.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordQueueDepth records the current action queue depth.
func (pc *PrometheusCollector) RecordQueueDepth(queue string, depth int) {
	pc.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordActionDropped records an action rejected by a full queue.
func (pc *PrometheusCollector) RecordActionDropped(queue string) {
	pc.droppedActions.WithLabelValues(queue).Inc()
}

// RecordAction records an executed background action.
func (pc *PrometheusCollector) RecordAction(queue string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	pc.actions.WithLabelValues(queue, status).Inc()
	pc.actionLatency.WithLabelValues(queue).Observe(duration.Seconds())
}
