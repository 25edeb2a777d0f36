// Package actions runs long console operations in the background so they do
// not hold up the request that triggered them.
package actions

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"zklear-console/pkg/logging"
	"zklear-console/pkg/metrics"

	"go.uber.org/zap"
)

// Func is a unit of background work.
type Func func(ctx context.Context) error

// Queue is a bounded queue drained by a fixed worker pool.
// Actions run in submission order when Workers is 1.
type Queue struct {
	name       string
	queue      chan action
	workers    int
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	config     QueueConfig
	metrics    metrics.MetricsCollector
	logger     *logging.Logger
	closeOnce  sync.Once

	// closeMu orders enqueueing against Close: once closed is set under the
	// write lock, no send can land after the workers have drained.
	closeMu sync.RWMutex
	closed  bool

	// Statistics (accessed atomically)
	dropped   int64
	submitted int64
	failed    int64
	pending   int64

	metricsTicker *time.Ticker
	metricsStop   chan struct{}
}

type action struct {
	name     string
	fn       Func
	enqueued time.Time
}

// QueueConfig configures the queue behavior.
type QueueConfig struct {
	// Name labels metrics and logs (default: "actions")
	Name string

	// QueueSize is the bounded queue size (default: 16)
	QueueSize int

	// Workers is the number of concurrent workers (default: 1)
	Workers int

	// MaxWaitTime is the max time to wait if the queue is full.
	// 0 means the default (10ms).
	MaxWaitTime time.Duration

	// ActionTimeout bounds each action. 0 means no bound beyond what the
	// action itself applies.
	ActionTimeout time.Duration
}

// NewQueue creates a queue with no metrics. It must be closed with Close().
func NewQueue(config QueueConfig) *Queue {
	return NewQueueWithMetrics(config, metrics.NoOpCollector{})
}

// NewQueueWithMetrics creates a queue reporting to the given collector.
func NewQueueWithMetrics(config QueueConfig, metricsCollector metrics.MetricsCollector) *Queue {
	if config.Name == "" {
		config.Name = "actions"
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 16
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxWaitTime <= 0 {
		config.MaxWaitTime = 10 * time.Millisecond
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NoOpCollector{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		name:          config.Name,
		queue:         make(chan action, config.QueueSize),
		workers:       config.Workers,
		ctx:           ctx,
		cancelFunc:    cancel,
		config:        config,
		metrics:       metricsCollector,
		logger:        logging.L().Named("actions").With(zap.String("queue", config.Name)),
		metricsTicker: time.NewTicker(5 * time.Second),
		metricsStop:   make(chan struct{}),
	}

	for i := 0; i < config.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	go q.reportMetrics()

	return q
}

// Submit enqueues fn without waiting for it to run.
// If the queue is full, it waits up to MaxWaitTime before dropping the action.
// The caller's ctx only bounds enqueueing; fn gets a context of its own, so
// it keeps running after the submitting request has finished.
func (q *Queue) Submit(ctx context.Context, name string, fn Func) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	a := action{name: name, fn: fn, enqueued: time.Now()}

	timer := time.NewTimer(q.config.MaxWaitTime)
	defer timer.Stop()

	atomic.AddInt64(&q.pending, 1)
	select {
	case q.queue <- a:
		atomic.AddInt64(&q.submitted, 1)
		q.metrics.RecordQueueDepth(q.name, len(q.queue))
		return nil
	case <-timer.C:
		atomic.AddInt64(&q.pending, -1)
		atomic.AddInt64(&q.dropped, 1)
		q.metrics.RecordActionDropped(q.name)
		q.logger.Warn("action dropped, queue full", zap.String("action", name))
		return ErrQueueFull
	case <-ctx.Done():
		atomic.AddInt64(&q.pending, -1)
		return ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case a := <-q.queue:
			q.run(a)
		case <-q.ctx.Done():
			// Drain what was accepted before Close.
			for {
				select {
				case a := <-q.queue:
					q.run(a)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) run(a action) {
	defer atomic.AddInt64(&q.pending, -1)

	ctx := context.Background()
	if q.config.ActionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.config.ActionTimeout)
		defer cancel()
	}

	start := time.Now()
	err := q.safeCall(ctx, a)
	duration := time.Since(start)

	q.metrics.RecordAction(q.name, err == nil, duration)
	if err != nil {
		atomic.AddInt64(&q.failed, 1)
		q.logger.Warn("action failed",
			zap.String("action", a.name),
			zap.Duration("waited", start.Sub(a.enqueued)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	q.logger.Debug("action completed",
		zap.String("action", a.name),
		zap.Duration("duration", duration),
	)
}

// safeCall keeps a panicking action from taking a worker down.
func (q *Queue) safeCall(ctx context.Context, a action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("action panicked", zap.String("action", a.name), zap.Any("panic", r))
			err = ErrActionPanicked
		}
	}()
	return a.fn(ctx)
}

// Flush waits until every accepted action has finished or the timeout passes.
func (q *Queue) Flush(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if atomic.LoadInt64(&q.pending) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrFlushTimeout
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops accepting actions and waits for workers to finish the ones
// already queued. A Submit racing Close either fails with ErrQueueClosed or
// has its action run. It is safe to call more than once.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.closeMu.Lock()
		q.closed = true
		q.closeMu.Unlock()

		close(q.metricsStop)
		q.metricsTicker.Stop()
		q.cancelFunc()
		q.wg.Wait()
	})
	return nil
}

func (q *Queue) reportMetrics() {
	for {
		select {
		case <-q.metricsTicker.C:
			q.metrics.RecordQueueDepth(q.name, len(q.queue))
		case <-q.metricsStop:
			return
		}
	}
}

// Stats returns current statistics about the queue.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		QueueDepth: len(q.queue),
		Pending:    atomic.LoadInt64(&q.pending),
		Dropped:    atomic.LoadInt64(&q.dropped),
		Submitted:  atomic.LoadInt64(&q.submitted),
		Failed:     atomic.LoadInt64(&q.failed),
	}
}
