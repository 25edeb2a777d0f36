package actions

import "errors"

// QueueStats provides statistics about background action processing.
type QueueStats struct {
	// QueueDepth is the current number of actions waiting for a worker
	QueueDepth int

	// Pending is the number of accepted actions that have not finished yet
	Pending int64

	// Dropped is the total number of actions rejected due to backpressure
	Dropped int64

	// Submitted is the total number of actions accepted
	Submitted int64

	// Failed is the total number of actions that returned an error
	Failed int64
}

// Errors returned by queue operations.
var (
	// ErrQueueFull is returned when the queue is full and MaxWaitTime exceeded
	ErrQueueFull = errors.New("actions: queue full, action dropped")

	// ErrQueueClosed is returned when submitting to a closed queue
	ErrQueueClosed = errors.New("actions: queue is closed")

	// ErrFlushTimeout is returned when Flush() times out waiting for pending actions
	ErrFlushTimeout = errors.New("actions: flush timeout exceeded")

	// ErrActionPanicked is recorded when an action panics instead of returning
	ErrActionPanicked = errors.New("actions: action panicked")
)
