package gateway

import (
	"errors"
	"fmt"

	"zklear-console/pkg/resilience"
)

// Transport failure causes. A TransportError always wraps exactly one of these.
var (
	// ErrUnreachable is returned when the ledger service could not be contacted
	ErrUnreachable = errors.New("gateway: ledger service unreachable")

	// ErrTimeout is returned when a call exceeded its deadline
	ErrTimeout = errors.New("gateway: request timed out")

	// ErrCanceled is returned when the caller abandoned the call
	ErrCanceled = errors.New("gateway: request canceled")

	// ErrUnexpectedStatus is returned for any non-2xx response
	ErrUnexpectedStatus = errors.New("gateway: unexpected http status")

	// ErrDecode is returned when a response body is not the expected JSON
	ErrDecode = errors.New("gateway: malformed response body")

	// ErrEncode is returned when a request body cannot be encoded
	ErrEncode = errors.New("gateway: cannot encode request body")

	// ErrCircuitOpen is returned when the breaker rejected the call without sending it
	ErrCircuitOpen = resilience.ErrCircuitOpen
)

// TransportError reports that a call did not yield a decoded contract value.
// It is distinct from an application-level success:false payload, which is
// returned as a normal response.
type TransportError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	RequestID  string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsTimeout checks if the given error indicates a timed out call.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsUnreachable checks if the given error indicates the service could not be contacted.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrCircuitOpen)
}

// StatusCode returns the HTTP status carried by a TransportError, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// ClassifyError returns a short label for the error, used for metrics and logs.
func ClassifyError(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	default:
		return "other"
	}
}

// statusError carries a non-2xx status so the breaker can tell a reachable
// service that rejected a request from a failing one.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%v: %d", ErrUnexpectedStatus, e.code)
	}
	return fmt.Sprintf("%v: %d: %s", ErrUnexpectedStatus, e.code, e.body)
}

func (e *statusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// reachable reports whether err still proves the service answered.
// 4xx responses and caller cancellations do not count against the breaker.
func reachable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 400 && se.code < 500
	}
	return false
}
