package console

import (
	"errors"
	"fmt"
)

// Error kinds, used as the error_kind log field and as operation metric outcomes.
const (
	KindNone        = "success"
	KindValidation  = "validation"
	KindTransport   = "transport"
	KindApplication = "application"
)

// ValidationError reports malformed user input. It never reaches the gateway.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ApplicationError reports a well-formed success:false response. The service
// was reachable but rejected this request.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected by ledger service", e.Op)
	}
	return e.Message
}

// IsValidation checks if the given error is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsApplication checks if the given error is (or wraps) an ApplicationError.
func IsApplication(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}

// ErrorKind maps an operation error onto the three-way taxonomy.
// Anything that is neither validation nor application counts as transport.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return KindNone
	case IsValidation(err):
		return KindValidation
	case IsApplication(err):
		return KindApplication
	default:
		return KindTransport
	}
}
