// api/schemas/errors.go
package schemas

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that cross component boundaries. Using a
// custom type ensures that only predefined constants can be used where an
// ErrorKind is expected, preventing a class of bugs.
type ErrorKind string

const (
	// KindInvalidConfiguration covers malformed mapper/browser/session
	// configuration. Fatal before a session starts.
	KindInvalidConfiguration ErrorKind = "INVALID_CONFIGURATION"

	// KindInvalidTask covers malformed task definitions (missing limits,
	// broken success criteria). Rejected before a session starts.
	KindInvalidTask ErrorKind = "INVALID_TASK"

	// KindOutOfBounds indicates an action targeted a coordinate outside the
	// viewport. Recoverable: the step is recorded and counted, the session
	// continues.
	KindOutOfBounds ErrorKind = "OUT_OF_BOUNDS"

	// KindPageUnavailable indicates the page is navigating or has crashed.
	// The orchestrator retries capture once, then escalates.
	KindPageUnavailable ErrorKind = "PAGE_UNAVAILABLE"

	// KindAgentDecision indicates the agent adapter failed to produce a
	// usable action (e.g. malformed model output). Never silently retried.
	KindAgentDecision ErrorKind = "AGENT_DECISION_ERROR"

	// KindValidatorAmbiguous indicates the validator could not reach a
	// verdict. One grace re-check, then the session defaults to FAILED.
	KindValidatorAmbiguous ErrorKind = "VALIDATOR_AMBIGUOUS"

	// KindCancelled indicates an external cancellation signal was honored
	// at the top of a loop iteration.
	KindCancelled ErrorKind = "CANCELLED"
)

// EvalError attaches an ErrorKind to an underlying cause so the orchestrator
// can route recoverable kinds differently from fatal ones.
type EvalError struct {
	Kind ErrorKind
	Err  error
}

func (e *EvalError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// NewError wraps err with the given kind.
func NewError(kind ErrorKind, err error) *EvalError {
	return &EvalError{Kind: kind, Err: err}
}

// Errorf builds an EvalError from a format string.
func Errorf(kind ErrorKind, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind from an error chain. Returns the empty
// string when no EvalError is present.
func KindOf(err error) ErrorKind {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
