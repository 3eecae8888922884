// Package client implements the calling side of the bridge: encoding a
// qualified call into a request, issuing it through the intercepted
// http.Client, and classifying the completed response into an Outcome.
package client

import (
	"encoding/json"

	"github.com/morezero/function-bridge/pkg/structerr"
)

// Interop failure kinds: failures of the bridge mechanism itself, as
// opposed to failures reported by the called function.
const (
	FailureNotInstalled        = "NOT_INSTALLED"
	FailureFunctionNotFound    = "FUNCTION_NOT_FOUND"
	FailureVersionIncompatible = "VERSION_INCOMPATIBLE"
	FailureCannotDecodeValue   = "CANNOT_DECODE_VALUE"
	FailureRuntimeError        = "RUNTIME_ERROR"
)

// InteropFailure describes a failure of the bridge mechanism. RawBody
// preserves the undecoded response for debuggability.
type InteropFailure struct {
	Kind    string
	Details string
	RawBody []byte
}

// Outcome is the final state of a completed call. Exactly one of the
// three tags is populated: a success value, a structured call failure
// reported by the invoked function, or an interop failure.
type Outcome struct {
	value     json.RawMessage
	callError *structerr.StructuredError
	failure   *InteropFailure
}

// IsSuccess reports whether the call settled with a value.
func (o *Outcome) IsSuccess() bool { return o.failure == nil && o.callError == nil }

// Value returns the raw JSON success value ("null" for functions that
// return nothing), or nil when the call did not succeed.
func (o *Outcome) Value() json.RawMessage { return o.value }

// CallError returns the structured failure reported by the invoked
// function, or nil.
func (o *Outcome) CallError() *structerr.StructuredError { return o.callError }

// Failure returns the interop failure, or nil.
func (o *Outcome) Failure() *InteropFailure { return o.failure }

func successOutcome(raw json.RawMessage) *Outcome {
	return &Outcome{value: raw}
}

func callErrorOutcome(se *structerr.StructuredError) *Outcome {
	return &Outcome{callError: se}
}

func failureOutcome(kind, details string, rawBody []byte) *Outcome {
	return &Outcome{failure: &InteropFailure{Kind: kind, Details: details, RawBody: rawBody}}
}
