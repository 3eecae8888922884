// Package events defines call-lifecycle event types and publisher
// interfaces for bridge diagnostics.
package events

// Outcome categories carried by call events.
const (
	OutcomeOK                  = "ok"
	OutcomeCallError           = "call_error"
	OutcomeMalformed           = "malformed"
	OutcomeVersionIncompatible = "version_incompatible"
	OutcomeNotFound            = "not_found"
)

// CallEvent is emitted once per completed dispatch.
type CallEvent struct {
	Function         string `json:"function"`
	Namespace        string `json:"namespace,omitempty"`
	NamespaceVersion string `json:"namespaceVersion,omitempty"`
	Outcome          string `json:"outcome"`
	Status           int    `json:"status"`
	DurationMs       int64  `json:"durationMs"`
	Timestamp        string `json:"timestamp"`
}
