// Package dispatcher resolves parsed bridge calls against a function
// registry, invokes the target function, and shapes the outcome into a
// response envelope.
package dispatcher

// Status code bands of the bridge protocol. The exact values are an
// implementation choice; what matters is that the four bands stay stable
// within one build and the caller-side decoder classifies on exactly them.
const (
	// StatusOK signals a settled call with a JSON-encoded return value.
	StatusOK = 200
	// StatusBadRequest covers malformed identifiers and protocol or
	// namespace version mismatches.
	StatusBadRequest = 400
	// StatusNotFound covers absent functions and absent namespaces.
	StatusNotFound = 404
	// StatusCallError signals that the invoked function itself failed;
	// the body is a JSON-encoded structured error.
	StatusCallError = 500
)

// Content types set on responses, so callers can tell an encoded outcome
// from diagnostic text.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// Response is the completed form of a bridge call on the host side.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

// Resolution failure kinds.
const (
	ResolutionOK                       = "OK"
	ResolutionMalformed                = "MALFORMED"
	ResolutionVersionIncompatible      = "VERSION_INCOMPATIBLE"
	ResolutionNamespaceNotFound        = "NAMESPACE_NOT_FOUND"
	ResolutionNamespaceVersionMismatch = "NAMESPACE_VERSION_MISMATCH"
	ResolutionFunctionNotFound         = "FUNCTION_NOT_FOUND"
)

// Resolution is the result of resolving a parsed call against the
// registry. Detail carries enough context (expected vs actual versions,
// known names) for diagnostics.
type Resolution struct {
	Kind   string
	Detail string
}

// Status maps a failed resolution to its status band.
func (r *Resolution) Status() int {
	switch r.Kind {
	case ResolutionOK:
		return StatusOK
	case ResolutionNamespaceNotFound, ResolutionFunctionNotFound:
		return StatusNotFound
	default:
		return StatusBadRequest
	}
}
