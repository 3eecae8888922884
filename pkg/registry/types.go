// Package registry implements the function registry and namespace manager
// for the bridge: versioned, add-only tables of callable functions.
package registry

import (
	"context"
	"encoding/json"
)

// Function is a callable registered with the bridge. It receives the raw
// JSON call argument and returns either an immediate value or a
// *deferred.Deferred; the dispatcher treats both uniformly.
type Function func(ctx context.Context, arg json.RawMessage) (any, error)

// Error codes for registration-time failures.
const (
	CodeInvalidName        = "INVALID_NAME"
	CodeDuplicateName      = "DUPLICATE_NAME"
	CodeInvalidNamespaceID = "INVALID_NAMESPACE_ID"
	CodeInvalidVersion     = "INVALID_VERSION"
	CodeDuplicateNamespace = "DUPLICATE_NAMESPACE"
)

// RegistryError is a structured registration error.
type RegistryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}

// ErrorCode extracts the registry error code from err, or "" if err is not
// a RegistryError.
func ErrorCode(err error) string {
	if regErr, ok := err.(*RegistryError); ok {
		return regErr.Code
	}
	return ""
}
