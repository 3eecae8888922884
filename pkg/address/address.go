// Package address implements the bridge's request-identifier grammar: the
// private URL scheme that encodes a qualified function name and the
// protocol version, and the parser that reconstructs them.
package address

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const logPrefix = "address:address"

// Scheme is the private URL scheme of the bridge. It is a fixed literal
// chosen not to collide with any real network scheme.
const Scheme = "funcbridge"

// ProtocolVersion is the build-time protocol version shared by both call
// sides. Compared for exact string equality, never semver compatibility.
const ProtocolVersion = "1.1.0"

// Query parameter names of the address grammar.
const (
	versionParam          = "v"
	namespaceVersionParam = "nsv"
)

var (
	functionNameRegex = regexp.MustCompile(`^\w+$`)
	namespaceIDRegex  = regexp.MustCompile(`^[\w-]+/[\w-]+$`)
)

// Name is a validated qualified function name: a bare function name plus
// an optional (namespace id, namespace version) qualifier. Construct via
// NewName or NewNamespacedName; a zero Name is not valid.
type Name struct {
	namespaceID      string
	namespaceVersion string
	function         string
}

// NewName creates a Name in the default namespace.
func NewName(function string) (Name, error) {
	if !functionNameRegex.MatchString(function) {
		return Name{}, fmt.Errorf("%s - invalid function name: %q", logPrefix, function)
	}
	return Name{function: function}, nil
}

// NewNamespacedName creates a Name qualified by a namespace id (in
// author/package form) and its version.
func NewNamespacedName(namespaceID, namespaceVersion, function string) (Name, error) {
	if !namespaceIDRegex.MatchString(namespaceID) {
		return Name{}, fmt.Errorf("%s - invalid namespace id: %q", logPrefix, namespaceID)
	}
	if namespaceVersion == "" {
		return Name{}, fmt.Errorf("%s - missing namespace version for %q", logPrefix, namespaceID)
	}
	if !functionNameRegex.MatchString(function) {
		return Name{}, fmt.Errorf("%s - invalid function name: %q", logPrefix, function)
	}
	return Name{
		namespaceID:      namespaceID,
		namespaceVersion: namespaceVersion,
		function:         function,
	}, nil
}

// Function returns the bare function name.
func (n Name) Function() string { return n.function }

// NamespaceID returns the namespace identifier, "" for the default
// namespace.
func (n Name) NamespaceID() string { return n.namespaceID }

// NamespaceVersion returns the namespace version, "" for the default
// namespace.
func (n Name) NamespaceVersion() string { return n.namespaceVersion }

// IsNamespaced reports whether the name carries a namespace qualifier.
func (n Name) IsNamespaced() bool { return n.namespaceID != "" }

// String returns the display form of the qualified name.
func (n Name) String() string {
	if !n.IsNamespaced() {
		return n.function
	}
	return n.namespaceID + "/" + n.function + "@" + n.namespaceVersion
}

// CallURL encodes a Name into a request identifier. It is pure and total:
// Names are validated at construction, so encoding never fails.
func CallURL(n Name) string {
	if !n.IsNamespaced() {
		return Scheme + ":///" + n.function + "?" + versionParam + "=" + ProtocolVersion
	}
	return Scheme + "://" + n.namespaceID + "/" + n.function +
		"?" + versionParam + "=" + ProtocolVersion +
		"&" + namespaceVersionParam + "=" + url.QueryEscape(n.namespaceVersion)
}

// Call is a parsed request identifier: the qualified function name plus
// the protocol version the caller encoded.
type Call struct {
	Name            Name
	ProtocolVersion string
}

// IsBridgeURL reports whether u is addressed to the bridge. Non-bridge
// URLs must be passed through to the real transport untouched.
func IsBridgeURL(u *url.URL) bool {
	return u != nil && u.Scheme == Scheme
}

// Parse reconstructs a Call from a request identifier. Every failure is a
// malformed-identifier error, distinct from "valid identifier, unknown
// function" which is a resolution concern.
func Parse(u *url.URL) (*Call, error) {
	if u == nil || u.Scheme != Scheme {
		return nil, fmt.Errorf("%s - not a bridge URL: %v", logPrefix, u)
	}

	query := u.Query()
	protocolVersion := query.Get(versionParam)
	if protocolVersion == "" {
		return nil, fmt.Errorf("%s - missing protocol version in %q", logPrefix, u.String())
	}
	namespaceVersion := query.Get(namespaceVersionParam)

	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")

	if u.Host == "" {
		// Default namespace: funcbridge:///fn?v=V
		if len(segments) != 1 || !functionNameRegex.MatchString(segments[0]) {
			return nil, fmt.Errorf("%s - malformed function path in %q", logPrefix, u.String())
		}
		if namespaceVersion != "" {
			return nil, fmt.Errorf("%s - namespace version without namespace in %q", logPrefix, u.String())
		}
		name, err := NewName(segments[0])
		if err != nil {
			return nil, err
		}
		return &Call{Name: name, ProtocolVersion: protocolVersion}, nil
	}

	// Named namespace: funcbridge://author/package/fn?v=V&nsv=NSV
	if len(segments) != 2 {
		return nil, fmt.Errorf("%s - malformed namespace path in %q", logPrefix, u.String())
	}
	namespaceID := u.Host + "/" + segments[0]
	if namespaceVersion == "" {
		return nil, fmt.Errorf("%s - namespace %q given without nsv in %q", logPrefix, namespaceID, u.String())
	}
	name, err := NewNamespacedName(namespaceID, namespaceVersion, segments[1])
	if err != nil {
		return nil, err
	}
	return &Call{Name: name, ProtocolVersion: protocolVersion}, nil
}
