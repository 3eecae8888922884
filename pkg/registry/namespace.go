package registry

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

const namespaceLogPrefix = "registry:namespace"

var (
	functionNameRegex     = regexp.MustCompile(`^\w+$`)
	namespaceIDRegex      = regexp.MustCompile(`^[\w-]+/[\w-]+$`)
	namespaceVersionRegex = regexp.MustCompile(`^[\w.-]+$`)
)

// Namespace is an isolated, versioned table of callable functions.
// Functions may only be added, never removed or replaced; the version
// string is fixed at creation.
type Namespace struct {
	id      string
	version string

	mu        sync.RWMutex
	functions map[string]Function
}

func newNamespace(id, version string) *Namespace {
	return &Namespace{
		id:        id,
		version:   version,
		functions: make(map[string]Function),
	}
}

// ID returns the namespace identifier ("" for the default namespace).
func (ns *Namespace) ID() string {
	return ns.id
}

// Version returns the namespace version assigned at creation ("" for the
// default namespace).
func (ns *Namespace) Version() string {
	return ns.version
}

// Register stores fn under name. It fails with CodeInvalidName if name
// does not match `^\w+$`, and with CodeDuplicateName if name is already
// registered in this namespace; the first registration stays active.
func (ns *Namespace) Register(name string, fn Function) error {
	if !functionNameRegex.MatchString(name) {
		return NewRegistryError(CodeInvalidName,
			fmt.Sprintf("%s - invalid function name: %q", namespaceLogPrefix, name))
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	if _, exists := ns.functions[name]; exists {
		return NewRegistryError(CodeDuplicateName,
			fmt.Sprintf("%s - function already registered: %q", namespaceLogPrefix, ns.qualify(name)))
	}
	ns.functions[name] = fn
	return nil
}

// Find looks up a registered function. Pure lookup, never fails.
func (ns *Namespace) Find(name string) (Function, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	fn, ok := ns.functions[name]
	return fn, ok
}

// Names returns the sorted registered function names. Diagnostics only.
func (ns *Namespace) Names() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	names := make([]string, 0, len(ns.functions))
	for name := range ns.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ns *Namespace) qualify(name string) string {
	if ns.id == "" {
		return name
	}
	return ns.id + "/" + name
}
