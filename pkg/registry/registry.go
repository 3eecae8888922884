package registry

import (
	"fmt"
	"sort"
	"sync"
)

const logPrefix = "registry:registry"

// Registry owns the default namespace and the table of named namespaces.
// It is an explicitly constructed object: independent bridge instances
// (for example in tests) use independent registries and never interfere.
type Registry struct {
	defaultNS *Namespace

	mu         sync.RWMutex
	namespaces map[string]*Namespace
}

// NewRegistry creates an empty registry with a default namespace.
func NewRegistry() *Registry {
	return &Registry{
		defaultNS:  newNamespace("", ""),
		namespaces: make(map[string]*Namespace),
	}
}

// Register registers fn under name in the default namespace.
func (r *Registry) Register(name string, fn Function) error {
	return r.defaultNS.Register(name, fn)
}

// Find looks up name in the default namespace.
func (r *Registry) Find(name string) (Function, bool) {
	return r.defaultNS.Find(name)
}

// Names returns the sorted function names of the default namespace.
func (r *Registry) Names() []string {
	return r.defaultNS.Names()
}

// Default returns the default namespace.
func (r *Registry) Default() *Namespace {
	return r.defaultNS
}

// CreateNamespace allocates a new empty namespace under id with the given
// version. It fails with CodeInvalidNamespaceID if id does not match the
// author/package form, CodeInvalidVersion if version is not a non-empty
// token of word, dot, or dash characters, and CodeDuplicateNamespace if id
// is already taken. Silently replacing an existing namespace would orphan
// its registered functions, so re-registration is rejected loudly.
func (r *Registry) CreateNamespace(id, version string) (*Namespace, error) {
	if !namespaceIDRegex.MatchString(id) {
		return nil, NewRegistryError(CodeInvalidNamespaceID,
			fmt.Sprintf("%s - invalid namespace id: %q", logPrefix, id))
	}
	if !namespaceVersionRegex.MatchString(version) {
		return nil, NewRegistryError(CodeInvalidVersion,
			fmt.Sprintf("%s - invalid namespace version: %q", logPrefix, version))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.namespaces[id]; exists {
		return nil, NewRegistryError(CodeDuplicateNamespace,
			fmt.Sprintf("%s - namespace already registered: %q", logPrefix, id))
	}
	ns := newNamespace(id, version)
	r.namespaces[id] = ns
	return ns, nil
}

// NamespaceIDs returns the sorted ids of all named namespaces.
// Diagnostics only.
func (r *Registry) NamespaceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.namespaces))
	for id := range r.namespaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Namespace looks up a named namespace. Pure lookup, never fails.
func (r *Registry) Namespace(id string) (*Namespace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.namespaces[id]
	return ns, ok
}
