// Package typeinfo is the sandbox's view of its loaded types: per-type
// name, direct supertype, access flags, declared members, and for enum
// types the ordered constant accessor. It stands in for the host
// runtime's reflective surface, which is unsafe to consult directly
// because its answers are keyed by host identity.
package typeinfo

import (
	"fmt"
	"sync"

	"github.com/caffeineduck/kago/namespace"
)

// Flag is a type access flag.
type Flag uint32

const (
	FlagInterface Flag = 1 << iota
	FlagAbstract
	FlagFinal
	FlagEnum
)

// Member is a declared field or method.
type Member struct {
	Name       string
	Descriptor string
}

// Type describes one sandboxed type.
type Type struct {
	Name  namespace.SandboxName
	Super namespace.SandboxName
	Flags Flag

	Fields  []Member
	Methods []Member

	// Values is the ordered-constants accessor, the generated static
	// "values" function every enum type carries. It returns constant
	// names in declaration order, so a name's index is its ordinal.
	// Nil for non-enum types, and a structural defect for enum types.
	Values func() []string
}

// DuplicateTypeError reports a second registration of the same name.
type DuplicateTypeError struct {
	Name namespace.SandboxName
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q is already registered", e.Name)
}

// Registry holds the types loaded into one sandbox context. Safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[namespace.SandboxName]*Type
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[namespace.SandboxName]*Type)}
}

// Register adds a type. Registering the same name twice fails; class
// preparation guarantees at-most-once registration per context.
func (r *Registry) Register(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[t.Name]; ok {
		return &DuplicateTypeError{Name: t.Name}
	}
	r.types[t.Name] = t
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name namespace.SandboxName) (*Type, bool) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	return t, ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
