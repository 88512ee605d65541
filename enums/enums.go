// Package enums resolves sandboxed enum types to their ordered constant
// universe and name-to-constant directory.
//
// The host runtime memoizes the same lookups internally, but its caches
// are keyed by host object identity and do not survive sandbox reloads,
// so they cannot be reused. This cache is owned by the sandbox context,
// computes each type's universe at most once under concurrent first
// access, and keys everything by type name.
package enums

import (
	"fmt"
	"sync"

	"github.com/caffeineduck/kago/namespace"
	"github.com/caffeineduck/kago/typeinfo"
)

// Constant is one enum constant. Ordinal is the declaration-order index
// within the type, the sole stable key for cross-representation identity.
type Constant struct {
	Type    namespace.SandboxName
	Name    string
	Ordinal int
}

// NotEnumError reports a universe or directory request for a type that
// is not a sandbox enum. This is a programming error in the caller, not
// a recoverable runtime condition.
type NotEnumError struct {
	Type namespace.SandboxName
}

func (e *NotEnumError) Error() string {
	return fmt.Sprintf("type %q is not a sandbox enum", e.Type)
}

// MissingAccessorError reports an enum type without the generated
// ordered-constants accessor. Defaulting to an empty universe instead
// would silently corrupt every downstream ordinal lookup.
type MissingAccessorError struct {
	Type namespace.SandboxName
}

func (e *MissingAccessorError) Error() string {
	return fmt.Sprintf("enum type %q has no constants accessor", e.Type)
}

// Cache memoizes enum resolution per sandbox context. Safe for
// concurrent use; each type's universe is computed at most once.
type Cache struct {
	resolver *namespace.Resolver
	types    *typeinfo.Registry

	mu          sync.RWMutex
	universes   map[namespace.SandboxName][]Constant
	directories map[namespace.SandboxName]map[string]Constant
}

// NewCache returns a Cache over the given type registry.
func NewCache(resolver *namespace.Resolver, types *typeinfo.Registry) *Cache {
	return &Cache{
		resolver:    resolver,
		types:       types,
		universes:   make(map[namespace.SandboxName][]Constant),
		directories: make(map[namespace.SandboxName]map[string]Constant),
	}
}

// IsEnum reports whether name is a sandbox enum: the enum flag is set
// and the direct supertype is exactly the sandbox enum root. The super
// check rejects types that merely look enum-like.
func (c *Cache) IsEnum(name namespace.SandboxName) bool {
	t, ok := c.types.Lookup(name)
	if !ok {
		return false
	}
	return t.Flags&typeinfo.FlagEnum != 0 && t.Super == c.resolver.RootEnum()
}

// Universe returns the ordered constants of name. The slice's index for
// a constant equals that constant's ordinal. Callers receive a fresh
// copy each time so the shared cache cannot be corrupted by mutation.
func (c *Cache) Universe(name namespace.SandboxName) ([]Constant, error) {
	c.mu.RLock()
	cached, ok := c.universes[name]
	c.mu.RUnlock()
	if ok {
		return cloneUniverse(cached), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.universes[name]; ok {
		return cloneUniverse(cached), nil
	}

	universe, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	c.universes[name] = universe
	return cloneUniverse(universe), nil
}

// resolve computes a universe from the type's ordered-constants
// accessor. Caller holds the write lock.
func (c *Cache) resolve(name namespace.SandboxName) ([]Constant, error) {
	if !c.IsEnum(name) {
		return nil, &NotEnumError{Type: name}
	}
	t, _ := c.types.Lookup(name)
	if t.Values == nil {
		return nil, &MissingAccessorError{Type: name}
	}

	names := t.Values()
	universe := make([]Constant, len(names))
	for i, constName := range names {
		universe[i] = Constant{Type: name, Name: constName, Ordinal: i}
	}
	return universe, nil
}

// Directory returns the name-to-constant directory for name, resolving
// the universe first if it has not been cached yet. The returned map is
// a fresh copy.
func (c *Cache) Directory(name namespace.SandboxName) (map[string]Constant, error) {
	c.mu.RLock()
	cached, ok := c.directories[name]
	c.mu.RUnlock()
	if ok {
		return cloneDirectory(cached), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.directories[name]; ok {
		return cloneDirectory(cached), nil
	}

	universe, ok := c.universes[name]
	if !ok {
		var err error
		universe, err = c.resolve(name)
		if err != nil {
			return nil, err
		}
		c.universes[name] = universe
	}

	directory := make(map[string]Constant, len(universe))
	for _, constant := range universe {
		directory[constant.Name] = constant
	}
	c.directories[name] = directory
	return cloneDirectory(directory), nil
}

// Constant resolves one constant by declared name.
func (c *Cache) Constant(typeName namespace.SandboxName, constName string) (Constant, error) {
	directory, err := c.Directory(typeName)
	if err != nil {
		return Constant{}, err
	}
	constant, ok := directory[constName]
	if !ok {
		return Constant{}, fmt.Errorf("enum %q has no constant %q", typeName, constName)
	}
	return constant, nil
}

// ByOrdinal resolves one constant by ordinal.
func (c *Cache) ByOrdinal(typeName namespace.SandboxName, ordinal int) (Constant, error) {
	universe, err := c.Universe(typeName)
	if err != nil {
		return Constant{}, err
	}
	if ordinal < 0 || ordinal >= len(universe) {
		return Constant{}, fmt.Errorf("enum %q has no ordinal %d (size %d)", typeName, ordinal, len(universe))
	}
	return universe[ordinal], nil
}

func cloneUniverse(universe []Constant) []Constant {
	out := make([]Constant, len(universe))
	copy(out, universe)
	return out
}

func cloneDirectory(directory map[string]Constant) map[string]Constant {
	out := make(map[string]Constant, len(directory))
	for name, constant := range directory {
		out[name] = constant
	}
	return out
}
