// Package hostapi registers the host functions a sandbox exposes to
// guest modules.
//
// Functions are grouped into named modules. At runtime binding, each
// module is exported to the guest only under its sandbox-namespace name,
// so a guest importing the host-namespace name fails to link. Every
// function registered here must be deterministic: same arguments and
// store state, same observable result.
package hostapi

import (
	"sort"
	"sync"

	"github.com/tetratelabs/wazero/api"
)

// Func is one host function in WASM ABI terms.
type Func struct {
	Params  []api.ValueType
	Results []api.ValueType
	Call    api.GoModuleFunc
}

// Module is a named group of host functions.
type Module struct {
	name string

	mu  sync.RWMutex
	fns map[string]Func
}

// NewModule returns an empty module with the given host-namespace name.
func NewModule(name string) *Module {
	return &Module{name: name, fns: make(map[string]Func)}
}

// Name returns the module's host-namespace name.
func (m *Module) Name() string {
	return m.name
}

// Register adds or replaces a function.
func (m *Module) Register(name string, fn Func) {
	m.mu.Lock()
	m.fns[name] = fn
	m.mu.Unlock()
}

// Funcs returns a copy of the registered functions.
func (m *Module) Funcs() map[string]Func {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Func, len(m.fns))
	for name, fn := range m.fns {
		out[name] = fn
	}
	return out
}

// Registry holds the host modules of one sandbox context.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Add registers a module, replacing any module of the same name.
func (r *Registry) Add(m *Module) {
	r.mu.Lock()
	r.modules[m.name] = m
	r.mu.Unlock()
}

// Module returns the module registered under name.
func (r *Registry) Module(name string) (*Module, bool) {
	r.mu.RLock()
	m, ok := r.modules[name]
	r.mu.RUnlock()
	return m, ok
}

// List returns the registered module names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered modules keyed by name.
func (r *Registry) All() map[string]*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Module, len(r.modules))
	for name, m := range r.modules {
		out[name] = m
	}
	return out
}
