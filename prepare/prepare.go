// Package prepare turns raw class units into sandboxed classes: every
// reference is rewritten into the sandbox namespace, type metadata is
// registered for the sandbox's reflective surface, and prepared classes
// are cached by content digest so identical units are prepared at most
// once.
package prepare

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/caffeineduck/kago/namespace"
	"github.com/caffeineduck/kago/remap"
	"github.com/caffeineduck/kago/typeinfo"
)

// Class is one raw unit from the class feed, in host-namespace form.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Flags      typeinfo.Flag
	Fields     []typeinfo.Member
	Methods    []typeinfo.Member

	// Constants are an enum class's constant names in declaration
	// order. They back the generated ordered-constants accessor.
	Constants []string
}

// Prepared is a class after remapping, ready for the sandbox.
type Prepared struct {
	Name       namespace.SandboxName
	Super      namespace.SandboxName
	Interfaces []namespace.SandboxName
	Flags      typeinfo.Flag
	Fields     []typeinfo.Member
	Methods    []typeinfo.Member
	Constants  []string

	// Digest is the blake3 digest of the canonical source encoding,
	// the cache key for this unit.
	Digest [32]byte
}

// ForeignNameError reports a class unit whose name already carries the
// sandbox prefix. Only strict preparers return it; the permissive
// default treats such units as already sandboxed.
type ForeignNameError struct {
	Name string
}

func (e *ForeignNameError) Error() string {
	return fmt.Sprintf("class %q is already in the sandbox namespace", e.Name)
}

// Preparer prepares class units for one sandbox context. Safe for
// concurrent use; each distinct unit is prepared at most once.
type Preparer struct {
	resolver *namespace.Resolver
	remapper *remap.Remapper
	types    *typeinfo.Registry
	strict   bool

	mu       sync.RWMutex
	prepared map[[32]byte]*Prepared
}

// Option configures a Preparer.
type Option func(*Preparer)

// WithPolicy restricts which host types preparation may reference.
func WithPolicy(p remap.Policy) Option {
	return func(pr *Preparer) {
		pr.remapper = remap.New(pr.resolver, remap.WithPolicy(p))
	}
}

// WithStrictHostNames rejects class units whose names already carry the
// sandbox prefix instead of passing them through.
func WithStrictHostNames() Option {
	return func(pr *Preparer) {
		pr.strict = true
	}
}

// New returns a Preparer that registers prepared types into types.
func New(resolver *namespace.Resolver, types *typeinfo.Registry, opts ...Option) *Preparer {
	p := &Preparer{
		resolver: resolver,
		remapper: remap.New(resolver),
		types:    types,
		prepared: make(map[[32]byte]*Prepared),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Remapper returns the reference remapper this preparer uses.
func (p *Preparer) Remapper() *remap.Remapper {
	return p.remapper
}

// Prepare remaps one class unit and registers its type metadata,
// returning the cached result if an identical unit was already
// prepared. Resolution failures propagate; nothing is registered for a
// unit that fails partway.
func (p *Preparer) Prepare(c Class) (*Prepared, error) {
	digest := digestOf(c)

	p.mu.RLock()
	if cached, ok := p.prepared[digest]; ok {
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.prepared[digest]; ok {
		return cached, nil
	}

	out, err := p.remapClass(c)
	if err != nil {
		return nil, err
	}
	out.Digest = digest

	if err := p.register(out); err != nil {
		return nil, err
	}

	p.prepared[digest] = out
	return out, nil
}

func (p *Preparer) remapClass(c Class) (*Prepared, error) {
	if p.strict && p.resolver.InSandbox(c.Name) {
		return nil, &ForeignNameError{Name: c.Name}
	}

	name, err := p.remapper.ClassName(c.Name)
	if err != nil {
		return nil, err
	}

	super := c.Super
	if super == "" {
		super = string(p.resolver.RootObject())
	}
	mappedSuper, err := p.remapper.ClassName(super)
	if err != nil {
		return nil, err
	}

	out := &Prepared{
		Name:      namespace.SandboxName(name),
		Super:     namespace.SandboxName(mappedSuper),
		Flags:     c.Flags,
		Constants: append([]string(nil), c.Constants...),
	}

	for _, iface := range c.Interfaces {
		mapped, err := p.remapper.ClassName(iface)
		if err != nil {
			return nil, err
		}
		out.Interfaces = append(out.Interfaces, namespace.SandboxName(mapped))
	}

	for _, f := range c.Fields {
		desc, err := p.remapper.Descriptor(f.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", c.Name, f.Name, err)
		}
		out.Fields = append(out.Fields, typeinfo.Member{Name: f.Name, Descriptor: desc})
	}

	for _, m := range c.Methods {
		ref, err := p.remapper.MethodRef(m.Name, m.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", c.Name, m.Name, err)
		}
		out.Methods = append(out.Methods, typeinfo.Member{Name: ref.Name, Descriptor: ref.Descriptor})
	}

	return out, nil
}

func (p *Preparer) register(out *Prepared) error {
	t := &typeinfo.Type{
		Name:    out.Name,
		Super:   out.Super,
		Flags:   out.Flags,
		Fields:  out.Fields,
		Methods: out.Methods,
	}
	// Every enum class gets an accessor, even with zero constants: an
	// empty universe is a valid resolution, a nil accessor is not.
	if out.Flags&typeinfo.FlagEnum != 0 {
		constants := out.Constants
		t.Values = func() []string { return constants }
	}
	return p.types.Register(t)
}

// digestOf computes the cache key: a blake3 digest over a canonical
// length-prefixed encoding of the unit.
func digestOf(c Class) [32]byte {
	var buf bytes.Buffer
	writeString := func(s string) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(s)))
		buf.Write(n[:])
		buf.WriteString(s)
	}
	writeList := func(items []string) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(items)))
		buf.Write(n[:])
		for _, item := range items {
			writeString(item)
		}
	}
	writeMembers := func(members []typeinfo.Member) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(members)))
		buf.Write(n[:])
		for _, m := range members {
			writeString(m.Name)
			writeString(m.Descriptor)
		}
	}

	writeString(c.Name)
	writeString(c.Super)
	writeList(c.Interfaces)
	var flags [4]byte
	binary.BigEndian.PutUint32(flags[:], uint32(c.Flags))
	buf.Write(flags[:])
	writeMembers(c.Fields)
	writeMembers(c.Methods)
	writeList(c.Constants)

	return blake3.Sum256(buf.Bytes())
}
