// Package remap rewrites class references, field and method descriptors,
// and generic signatures into the sandbox namespace during class
// preparation.
//
// Every embedded type name passes through the namespace resolver; array
// and generic markers are preserved unchanged around the rewritten names.
// Two rules go beyond pure renaming: the universal stringify method is
// renamed so its sandboxed return type can differ from the host's, and
// the sandbox root object type is never remapped because it is defined
// natively in the sandbox namespace rather than generated.
package remap

import (
	"fmt"
	"strings"

	"github.com/caffeineduck/kago/namespace"
)

// The universal representation method every value exposes. Rewriting a
// method reference that exactly matches this name and descriptor renames
// it so the sandboxed target can declare the sandboxed string return type
// without breaking override compatibility in the verifier.
const (
	StringifyMethod        = "toString"
	StringifyDescriptor    = "()Ljava/lang/String;"
	SandboxStringifyMethod = "toSandboxString"
)

// Policy decides which host types may cross into the sandbox. A nil
// policy permits everything.
type Policy interface {
	Permitted(name namespace.HostName) bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(name namespace.HostName) bool

func (f PolicyFunc) Permitted(name namespace.HostName) bool { return f(name) }

// UnresolvableTypeError reports a type reference that cannot be mapped
// into the sandbox namespace. It is surfaced to the preparation pipeline,
// never masked by passing the name through.
type UnresolvableTypeError struct {
	Name string
}

func (e *UnresolvableTypeError) Error() string {
	return fmt.Sprintf("cannot resolve type %q into the sandbox namespace", e.Name)
}

// InvalidDescriptorError reports a malformed descriptor or signature.
type InvalidDescriptorError struct {
	Descriptor string
	Pos        int
	Reason     string
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid descriptor %q at offset %d: %s", e.Descriptor, e.Pos, e.Reason)
}

// MethodRef is a rewritten method reference.
type MethodRef struct {
	Name       string
	Descriptor string
}

// Remapper rewrites references for one sandbox namespace. It is stateless
// apart from its configuration and safe for concurrent use.
type Remapper struct {
	resolver *namespace.Resolver
	policy   Policy
}

// Option configures a Remapper.
type Option func(*Remapper)

// WithPolicy restricts which host types the remapper will map. References
// to denied types fail with an UnresolvableTypeError.
func WithPolicy(p Policy) Option {
	return func(m *Remapper) {
		m.policy = p
	}
}

// New returns a Remapper over the given resolver.
func New(resolver *namespace.Resolver, opts ...Option) *Remapper {
	m := &Remapper{resolver: resolver}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ClassName rewrites an internal class name, or an array descriptor such
// as "[Ljava/lang/String;", into the sandbox namespace. Names already in
// the sandbox namespace pass through unchanged; this covers the natively
// defined root object type, which must never be remapped.
func (m *Remapper) ClassName(name string) (string, error) {
	if name == "" {
		return "", &InvalidDescriptorError{Descriptor: name, Reason: "empty class name"}
	}
	if name[0] == '[' {
		return m.Descriptor(name)
	}
	return m.className(name)
}

func (m *Remapper) className(name string) (string, error) {
	if m.resolver.InSandbox(name) {
		return name, nil
	}
	host := namespace.HostName(name)
	if m.policy != nil && !m.policy.Permitted(host) {
		return "", &UnresolvableTypeError{Name: name}
	}
	return string(m.resolver.ToSandbox(host)), nil
}

// Descriptor rewrites a field descriptor, method descriptor, or generic
// signature. Primitive markers, array dimensions, type variables, and
// wildcard bounds are preserved; every class name is rewritten.
func (m *Remapper) Descriptor(desc string) (string, error) {
	rw := &rewriter{src: desc, m: m}
	var err error
	if rw.peek() == '(' {
		err = rw.method()
	} else {
		err = rw.fieldType()
	}
	if err != nil {
		return "", err
	}
	if rw.pos != len(rw.src) {
		return "", rw.errf(rw.pos, "trailing characters")
	}
	return rw.out.String(), nil
}

// MethodRef rewrites a method reference. The stringify rule applies only
// on an exact name and descriptor match; every other method keeps its
// name and has only its descriptor rewritten.
func (m *Remapper) MethodRef(name, desc string) (MethodRef, error) {
	rewritten, err := m.Descriptor(desc)
	if err != nil {
		return MethodRef{}, err
	}
	if name == StringifyMethod && desc == StringifyDescriptor {
		name = SandboxStringifyMethod
	}
	return MethodRef{Name: name, Descriptor: rewritten}, nil
}

// FieldRef rewrites a field reference: the owning class and the field's
// type descriptor. Field names never change.
func (m *Remapper) FieldRef(owner, name, desc string) (owner2, name2, desc2 string, err error) {
	owner2, err = m.ClassName(owner)
	if err != nil {
		return "", "", "", err
	}
	desc2, err = m.Descriptor(desc)
	if err != nil {
		return "", "", "", err
	}
	return owner2, name, desc2, nil
}

// rewriter is a single-pass recursive-descent rewrite over one
// descriptor. Not reused across calls.
type rewriter struct {
	src string
	pos int
	out strings.Builder
	m   *Remapper
}

func (r *rewriter) peek() byte {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

func (r *rewriter) take() byte {
	c := r.src[r.pos]
	r.pos++
	return c
}

func (r *rewriter) errf(pos int, format string, args ...any) error {
	return &InvalidDescriptorError{
		Descriptor: r.src,
		Pos:        pos,
		Reason:     fmt.Sprintf(format, args...),
	}
}

func (r *rewriter) method() error {
	r.out.WriteByte(r.take()) // (
	for r.peek() != ')' {
		if r.pos >= len(r.src) {
			return r.errf(r.pos, "unterminated parameter list")
		}
		if err := r.fieldType(); err != nil {
			return err
		}
	}
	r.out.WriteByte(r.take()) // )
	if r.peek() == 'V' {
		r.out.WriteByte(r.take())
		return nil
	}
	return r.fieldType()
}

func (r *rewriter) fieldType() error {
	if r.pos >= len(r.src) {
		return r.errf(r.pos, "unexpected end of descriptor")
	}
	switch c := r.peek(); c {
	case '[':
		r.out.WriteByte(r.take())
		return r.fieldType()
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		r.out.WriteByte(r.take())
		return nil
	case 'T':
		return r.typeVariable()
	case 'L':
		return r.classType()
	default:
		return r.errf(r.pos, "unexpected character %q", c)
	}
}

func (r *rewriter) typeVariable() error {
	r.out.WriteByte(r.take()) // T
	start := r.pos
	for r.peek() != ';' {
		if r.pos >= len(r.src) {
			return r.errf(start, "unterminated type variable")
		}
		r.out.WriteByte(r.take())
	}
	r.out.WriteByte(r.take()) // ;
	return nil
}

func (r *rewriter) classType() error {
	r.out.WriteByte(r.take()) // L
	start := r.pos
	for {
		switch r.peek() {
		case 0:
			return r.errf(start, "unterminated class type")
		case ';', '<', '.':
			name := r.src[start:r.pos]
			mapped, err := r.m.className(name)
			if err != nil {
				return err
			}
			r.out.WriteString(mapped)
			return r.classTypeSuffix()
		default:
			r.pos++
		}
	}
}

// classTypeSuffix consumes optional type arguments and inner-class
// suffixes after a rewritten class name, up to and including the closing
// semicolon. Inner-class simple names carry no package and are copied
// unchanged.
func (r *rewriter) classTypeSuffix() error {
	if r.peek() == '<' {
		if err := r.typeArguments(); err != nil {
			return err
		}
	}
	for r.peek() == '.' {
		r.out.WriteByte(r.take())
		for {
			c := r.peek()
			if c == 0 {
				return r.errf(r.pos, "unterminated inner class name")
			}
			if c == ';' || c == '<' || c == '.' {
				break
			}
			r.out.WriteByte(r.take())
		}
		if r.peek() == '<' {
			if err := r.typeArguments(); err != nil {
				return err
			}
		}
	}
	if r.peek() != ';' {
		return r.errf(r.pos, "expected ';'")
	}
	r.out.WriteByte(r.take())
	return nil
}

func (r *rewriter) typeArguments() error {
	r.out.WriteByte(r.take()) // <
	for r.peek() != '>' {
		switch r.peek() {
		case 0:
			return r.errf(r.pos, "unterminated type arguments")
		case '*':
			r.out.WriteByte(r.take())
		case '+', '-':
			r.out.WriteByte(r.take())
			if err := r.fieldType(); err != nil {
				return err
			}
		default:
			if err := r.fieldType(); err != nil {
				return err
			}
		}
	}
	r.out.WriteByte(r.take()) // >
	return nil
}
