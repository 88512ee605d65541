// Package value converts values between host-native and sandboxed
// representations at the sandbox boundary.
//
// Values are a closed tagged union (bool, int, double, string, array,
// enum, opaque) so conversion dispatch is exhaustive rather than a chain
// of runtime type inspections. Conversions never mutate their input:
// each either allocates a new value on the target side or returns the
// original unchanged.
package value

import (
	"fmt"

	"github.com/caffeineduck/kago/enums"
	"github.com/caffeineduck/kago/namespace"
)

// Space tags which side of the boundary a value lives on.
type Space int

const (
	Host Space = iota
	Sandbox
)

func (s Space) String() string {
	if s == Host {
		return "host"
	}
	return "sandbox"
}

// Kind tags the variant of a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindDouble
	KindString
	KindArray
	KindEnum
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	default:
		return "opaque"
	}
}

// Value is one value in either representation. Construct with the
// package-level constructors; the zero value is a host-space false bool.
type Value struct {
	kind  Kind
	space Space

	b bool
	i int64
	f float64
	s string

	// Array payload: element type name in this value's namespace
	// (primitive descriptors such as "I" are namespace-free) plus the
	// converted-or-original elements.
	elem string
	arr  []Value

	// Enum payload: type name in this value's namespace, declared
	// constant name, and ordinal. Ordinal is the only field conversion
	// relies on.
	enumType string
	enumName string
	ordinal  int

	opaque any
}

func Bool(s Space, v bool) Value      { return Value{kind: KindBool, space: s, b: v} }
func Int(s Space, v int64) Value      { return Value{kind: KindInt, space: s, i: v} }
func Double(s Space, v float64) Value { return Value{kind: KindDouble, space: s, f: v} }
func Str(s Space, v string) Value     { return Value{kind: KindString, space: s, s: v} }

// Array builds an array value. elem is the element type name in space s.
func Array(s Space, elem string, elems []Value) Value {
	return Value{kind: KindArray, space: s, elem: elem, arr: elems}
}

// Enum builds an enum constant value of the named type in space s.
func Enum(s Space, typ, name string, ordinal int) Value {
	return Value{kind: KindEnum, space: s, enumType: typ, enumName: name, ordinal: ordinal}
}

// Opaque wraps a reference the sandbox does not specialize. Conversion
// is the identity function for it.
func Opaque(s Space, v any) Value {
	return Value{kind: KindOpaque, space: s, opaque: v}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) Space() Space { return v.space }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int64      { return v.i }
func (v Value) AsDouble() float64 { return v.f }
func (v Value) AsString() string  { return v.s }
func (v Value) AsOpaque() any     { return v.opaque }

// ElemType returns an array value's element type name.
func (v Value) ElemType() string { return v.elem }

// Len returns an array value's length.
func (v Value) Len() int { return len(v.arr) }

// Index returns an array element.
func (v Value) Index(i int) Value { return v.arr[i] }

// EnumType returns an enum value's type name in its own namespace.
func (v Value) EnumType() string { return v.enumType }

// EnumName returns an enum value's declared constant name.
func (v Value) EnumName() string { return v.enumName }

// Ordinal returns an enum value's declaration-order index.
func (v Value) Ordinal() int { return v.ordinal }

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%s:%v", v.space, v.b)
	case KindInt:
		return fmt.Sprintf("%s:%d", v.space, v.i)
	case KindDouble:
		return fmt.Sprintf("%s:%g", v.space, v.f)
	case KindString:
		return fmt.Sprintf("%s:%q", v.space, v.s)
	case KindArray:
		return fmt.Sprintf("%s:%s[%d]", v.space, v.elem, len(v.arr))
	case KindEnum:
		return fmt.Sprintf("%s:%s.%s#%d", v.space, v.enumType, v.enumName, v.ordinal)
	default:
		return fmt.Sprintf("%s:opaque", v.space)
	}
}

// UnknownHostEnumError reports a sandbox enum whose host counterpart has
// no registered native constant array.
type UnknownHostEnumError struct {
	Type namespace.HostName
}

func (e *UnknownHostEnumError) Error() string {
	return fmt.Sprintf("host enum type %q has no registered constants", e.Type)
}

// HostEnums is the host runtime's native constant arrays, keyed by host
// type name. It stands in for the host's reflective enum surface on the
// way out of the sandbox. Safe for concurrent use after registration.
type HostEnums struct {
	constants map[namespace.HostName][]string
}

// NewHostEnums returns an empty host enum table.
func NewHostEnums() *HostEnums {
	return &HostEnums{constants: make(map[namespace.HostName][]string)}
}

// Register records a host enum's constants in declaration order.
func (h *HostEnums) Register(name namespace.HostName, constants []string) {
	h.constants[name] = append([]string(nil), constants...)
}

// Constants returns the declaration-ordered constants of name.
func (h *HostEnums) Constants(name namespace.HostName) ([]string, bool) {
	c, ok := h.constants[name]
	return c, ok
}

// Converter translates values across the boundary. Stateless apart from
// read access to the already-published caches, so safe for concurrent
// use.
type Converter struct {
	resolver *namespace.Resolver
	enums    *enums.Cache
	host     *HostEnums
}

// NewConverter returns a Converter over the sandbox enum cache and the
// host enum table.
func NewConverter(resolver *namespace.Resolver, cache *enums.Cache, host *HostEnums) *Converter {
	return &Converter{resolver: resolver, enums: cache, host: host}
}

// ToSandbox converts a host value to its sandboxed representation.
// Values already in sandbox space and opaque references are returned
// unchanged.
func (c *Converter) ToSandbox(v Value) (Value, error) {
	if v.space == Sandbox {
		return v, nil
	}
	switch v.kind {
	case KindBool, KindInt, KindDouble, KindString:
		out := v
		out.space = Sandbox
		return out, nil
	case KindArray:
		return c.convertArray(v, Sandbox)
	case KindEnum:
		sandboxType := c.resolver.ToSandbox(namespace.HostName(v.enumType))
		constant, err := c.enums.ByOrdinal(sandboxType, v.ordinal)
		if err != nil {
			return Value{}, err
		}
		return Enum(Sandbox, string(constant.Type), constant.Name, constant.Ordinal), nil
	default:
		return v, nil
	}
}

// ToHost converts a sandboxed value back to its host representation.
// Values already in host space and opaque references are returned
// unchanged.
func (c *Converter) ToHost(v Value) (Value, error) {
	if v.space == Host {
		return v, nil
	}
	switch v.kind {
	case KindBool, KindInt, KindDouble, KindString:
		out := v
		out.space = Host
		return out, nil
	case KindArray:
		return c.convertArray(v, Host)
	case KindEnum:
		hostType := c.resolver.ToHost(namespace.SandboxName(v.enumType))
		constants, ok := c.host.Constants(hostType)
		if !ok {
			return Value{}, &UnknownHostEnumError{Type: hostType}
		}
		if v.ordinal < 0 || v.ordinal >= len(constants) {
			return Value{}, fmt.Errorf("host enum %q has no ordinal %d (size %d)", hostType, v.ordinal, len(constants))
		}
		return Enum(Host, string(hostType), constants[v.ordinal], v.ordinal), nil
	default:
		return v, nil
	}
}

// convertArray allocates a fresh array of the converted component type
// and converts every element recursively. The source array is never
// touched.
func (c *Converter) convertArray(v Value, target Space) (Value, error) {
	elem := c.convertElemType(v.elem, target)
	out := make([]Value, len(v.arr))
	for i, e := range v.arr {
		var converted Value
		var err error
		if target == Sandbox {
			converted, err = c.ToSandbox(e)
		} else {
			converted, err = c.ToHost(e)
		}
		if err != nil {
			return Value{}, fmt.Errorf("array element %d: %w", i, err)
		}
		out[i] = converted
	}
	return Array(target, elem, out), nil
}

// convertElemType maps an array element type name into the target
// namespace. Single-character primitive descriptors belong to neither
// namespace and pass through.
func (c *Converter) convertElemType(elem string, target Space) string {
	if len(elem) == 1 {
		return elem
	}
	if target == Sandbox {
		return string(c.resolver.ToSandbox(namespace.HostName(elem)))
	}
	return string(c.resolver.ToHost(namespace.SandboxName(elem)))
}
