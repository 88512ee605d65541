package value

import (
	"errors"
	"testing"

	"github.com/caffeineduck/kago/enums"
	"github.com/caffeineduck/kago/namespace"
	"github.com/caffeineduck/kago/typeinfo"
)

// equalValues compares two values field-wise. Value holds a slice, so
// the struct itself is not comparable.
func equalValues(a, b Value) bool {
	if a.Kind() != b.Kind() || a.Space() != b.Space() {
		return false
	}
	switch a.Kind() {
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindInt:
		return a.AsInt() == b.AsInt()
	case KindDouble:
		return a.AsDouble() == b.AsDouble()
	case KindString:
		return a.AsString() == b.AsString()
	case KindEnum:
		return a.EnumType() == b.EnumType() &&
			a.EnumName() == b.EnumName() &&
			a.Ordinal() == b.Ordinal()
	case KindArray:
		if a.ElemType() != b.ElemType() || a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !equalValues(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	default:
		return a.AsOpaque() == b.AsOpaque()
	}
}

// fixture wires a converter with the Color enum registered on both sides
// of the boundary.
func fixture(t *testing.T) (*namespace.Resolver, *Converter) {
	t.Helper()

	resolver := namespace.New("")
	types := typeinfo.NewRegistry()
	cache := enums.NewCache(resolver, types)

	colorConstants := []string{"RED", "GREEN", "BLUE"}
	err := types.Register(&typeinfo.Type{
		Name:   resolver.ToSandbox("com/example/Color"),
		Super:  resolver.RootEnum(),
		Flags:  typeinfo.FlagEnum | typeinfo.FlagFinal,
		Values: func() []string { return colorConstants },
	})
	if err != nil {
		t.Fatal(err)
	}

	host := NewHostEnums()
	host.Register("com/example/Color", colorConstants)

	return resolver, NewConverter(resolver, cache, host)
}

func TestPrimitiveConversion(t *testing.T) {
	_, conv := fixture(t)

	tests := []struct {
		name string
		in   Value
	}{
		{"bool", Bool(Host, true)},
		{"int", Int(Host, 42)},
		{"double", Double(Host, 2.5)},
		{"string", Str(Host, "hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv, err := conv.ToSandbox(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if sv.Space() != Sandbox || sv.Kind() != tt.in.Kind() {
				t.Errorf("ToSandbox = %v", sv)
			}
			hv, err := conv.ToHost(sv)
			if err != nil {
				t.Fatal(err)
			}
			if !equalValues(hv, tt.in) {
				t.Errorf("round trip = %v, want %v", hv, tt.in)
			}
		})
	}
}

func TestEnumRoundTrip(t *testing.T) {
	_, conv := fixture(t)

	for ordinal, name := range []string{"RED", "GREEN", "BLUE"} {
		hv := Enum(Host, "com/example/Color", name, ordinal)

		sv, err := conv.ToSandbox(hv)
		if err != nil {
			t.Fatal(err)
		}
		if sv.EnumType() != "sandbox/com/example/Color" {
			t.Errorf("sandbox enum type = %q", sv.EnumType())
		}
		if sv.Ordinal() != ordinal || sv.EnumName() != name {
			t.Errorf("sandbox constant = %s, want %s#%d", sv, name, ordinal)
		}

		back, err := conv.ToHost(sv)
		if err != nil {
			t.Fatal(err)
		}
		if !equalValues(back, hv) {
			t.Errorf("round trip = %v, want %v", back, hv)
		}
	}
}

func TestEnumConversionOrdinalOutOfRange(t *testing.T) {
	_, conv := fixture(t)

	if _, err := conv.ToSandbox(Enum(Host, "com/example/Color", "MAUVE", 9)); err == nil {
		t.Error("out-of-range host ordinal should fail")
	}
	if _, err := conv.ToHost(Enum(Sandbox, "sandbox/com/example/Color", "MAUVE", 9)); err == nil {
		t.Error("out-of-range sandbox ordinal should fail")
	}
}

func TestEnumUnknownHostType(t *testing.T) {
	_, conv := fixture(t)

	_, err := conv.ToHost(Enum(Sandbox, "sandbox/com/example/Shape", "CIRCLE", 0))
	var unknown *UnknownHostEnumError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownHostEnumError", err)
	}
	if unknown.Type != "com/example/Shape" {
		t.Errorf("error names %q", unknown.Type)
	}
}

func TestArrayConversion(t *testing.T) {
	_, conv := fixture(t)

	hv := Array(Host, "com/example/Color", []Value{
		Enum(Host, "com/example/Color", "RED", 0),
		Enum(Host, "com/example/Color", "GREEN", 1),
		Enum(Host, "com/example/Color", "BLUE", 2),
	})

	sv, err := conv.ToSandbox(hv)
	if err != nil {
		t.Fatal(err)
	}
	if sv.Len() != 3 {
		t.Fatalf("converted length = %d, want 3", sv.Len())
	}
	if sv.ElemType() != "sandbox/com/example/Color" {
		t.Errorf("element type = %q", sv.ElemType())
	}
	for i := 0; i < 3; i++ {
		e := sv.Index(i)
		if e.Space() != Sandbox || e.Ordinal() != i {
			t.Errorf("element %d = %v", i, e)
		}
	}

	// The source array is untouched by conversion.
	for i := 0; i < 3; i++ {
		if hv.Index(i).Space() != Host {
			t.Errorf("source element %d mutated: %v", i, hv.Index(i))
		}
	}
}

func TestNestedArrayConversion(t *testing.T) {
	_, conv := fixture(t)

	hv := Array(Host, "[I", []Value{
		Array(Host, "I", []Value{Int(Host, 1), Int(Host, 2)}),
		Array(Host, "I", []Value{Int(Host, 3)}),
	})

	sv, err := conv.ToSandbox(hv)
	if err != nil {
		t.Fatal(err)
	}
	if sv.Index(0).Len() != 2 || sv.Index(1).Index(0).AsInt() != 3 {
		t.Errorf("nested conversion = %v", sv)
	}
	if sv.Index(0).Space() != Sandbox {
		t.Error("inner array not converted")
	}
}

func TestOpaquePassThrough(t *testing.T) {
	_, conv := fixture(t)

	ref := &struct{ x int }{x: 7}
	hv := Opaque(Host, ref)

	sv, err := conv.ToSandbox(hv)
	if err != nil {
		t.Fatal(err)
	}
	if sv.AsOpaque() != ref {
		t.Error("opaque conversion must be identity")
	}
	if sv.Space() != Host {
		t.Error("opaque values keep their original space tag")
	}
}

func TestConversionIdentityForSameSpace(t *testing.T) {
	_, conv := fixture(t)

	sv := Str(Sandbox, "already there")
	got, err := conv.ToSandbox(sv)
	if err != nil || !equalValues(got, sv) {
		t.Errorf("ToSandbox on sandbox value = %v, %v", got, err)
	}

	hv := Int(Host, 1)
	got, err = conv.ToHost(hv)
	if err != nil || !equalValues(got, hv) {
		t.Errorf("ToHost on host value = %v, %v", got, err)
	}
}
