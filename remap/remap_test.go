package remap

import (
	"errors"
	"strings"
	"testing"

	"github.com/caffeineduck/kago/namespace"
)

func newRemapper(opts ...Option) *Remapper {
	return New(namespace.New(""), opts...)
}

func TestClassName(t *testing.T) {
	m := newRemapper()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "java/lang/Integer", "sandbox/java/lang/Integer"},
		{"user type", "com/example/Point", "sandbox/com/example/Point"},
		{"array form", "[Ljava/lang/String;", "[Lsandbox/java/lang/String;"},
		{"primitive array", "[[I", "[[I"},
		{"root object untouched", "sandbox/java/lang/Object", "sandbox/java/lang/Object"},
		{"native sandbox type untouched", "sandbox/java/lang/String", "sandbox/java/lang/String"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ClassName(tt.in)
			if err != nil {
				t.Fatalf("ClassName(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ClassName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	m := newRemapper()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"field primitive", "I", "I"},
		{"field class", "Ljava/lang/String;", "Lsandbox/java/lang/String;"},
		{"field array", "[[Ljava/util/List;", "[[Lsandbox/java/util/List;"},
		{"method void", "(Ljava/lang/String;I)V", "(Lsandbox/java/lang/String;I)V"},
		{
			"method mixed",
			"(I[Ljava/lang/Object;J)Ljava/util/Map;",
			"(I[Lsandbox/java/lang/Object;J)Lsandbox/java/util/Map;",
		},
		{"no-arg", "()V", "()V"},
		{
			"generic signature",
			"Ljava/util/List<Ljava/lang/String;>;",
			"Lsandbox/java/util/List<Lsandbox/java/lang/String;>;",
		},
		{
			"nested generics with wildcards",
			"Ljava/util/Map<+Ljava/lang/Number;*>;",
			"Lsandbox/java/util/Map<+Lsandbox/java/lang/Number;*>;",
		},
		{"type variable", "(TT;)TT;", "(TT;)TT;"},
		{
			"inner class suffix",
			"Ljava/util/Map<TK;TV;>.Entry<TK;TV;>;",
			"Lsandbox/java/util/Map<TK;TV;>.Entry<TK;TV;>;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Descriptor(tt.in)
			if err != nil {
				t.Fatalf("Descriptor(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Descriptor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDescriptorRewriteIdempotent(t *testing.T) {
	m := newRemapper()
	once, err := m.Descriptor("(Ljava/lang/String;)Ljava/util/List;")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := m.Descriptor(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("rewrite not idempotent: %q != %q", once, twice)
	}
}

func TestInvalidDescriptor(t *testing.T) {
	m := newRemapper()

	bad := []string{
		"",
		"Q",
		"Ljava/lang/String", // missing ;
		"(I",                // unterminated parameters
		"(I)VX",             // trailing characters
		"Ljava/util/List<Ljava/lang/String;", // unterminated type args
	}

	for _, desc := range bad {
		if _, err := m.Descriptor(desc); err == nil {
			t.Errorf("Descriptor(%q) succeeded, want error", desc)
		} else {
			var invalid *InvalidDescriptorError
			if !errors.As(err, &invalid) {
				t.Errorf("Descriptor(%q) error = %v, want InvalidDescriptorError", desc, err)
			}
		}
	}
}

func TestMethodRefStringifyRename(t *testing.T) {
	m := newRemapper()

	ref, err := m.MethodRef("toString", "()Ljava/lang/String;")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Name != "toSandboxString" {
		t.Errorf("stringify method renamed to %q, want toSandboxString", ref.Name)
	}
	if ref.Descriptor != "()Lsandbox/java/lang/String;" {
		t.Errorf("stringify descriptor = %q", ref.Descriptor)
	}
}

func TestMethodRefNoRename(t *testing.T) {
	m := newRemapper()

	// Same signature, different name: unchanged.
	ref, err := m.MethodRef("describe", "()Ljava/lang/String;")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Name != "describe" {
		t.Errorf("name = %q, want describe", ref.Name)
	}

	// Same name, different signature: unchanged.
	ref, err = m.MethodRef("toString", "(I)Ljava/lang/String;")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Name != "toString" {
		t.Errorf("overloaded toString renamed to %q", ref.Name)
	}
}

func TestFieldRef(t *testing.T) {
	m := newRemapper()
	owner, name, desc, err := m.FieldRef("com/example/Box", "value", "Ljava/lang/Object;")
	if err != nil {
		t.Fatal(err)
	}
	if owner != "sandbox/com/example/Box" || name != "value" || desc != "Lsandbox/java/lang/Object;" {
		t.Errorf("FieldRef = %q %q %q", owner, name, desc)
	}
}

func TestPolicyDeniedType(t *testing.T) {
	m := newRemapper(WithPolicy(PolicyFunc(func(name namespace.HostName) bool {
		return !strings.HasPrefix(string(name), "java/io/")
	})))

	_, err := m.ClassName("java/io/File")
	var unresolvable *UnresolvableTypeError
	if !errors.As(err, &unresolvable) {
		t.Fatalf("error = %v, want UnresolvableTypeError", err)
	}
	if unresolvable.Name != "java/io/File" {
		t.Errorf("error names %q, want java/io/File", unresolvable.Name)
	}

	// The failure surfaces from descriptors too, not only class names.
	if _, err := m.Descriptor("(Ljava/io/File;)V"); err == nil {
		t.Error("descriptor embedding a denied type should fail")
	}

	if _, err := m.ClassName("java/lang/String"); err != nil {
		t.Errorf("permitted type failed: %v", err)
	}
}

func BenchmarkDescriptor(b *testing.B) {
	m := newRemapper()
	desc := "(Ljava/lang/String;[Ljava/util/Map<Ljava/lang/String;Ljava/lang/Integer;>;J)Ljava/util/List<Ljava/lang/Object;>;"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := m.Descriptor(desc); err != nil {
			b.Fatal(err)
		}
	}
}
