package hostapi

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	env := NewModule("env")
	env.Register("ping", Func{
		Results: []api.ValueType{api.ValueTypeI32},
		Call: func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(1)
		},
	})
	r.Add(env)
	r.Add(NewModule("aux"))

	if _, ok := r.Module("env"); !ok {
		t.Fatal("env module not found")
	}
	if _, ok := r.Module("missing"); ok {
		t.Error("missing module reported present")
	}

	got := r.List()
	if len(got) != 2 || got[0] != "aux" || got[1] != "env" {
		t.Errorf("List = %v, want sorted [aux env]", got)
	}

	fns := env.Funcs()
	if _, ok := fns["ping"]; !ok {
		t.Error("ping not registered")
	}
	// Funcs returns a copy; mutating it must not touch the module.
	delete(fns, "ping")
	if _, ok := env.Funcs()["ping"]; !ok {
		t.Error("module mutated through Funcs copy")
	}
}

func TestStore(t *testing.T) {
	s := NewStore()

	s.Set("b", "2")
	s.Set("a", "1")
	s.Set("c", "3")
	s.Delete("c")

	if val, ok := s.Get("a"); !ok || val != "1" {
		t.Errorf("Get(a) = %q, %v", val, ok)
	}
	if _, ok := s.Get("c"); ok {
		t.Error("deleted key still present")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys = %v, want sorted [a b]", keys)
	}
}

func TestStoreBind(t *testing.T) {
	s := NewStore()
	m := NewModule("env")
	s.Bind(m)

	fns := m.Funcs()
	for _, name := range []string{"kv_set", "kv_get", "kv_delete", "kv_size"} {
		if _, ok := fns[name]; !ok {
			t.Errorf("%s not bound", name)
		}
	}
	if got := len(fns["kv_get"].Params); got != 4 {
		t.Errorf("kv_get params = %d, want 4", got)
	}

	// kv_size needs no guest memory, so it can be exercised directly.
	s.Set("k", "v")
	stack := []uint64{0}
	fns["kv_size"].Call(context.Background(), nil, stack)
	if api.DecodeI32(stack[0]) != 1 {
		t.Errorf("kv_size = %d, want 1", api.DecodeI32(stack[0]))
	}
}
