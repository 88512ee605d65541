package hostapi

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero/api"
)

// Store is a deterministic in-memory key-value scratch store for guest
// code. All iteration-order surfaces are sorted so two runs with the
// same operations observe identical results.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	val, ok := s.data[key]
	s.mu.RUnlock()
	return val, ok
}

// Set stores val under key.
func (s *Store) Set(key, val string) {
	s.mu.Lock()
	s.data[key] = val
	s.mu.Unlock()
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Bind registers the store's guest-callable functions on m:
//
//	kv_set(keyPtr, keyLen, valPtr, valLen i32)
//	kv_get(keyPtr, keyLen, dstPtr, dstCap i32) -> i32  // bytes written, -1 if absent or truncated
//	kv_delete(keyPtr, keyLen i32)
//	kv_size() -> i32
func (s *Store) Bind(m *Module) {
	i32 := api.ValueTypeI32

	m.Register("kv_set", Func{
		Params: []api.ValueType{i32, i32, i32, i32},
		Call: func(ctx context.Context, mod api.Module, stack []uint64) {
			key, ok := readString(mod, stack[0], stack[1])
			if !ok {
				return
			}
			val, ok := readString(mod, stack[2], stack[3])
			if !ok {
				return
			}
			s.Set(key, val)
		},
	})

	m.Register("kv_get", Func{
		Params:  []api.ValueType{i32, i32, i32, i32},
		Results: []api.ValueType{i32},
		Call: func(ctx context.Context, mod api.Module, stack []uint64) {
			key, ok := readString(mod, stack[0], stack[1])
			if !ok {
				stack[0] = api.EncodeI32(-1)
				return
			}
			val, ok := s.Get(key)
			if !ok || len(val) > int(uint32(stack[3])) {
				stack[0] = api.EncodeI32(-1)
				return
			}
			if !mod.Memory().Write(uint32(stack[2]), []byte(val)) {
				stack[0] = api.EncodeI32(-1)
				return
			}
			stack[0] = api.EncodeI32(int32(len(val)))
		},
	})

	m.Register("kv_delete", Func{
		Params: []api.ValueType{i32, i32},
		Call: func(ctx context.Context, mod api.Module, stack []uint64) {
			if key, ok := readString(mod, stack[0], stack[1]); ok {
				s.Delete(key)
			}
		},
	})

	m.Register("kv_size", Func{
		Results: []api.ValueType{i32},
		Call: func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(int32(s.Len()))
		},
	})
}

func readString(mod api.Module, ptr, length uint64) (string, bool) {
	data, ok := mod.Memory().Read(uint32(ptr), uint32(length))
	if !ok {
		return "", false
	}
	return string(data), true
}
