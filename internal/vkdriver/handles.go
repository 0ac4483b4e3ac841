package vkdriver

import "sync"

// table maps the opaque uint64 handles of package render to vulkan-go
// handles. Zero is never issued and always resolves to the zero value.
type table[T comparable] struct {
	mu   sync.Mutex
	next uint64
	m    map[uint64]T
}

func (t *table[T]) put(v T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = make(map[uint64]T)
	}
	t.next++
	t.m[t.next] = v
	return t.next
}

func (t *table[T]) get(h uint64) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m[h]
}

func (t *table[T]) getAll(hs []uint64) []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]T, len(hs))
	for i, h := range hs {
		out[i] = t.m[h]
	}
	return out
}

// take removes h and returns what it referred to.
func (t *table[T]) take(h uint64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.m[h]
	if ok {
		delete(t.m, h)
	}
	return v, ok
}

func (t *table[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
