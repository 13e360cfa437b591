package courselib

import "sync"

// VMap is a mutex-guarded generic map. The executor uses it for its
// per-task cancellation flags; it is exported because it is handy
// anywhere a small synchronized map is needed.
type VMap[K comparable, V any] struct {
	kv map[K]V
	mu sync.RWMutex
}

// NewVMap returns an initialized VMap.
func NewVMap[K comparable, V any]() *VMap[K, V] {
	return &VMap[K, V]{kv: make(map[K]V)}
}

// Set stores a value under key.
func (m *VMap[K, V]) Set(key K, val V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = val
}

// Get returns the value for key and whether it was present.
func (m *VMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok
}

// Delete removes key; absent keys are a no-op.
func (m *VMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
}

// Len returns the number of stored entries.
func (m *VMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.kv)
}

// Range calls f for each entry until f returns false. f must not mutate
// the map.
func (m *VMap[K, V]) Range(f func(key K, val V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.kv {
		if !f(k, v) {
			return
		}
	}
}
