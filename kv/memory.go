package kv

import (
	"bytes"
	"maps"
	"slices"
	"sync"
)

// Memory is a Store holding its values in memory. It is mostly useful for tests and for worlds that are
// never saved.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get returns the value stored under key, or ErrNotFound.
func (m *Memory) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

// Put stores value under key.
func (m *Memory) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[string(key)] = bytes.Clone(value)
	return nil
}

// Delete removes the value stored under key.
func (m *Memory) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, string(key))
	return nil
}

// Has reports if a value is stored under key.
func (m *Memory) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[string(key)]
	return ok, nil
}

// Iterate calls f for every key starting with prefix in ascending order, until f returns false.
func (m *Memory) Iterate(prefix []byte, f func(key, value []byte) bool) error {
	m.mu.RLock()
	keys := slices.Sorted(maps.Keys(m.values))
	m.mu.RUnlock()

	for _, k := range keys {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		m.mu.RLock()
		v, ok := m.values[k]
		m.mu.RUnlock()
		if ok && !f([]byte(k), v) {
			break
		}
	}
	return nil
}

// Len returns the number of keys in the store.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close does nothing. The values held stay readable.
func (m *Memory) Close() error {
	return nil
}
