// Package kv implements the key-value stores a world is kept in.
package kv

import "errors"

// ErrNotFound is returned by Store.Get for keys without a value.
var ErrNotFound = errors.New("key not found")

// Store is a key-value store with opaque byte keys and values. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores value under key, replacing any existing value.
	Put(key, value []byte) error
	// Delete removes key. Deleting a key without a value is not an error.
	Delete(key []byte) error
	// Has reports if a value is stored under key.
	Has(key []byte) (bool, error)
	// Iterate calls f for every key starting with prefix in ascending key order, until f returns false.
	// The slices passed to f are only valid during the call and f must not call methods of the Store.
	Iterate(prefix []byte, f func(key, value []byte) bool) error
	// Close closes the store.
	Close() error
}
