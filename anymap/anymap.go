// Package anymap implements a type-keyed heterogeneous map used as
// per-evaluation side-channel state: keywords that must share state with
// siblings (unevaluatedProperties watching properties, unevaluatedItems
// watching items/contains) stash and retrieve typed values here without
// the evaluator needing to know their shape.
package anymap

import "reflect"

// Map is a small, non-concurrent-safe type-keyed map. One Map is created
// per schema evaluation and discarded afterward.
type Map struct {
	entries map[reflect.Type]any
}

// New creates an empty Map.
func New() *Map {
	return &Map{entries: make(map[reflect.Type]any)}
}

// Set stores v keyed by its concrete type, overwriting any previous
// value of that type.
func Set[T any](m *Map, v T) {
	m.entries[reflect.TypeOf(v)] = v
}

// Get retrieves the value of type T, if any was stored.
func Get[T any](m *Map) (T, bool) {
	var zero T
	raw, ok := m.entries[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// GetOrInsert retrieves the value of type T, inserting the result of init
// if absent.
func GetOrInsert[T any](m *Map, init func() T) T {
	if v, ok := Get[T](m); ok {
		return v
	}
	v := init()
	Set(m, v)
	return v
}

// Delete removes the value of type T, if any.
func Delete[T any](m *Map) {
	var zero T
	delete(m.entries, reflect.TypeOf(zero))
}

// Len reports the number of distinct types currently stored.
func (m *Map) Len() int {
	return len(m.entries)
}
