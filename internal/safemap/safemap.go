// Package safemap wraps puzpuzpuz/xsync's lock-free map for the
// concurrent set the coordinator needs (unique reads seen this session).
// It exists so that call site doesn't depend on xsync's API directly.
package safemap

import "github.com/puzpuzpuz/xsync/v3"

// Set is a concurrent presence set over any comparable key type.
type Set[K comparable] struct {
	m *xsync.MapOf[K, struct{}]
}

// NewSet creates an empty concurrent Set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{m: xsync.NewMapOf[K, struct{}]()}
}

// Add records key as present and reports whether it was newly added.
func (s *Set[K]) Add(key K) (isNew bool) {
	_, loaded := s.m.LoadOrStore(key, struct{}{})
	return !loaded
}

// Len returns the number of distinct keys recorded.
func (s *Set[K]) Len() int {
	return s.m.Size()
}
