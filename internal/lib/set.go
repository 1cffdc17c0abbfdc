package lib

import (
	"sync"
)

// Set is thread-safe and can be passed by value.
type Set[T comparable] struct {
	data map[T]struct{}
	mu   *sync.RWMutex
}

func NewSet[T comparable]() Set[T] {
	return Set[T]{
		data: make(map[T]struct{}),
		mu:   &sync.RWMutex{},
	}
}

func (s Set[T]) Add(elems ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, elem := range elems {
		s.data[elem] = struct{}{}
	}
}

func (s Set[T]) Remove(elem T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, elem)
}

func (s Set[T]) Contains(elem T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.data[elem]
	return exists
}

func (s Set[T]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Clear empties the set in place, every copy of s sees the change.
func (s Set[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
}

// AsSlice returns the elements in no particular order.
func (s Set[T]) AsSlice() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elements := make([]T, 0, len(s.data))
	for elem := range s.data {
		elements = append(elements, elem)
	}

	return elements
}
