package lib

// Stack is a LIFO work list. Unlike Set it is not thread-safe, it is meant to
// live on the stack of a single traversal.
type Stack[T any] struct {
	items []T
}

func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
}

// Pop removes the top item, ok is false on an empty stack.
func (s *Stack[T]) Pop() (item T, ok bool) {
	if len(s.items) == 0 {
		return item, false
	}
	item = s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return item, true
}

// Peek returns a pointer to the top item so callers can update it in place.
// The pointer is invalidated by the next Push.
func (s *Stack[T]) Peek() *T {
	if len(s.items) == 0 {
		return nil
	}
	return &s.items[len(s.items)-1]
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}
