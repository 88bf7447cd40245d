package collection

import "iter"

const minSparseCapacity = 8

// SparseArray is an index-addressed store that grows on demand. Reads past the
// end or of an unpopulated slot yield the zero value of T.
// Not safe for concurrent mutation.
type SparseArray[T any] struct {
	items     []T
	populated []bool
	count     int
}

func NewSparseArray[T any](capacity int) *SparseArray[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &SparseArray[T]{
		items:     make([]T, capacity),
		populated: make([]bool, capacity),
	}
}

// Get returns the value stored at i, or the zero value when nothing is there.
func (s *SparseArray[T]) Get(i int) T {
	if i >= len(s.items) || !s.populated[i] {
		var zero T
		return zero
	}
	return s.items[i]
}

// TryGet is Get with an explicit presence flag.
func (s *SparseArray[T]) TryGet(i int) (T, bool) {
	if i >= len(s.items) || !s.populated[i] {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

func (s *SparseArray[T]) Set(i int, v T) {
	if i >= len(s.items) {
		s.grow(i + 1)
	}
	if !s.populated[i] {
		s.populated[i] = true
		s.count++
	}
	s.items[i] = v
}

// Remove resets slot i to the zero value. Capacity is kept.
func (s *SparseArray[T]) Remove(i int) bool {
	if i >= len(s.items) || !s.populated[i] {
		return false
	}
	var zero T
	s.items[i] = zero
	s.populated[i] = false
	s.count--
	return true
}

func (s *SparseArray[T]) Contains(i int) bool {
	return i < len(s.items) && s.populated[i]
}

// Len returns the number of populated slots.
func (s *SparseArray[T]) Len() int { return s.count }

// Cap returns the current backing capacity.
func (s *SparseArray[T]) Cap() int { return len(s.items) }

// Each visits populated slots in ascending index order.
func (s *SparseArray[T]) Each(fn func(int, T)) {
	for i, ok := range s.populated {
		if ok {
			fn(i, s.items[i])
		}
	}
}

// All is the range-over-func form of Each.
func (s *SparseArray[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, ok := range s.populated {
			if ok && !yield(i, s.items[i]) {
				return
			}
		}
	}
}

func (s *SparseArray[T]) grow(min int) {
	n := len(s.items) * 2
	if n < minSparseCapacity {
		n = minSparseCapacity
	}
	for n < min {
		n *= 2
	}
	items := make([]T, n)
	copy(items, s.items)
	populated := make([]bool, n)
	copy(populated, s.populated)
	s.items = items
	s.populated = populated
}
