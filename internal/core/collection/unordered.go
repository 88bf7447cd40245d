package collection

// Positioned is an item that can live in an UnorderedList. The list keeps the
// item's index in the item's own metadata arena rather than in a side map.
type Positioned interface {
	comparable
	Metadata() *MetadataContainer[int]
}

// UnorderedList is a swap-remove list with O(1) Add, Remove and Contains.
// Element order is not stable across removals. Not safe for concurrent mutation.
type UnorderedList[T Positioned] struct {
	key   MetadataKey
	items []T
}

// NewUnorderedList creates a list that records positions under key.
func NewUnorderedList[T Positioned](key MetadataKey) *UnorderedList[T] {
	return &UnorderedList[T]{
		key:   key,
		items: make([]T, 0, 16),
	}
}

func (l *UnorderedList[T]) Key() MetadataKey { return l.key }

func (l *UnorderedList[T]) Add(item T) {
	item.Metadata().Set(l.key, len(l.items))
	l.items = append(l.items, item)
}

// Contains checks the stored position and the identity at that position.
// A missing slot reads as 0, which the identity check rejects.
func (l *UnorderedList[T]) Contains(item T) bool {
	pos := item.Metadata().Get(l.key)
	return pos >= 0 && pos < len(l.items) && l.items[pos] == item
}

// Remove swaps the last element into item's slot and shrinks the list.
func (l *UnorderedList[T]) Remove(item T) bool {
	meta := item.Metadata()
	pos := meta.Get(l.key)
	if pos < 0 || pos >= len(l.items) || l.items[pos] != item {
		return false
	}
	last := len(l.items) - 1
	if pos != last {
		moved := l.items[last]
		l.items[pos] = moved
		moved.Metadata().Set(l.key, pos)
	}
	var zero T
	l.items[last] = zero
	l.items = l.items[:last]
	meta.Remove(l.key)
	return true
}

func (l *UnorderedList[T]) Len() int { return len(l.items) }

func (l *UnorderedList[T]) At(i int) T { return l.items[i] }

// Items returns the backing slice. Callers must not modify it or hold it
// across a mutation of the list.
func (l *UnorderedList[T]) Items() []T { return l.items }

// Clear empties the list and resets every item's position slot.
func (l *UnorderedList[T]) Clear() {
	var zero T
	for i, item := range l.items {
		item.Metadata().Remove(l.key)
		l.items[i] = zero
	}
	l.items = l.items[:0]
}
