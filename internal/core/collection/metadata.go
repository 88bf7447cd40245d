package collection

import (
	"strconv"
	"sync/atomic"
)

// MetadataKey addresses one slot in every MetadataContainer built against the
// same registry. The zero key is never issued.
type MetadataKey struct {
	index int
}

func (k MetadataKey) Index() int     { return k.index }
func (k MetadataKey) Valid() bool    { return k.index > 0 }
func (k MetadataKey) String() string { return "meta#" + strconv.Itoa(k.index) }

// MetadataRegistry issues process-unique keys. Keys are never reclaimed; one
// key is consumed per registered owner (a trigger cache), not per entity.
type MetadataRegistry struct {
	next atomic.Int64
}

func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{}
}

// NewKey is safe to call from several goroutines at once.
func (r *MetadataRegistry) NewKey() MetadataKey {
	return MetadataKey{index: int(r.next.Add(1))}
}

// Issued reports how many keys have been handed out.
func (r *MetadataRegistry) Issued() int {
	return int(r.next.Load())
}

// MetadataContainer is the per-owner arena addressed by MetadataKey.
type MetadataContainer[T any] struct {
	slots SparseArray[T]
}

func NewMetadataContainer[T any]() *MetadataContainer[T] {
	return &MetadataContainer[T]{}
}

func (c *MetadataContainer[T]) Get(key MetadataKey) T {
	return c.slots.Get(key.index)
}

func (c *MetadataContainer[T]) Set(key MetadataKey, v T) {
	c.slots.Set(key.index, v)
}

// Remove resets the slot to the default value.
func (c *MetadataContainer[T]) Remove(key MetadataKey) {
	c.slots.Remove(key.index)
}

func (c *MetadataContainer[T]) Contains(key MetadataKey) bool {
	return c.slots.Contains(key.index)
}
