package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	name string
	meta MetadataContainer[int]
}

func (n *node) Metadata() *MetadataContainer[int] { return &n.meta }

func newNodes(names ...string) []*node {
	out := make([]*node, len(names))
	for i, n := range names {
		out[i] = &node{name: n}
	}
	return out
}

func TestUnorderedListAddRecordsPosition(t *testing.T) {
	key := NewMetadataRegistry().NewKey()
	l := NewUnorderedList[*node](key)
	ns := newNodes("a", "b", "c")
	for _, n := range ns {
		l.Add(n)
	}
	for i, n := range ns {
		assert.Equal(t, i, n.Metadata().Get(key))
		assert.True(t, l.Contains(n))
	}
	assert.Equal(t, 3, l.Len())
}

func TestUnorderedListRemoveSwapsLast(t *testing.T) {
	key := NewMetadataRegistry().NewKey()
	l := NewUnorderedList[*node](key)
	ns := newNodes("a", "b", "c", "d")
	for _, n := range ns {
		l.Add(n)
	}

	require.True(t, l.Remove(ns[1]))
	assert.Equal(t, 3, l.Len())
	assert.Same(t, ns[3], l.At(1))
	assert.Equal(t, 1, ns[3].Metadata().Get(key))
	assert.False(t, l.Contains(ns[1]))
	assert.False(t, ns[1].Metadata().Contains(key))

	require.True(t, l.Remove(ns[2]))
	assert.Equal(t, []*node{ns[0], ns[3]}, l.Items())
	assert.False(t, l.Remove(ns[2]))
}

func TestUnorderedListContainsRejectsForeignItem(t *testing.T) {
	key := NewMetadataRegistry().NewKey()
	l := NewUnorderedList[*node](key)
	ns := newNodes("a", "b")
	l.Add(ns[0])

	// ns[1] has no slot, so it reads position 0, which holds ns[0].
	assert.False(t, l.Contains(ns[1]))
	assert.False(t, l.Remove(ns[1]))
	assert.Equal(t, 1, l.Len())
}

func TestUnorderedListIndependentKeys(t *testing.T) {
	reg := NewMetadataRegistry()
	l1 := NewUnorderedList[*node](reg.NewKey())
	l2 := NewUnorderedList[*node](reg.NewKey())
	ns := newNodes("a", "b", "c")

	l1.Add(ns[0])
	l1.Add(ns[1])
	l2.Add(ns[1])
	l2.Add(ns[2])

	l1.Remove(ns[0])
	assert.True(t, l1.Contains(ns[1]))
	assert.True(t, l2.Contains(ns[1]))
	assert.Equal(t, 0, ns[1].Metadata().Get(l1.Key()))
	assert.Equal(t, 0, ns[1].Metadata().Get(l2.Key()))
	assert.True(t, l2.Contains(ns[2]))
}

func TestUnorderedListClear(t *testing.T) {
	key := NewMetadataRegistry().NewKey()
	l := NewUnorderedList[*node](key)
	ns := newNodes("a", "b")
	l.Add(ns[0])
	l.Add(ns[1])
	l.Clear()

	assert.Equal(t, 0, l.Len())
	for _, n := range ns {
		assert.False(t, l.Contains(n))
		assert.False(t, n.Metadata().Contains(key))
	}
}
