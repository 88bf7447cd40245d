package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateDefaults(t *testing.T) {
	reg, ids := newTestRegistry(t)
	tmpl := NewTemplate(reg, 3, "orc")
	require.NoError(t, tmpl.AddDefault(&data0{V: 4}))
	require.NoError(t, tmpl.AddDefault(&vdata{V: 8}))
	require.ErrorIs(t, tmpl.AddDefault(&data0{}), ErrComponentExists)

	assert.Equal(t, []ComponentID{ids.d0, ids.v}, tmpl.Components())
	assert.True(t, tmpl.Contains(ids.v))
	assert.Equal(t, "Template(3, orc)", tmpl.String())

	d, err := tmpl.Default(ids.d0)
	require.NoError(t, err)
	assert.Equal(t, 4, d.(*data0).V)

	assert.True(t, tmpl.RemoveDefault(ids.d0))
	assert.False(t, tmpl.RemoveDefault(ids.d0))
	_, err = tmpl.Default(ids.d0)
	require.ErrorIs(t, err, ErrNoSuchComponent)
}

func TestTemplateInstantiateClones(t *testing.T) {
	reg, ids := newTestRegistry(t)
	tmpl := NewTemplate(reg, 1, "crate")
	require.NoError(t, tmpl.AddDefault(&vdata{V: 2}))

	a := tmpl.Instantiate()
	b := tmpl.Instantiate()
	assert.Same(t, tmpl, a.Template())
	assert.NotEqual(t, a.ID(), b.ID())

	w, err := Modify[*vdata](a)
	require.NoError(t, err)
	w.V = 50

	bv, err := Get[*vdata](b)
	require.NoError(t, err)
	assert.Equal(t, 2, bv.V)
	def, _ := tmpl.Default(ids.v)
	assert.Equal(t, 2, def.(*vdata).V)

	prev, err := Prev[*vdata](b)
	require.NoError(t, err)
	assert.Equal(t, 2, prev.V)
}

func TestTemplateInstancesJoinManager(t *testing.T) {
	m, ids := newTestManager(t)
	log := &eventLogger{required: []ComponentID{ids.d0}}
	addTrigger(t, m, log)

	tmpl := NewTemplate(m.Registry(), 1, "thing")
	require.NoError(t, tmpl.AddDefault(&data0{}))
	for range 2 {
		require.NoError(t, m.AddEntity(tmpl.Instantiate()))
	}
	step(t, m)
	assert.Equal(t, []string{"added", "added", "pre", "update", "update", "post"}, log.take())
}

func TestMask(t *testing.T) {
	var m mask
	m.set(3)
	m.set(64)
	m.set(255)
	assert.True(t, m.has(64))
	assert.Equal(t, []ComponentID{3, 64, 255}, m.ids())
	assert.Equal(t, 3, m.count())

	var sub mask
	sub.set(255)
	assert.True(t, m.contains(sub))
	assert.True(t, m.intersects(sub))
	m.unset(255)
	assert.False(t, m.contains(sub))
	assert.False(t, m.intersects(sub))
	assert.True(t, mask{}.empty())
}

func TestFilterCheck(t *testing.T) {
	reg, ids := newTestRegistry(t)
	e := NewEntity(reg)
	require.NoError(t, e.AddComponent(&data0{}))

	assert.True(t, NewFilter().Check(e))
	assert.True(t, NewFilter().Empty())
	assert.True(t, NewFilter(ids.d0).Check(e))
	assert.False(t, NewFilter(ids.d0, ids.d1).Check(e))
	assert.Equal(t, []ComponentID{ids.d0, ids.d1}, NewFilter(ids.d1, ids.d0).Required())
	assert.True(t, NewFilter(ids.d1).Requires(ids.d1))
}
