package ecs

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAssignsDenseIDs(t *testing.T) {
	reg, ids := newTestRegistry(t)
	assert.Equal(t, ComponentID(0), ids.d0)
	assert.Equal(t, ComponentID(4), ids.t)
	assert.Equal(t, 5, reg.Len())

	id, err := IDOf[*vdata](reg)
	require.NoError(t, err)
	assert.Equal(t, ids.v, id)

	byName, ok := reg.ByName("ledger")
	require.True(t, ok)
	assert.Equal(t, ids.l, byName)
}

func TestRegistryDetectsContracts(t *testing.T) {
	reg, ids := newTestRegistry(t)
	cases := []struct {
		id                    ComponentID
		versioned, concurrent bool
	}{
		{ids.d0, false, false},
		{ids.v, true, false},
		{ids.l, true, true},
		{ids.t, false, true},
	}
	for _, c := range cases {
		info, ok := reg.Info(c.id)
		require.True(t, ok)
		assert.Equal(t, c.versioned, info.Versioned, info.Name)
		assert.Equal(t, c.concurrent, info.Concurrent, info.Name)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := Register[*data0](reg, "other")
	require.ErrorIs(t, err, ErrComponentRegistered)

	type data2 struct{ data0 }
	_, err = Register[*data2](reg, "data0")
	require.ErrorIs(t, err, ErrComponentRegistered)

	_, err = IDOf[*data2](reg)
	require.ErrorIs(t, err, ErrUnregisteredComponent)
	assert.Panics(t, func() { MustIDOf[*data2](reg) })
}

func TestRegistryNewBuildsZeroValue(t *testing.T) {
	reg, ids := newTestRegistry(t)
	d, err := reg.New(ids.v)
	require.NoError(t, err)
	assert.Equal(t, &vdata{}, d)

	_, err = reg.New(99)
	require.ErrorIs(t, err, ErrUnregisteredComponent)
}

type generated struct{ V int }

func (g generated) Clone() Data { return g }

// typeOfArray yields a distinct type per n for bulk registration.
func typeOfArray(n int) reflect.Type {
	return reflect.ArrayOf(n+1, reflect.TypeFor[int]())
}

func TestRegistryLimit(t *testing.T) {
	reg := NewRegistry()
	for i := range MaxComponentTypes {
		_, err := reg.register(fmt.Sprintf("c%d", i), typeOfArray(i))
		require.NoError(t, err)
	}
	_, err := Register[generated](reg, "overflow")
	require.ErrorIs(t, err, ErrTooManyComponentTypes)
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.register(fmt.Sprintf("c%d", i), typeOfArray(i))
			assert.NoError(t, err)
			reg.Metadata().NewKey()
		}()
	}
	wg.Wait()

	seen := map[ComponentID]bool{}
	for _, info := range reg.Components() {
		assert.False(t, seen[info.ID])
		seen[info.ID] = true
	}
	assert.Len(t, seen, 64)
	assert.Equal(t, 64, reg.Metadata().Issued())
}
