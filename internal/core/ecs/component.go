package ecs

import (
	"reflect"
	"strconv"
)

// ComponentID is the dense index a Registry assigns to a component type. It is
// the sparse index used to store the component on an entity.
type ComponentID uint8

// MaxComponentTypes bounds a Registry; filters are fixed 256-bit masks.
const MaxComponentTypes = 256

func (id ComponentID) String() string { return "component#" + strconv.Itoa(int(id)) }

// Data is implemented by every component. Clone returns an independent deep
// copy; templates and versioned slots rely on it.
type Data interface {
	Clone() Data
}

// Versioned components keep the value from before the latest published
// writes. CopyFrom overwrites the receiver with src, which always has the
// receiver's concrete type.
type Versioned interface {
	Data
	CopyFrom(src Data)
}

// Concurrent components accept several writers within one frame.
// ResolveConcurrentModifications folds those writes into one value and must
// give the same result regardless of writer order. It is called once per
// written frame with no other reader or writer active.
type Concurrent interface {
	Data
	ResolveConcurrentModifications()
}

// ComponentInfo describes a registered component type.
type ComponentInfo struct {
	ID         ComponentID
	Name       string
	Type       reflect.Type
	Versioned  bool
	Concurrent bool
}

func (c ComponentInfo) String() string {
	return c.Name + "(" + strconv.Itoa(int(c.ID)) + ")"
}

var (
	versionedType  = reflect.TypeOf((*Versioned)(nil)).Elem()
	concurrentType = reflect.TypeOf((*Concurrent)(nil)).Elem()
)
