package ecs

import "reflect"

// Trigger is a callback bundle driven by an EntityManager. Every trigger
// declares the component types an entity must hold to be cached for it; an
// empty set matches every entity. The optional capability interfaces below
// select which phases the trigger takes part in.
type Trigger interface {
	ComputeEntityFilter() []ComponentID
}

// LifecycleTrigger is told when an entity enters or leaves its cache.
type LifecycleTrigger interface {
	OnAdded(e *Entity)
	OnRemoved(e *Entity)
}

// ModifiedTrigger is told when a cached entity had a relevant component modified.
type ModifiedTrigger interface {
	OnModified(e *Entity)
}

// UpdateTrigger runs once per frame for every cached entity.
type UpdateTrigger interface {
	OnUpdate(e *Entity)
}

type GlobalPreUpdateTrigger interface {
	OnGlobalPreUpdate()
}

type GlobalPostUpdateTrigger interface {
	OnGlobalPostUpdate()
}

// InputTrigger receives entity-scoped structured input of InputType for
// entities in its cache.
type InputTrigger interface {
	InputType() reflect.Type
	OnInput(in any, e *Entity)
}

// GlobalInputTrigger receives unscoped structured input of GlobalInputType.
type GlobalInputTrigger interface {
	GlobalInputType() reflect.Type
	OnGlobalInput(in any)
}

// TriggerFuncs builds a trigger from plain functions. Nil callbacks are
// skipped.
type TriggerFuncs struct {
	Name     string
	Requires []ComponentID

	Added            func(e *Entity)
	Removed          func(e *Entity)
	Modified         func(e *Entity)
	Update           func(e *Entity)
	GlobalPreUpdate  func()
	GlobalPostUpdate func()

	Input         reflect.Type
	OnInput       func(in any, e *Entity)
	GlobalInput   reflect.Type
	OnGlobalInput func(in any)
}

func (t *TriggerFuncs) ComputeEntityFilter() []ComponentID { return t.Requires }

func (t *TriggerFuncs) String() string { return t.Name }

// dispatch is the per-cache callback table, fixed at registration.
type dispatch struct {
	added      func(*Entity)
	removed    func(*Entity)
	modified   func(*Entity)
	update     func(*Entity)
	globalPre  func()
	globalPost func()

	inputType       reflect.Type
	input           func(any, *Entity)
	globalInputType reflect.Type
	globalInput     func(any)
}

func newDispatch(t Trigger) dispatch {
	if f, ok := t.(*TriggerFuncs); ok {
		d := dispatch{
			added:      f.Added,
			removed:    f.Removed,
			modified:   f.Modified,
			update:     f.Update,
			globalPre:  f.GlobalPreUpdate,
			globalPost: f.GlobalPostUpdate,
		}
		if f.Input != nil && f.OnInput != nil {
			d.inputType, d.input = f.Input, f.OnInput
		}
		if f.GlobalInput != nil && f.OnGlobalInput != nil {
			d.globalInputType, d.globalInput = f.GlobalInput, f.OnGlobalInput
		}
		return d
	}

	var d dispatch
	if lt, ok := t.(LifecycleTrigger); ok {
		d.added = lt.OnAdded
		d.removed = lt.OnRemoved
	}
	if mt, ok := t.(ModifiedTrigger); ok {
		d.modified = mt.OnModified
	}
	if ut, ok := t.(UpdateTrigger); ok {
		d.update = ut.OnUpdate
	}
	if gt, ok := t.(GlobalPreUpdateTrigger); ok {
		d.globalPre = gt.OnGlobalPreUpdate
	}
	if gt, ok := t.(GlobalPostUpdateTrigger); ok {
		d.globalPost = gt.OnGlobalPostUpdate
	}
	if it, ok := t.(InputTrigger); ok && it.InputType() != nil {
		d.inputType = it.InputType()
		d.input = it.OnInput
	}
	if gt, ok := t.(GlobalInputTrigger); ok && gt.GlobalInputType() != nil {
		d.globalInputType = gt.GlobalInputType()
		d.globalInput = gt.OnGlobalInput
	}
	return d
}
