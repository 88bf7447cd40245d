package ecs

import (
	"strconv"

	"github.com/forgeecs/forge/internal/core/collection"
	"github.com/rotisserie/eris"
)

// Template is a named bundle of default component values. Entities
// instantiated from it get their own clones of the defaults and keep a shared
// reference to the template.
type Template struct {
	id       int
	name     string
	reg      *Registry
	defaults collection.SparseArray[Data]
}

func NewTemplate(reg *Registry, id int, name string) *Template {
	return &Template{id: id, name: name, reg: reg}
}

func (t *Template) ID() int      { return t.id }
func (t *Template) Name() string { return t.name }

func (t *Template) String() string {
	if t.name != "" {
		return "Template(" + strconv.Itoa(t.id) + ", " + t.name + ")"
	}
	return "Template(" + strconv.Itoa(t.id) + ")"
}

// AddDefault adds d as the default value for its component type.
func (t *Template) AddDefault(d Data) error {
	id, err := t.reg.IDOfValue(d)
	if err != nil {
		return eris.Wrapf(err, "add default to %s", t)
	}
	if t.defaults.Contains(int(id)) {
		return eris.Wrapf(ErrComponentExists, "%s already has a default %s", t, id)
	}
	t.defaults.Set(int(id), d)
	return nil
}

func (t *Template) RemoveDefault(id ComponentID) bool {
	return t.defaults.Remove(int(id))
}

func (t *Template) Contains(id ComponentID) bool {
	return t.defaults.Contains(int(id))
}

// Default returns the template's own instance; callers must not modify it.
func (t *Template) Default(id ComponentID) (Data, error) {
	d, ok := t.defaults.TryGet(int(id))
	if !ok {
		return nil, eris.Wrapf(ErrNoSuchComponent, "%s on %s", id, t)
	}
	return d, nil
}

// Components lists the component ids that have defaults, in ascending order.
func (t *Template) Components() []ComponentID {
	out := make([]ComponentID, 0, t.defaults.Len())
	t.defaults.Each(func(i int, _ Data) {
		out = append(out, ComponentID(i))
	})
	return out
}

// Instantiate creates a detached entity holding clones of every default.
func (t *Template) Instantiate() *Entity {
	e := NewEntity(t.reg)
	e.template = t
	t.defaults.Each(func(i int, d Data) {
		info, _ := t.reg.Info(ComponentID(i))
		e.slots.Set(i, newSlot(info, d.Clone()))
		e.committed.set(ComponentID(i))
	})
	return e
}
