package ecs

import (
	"reflect"
	"sync"

	"github.com/forgeecs/forge/internal/core/collection"
	"github.com/rotisserie/eris"
)

// Registry assigns component ids and issues metadata keys for trigger caches.
// Build one at startup and pass it to everything that needs component ids.
type Registry struct {
	mu        sync.RWMutex
	infos     []ComponentInfo
	factories []func() Data
	byType    map[reflect.Type]ComponentID
	byName    map[string]ComponentID
	meta      *collection.MetadataRegistry
}

func NewRegistry() *Registry {
	return &Registry{
		infos:     make([]ComponentInfo, 0, 16),
		factories: make([]func() Data, 0, 16),
		byType:    make(map[reflect.Type]ComponentID, 16),
		byName:    make(map[string]ComponentID, 16),
		meta:      collection.NewMetadataRegistry(),
	}
}

// Register adds component type T under name.
func Register[T Data](r *Registry, name string) (ComponentID, error) {
	return r.register(name, reflect.TypeFor[T]())
}

// MustRegister is Register for setup code; it panics on error.
func MustRegister[T Data](r *Registry, name string) ComponentID {
	id, err := Register[T](r, name)
	if err != nil {
		panic(err)
	}
	return id
}

// IDOf returns the id assigned to T.
func IDOf[T Data](r *Registry) (ComponentID, error) {
	return r.idOf(reflect.TypeFor[T]())
}

func MustIDOf[T Data](r *Registry) ComponentID {
	id, err := IDOf[T](r)
	if err != nil {
		panic(err)
	}
	return id
}

func (r *Registry) register(name string, typ reflect.Type) (ComponentID, error) {
	if typ.Kind() == reflect.Interface {
		return 0, eris.Wrapf(ErrUnregisteredComponent, "%s is an interface type", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byType[typ]; ok {
		return id, eris.Wrapf(ErrComponentRegistered, "type %s as %s", typ, r.infos[id])
	}
	if id, ok := r.byName[name]; ok {
		return id, eris.Wrapf(ErrComponentRegistered, "name %q as %s", name, r.infos[id])
	}
	if len(r.infos) >= MaxComponentTypes {
		return 0, eris.Wrapf(ErrTooManyComponentTypes, "registering %q", name)
	}

	id := ComponentID(len(r.infos))
	r.infos = append(r.infos, ComponentInfo{
		ID:         id,
		Name:       name,
		Type:       typ,
		Versioned:  typ.Implements(versionedType),
		Concurrent: typ.Implements(concurrentType),
	})
	r.factories = append(r.factories, factoryFor(typ))
	r.byType[typ] = id
	r.byName[name] = id
	return id, nil
}

func factoryFor(typ reflect.Type) func() Data {
	if typ.Kind() == reflect.Pointer {
		elem := typ.Elem()
		return func() Data { return reflect.New(elem).Interface().(Data) }
	}
	return func() Data { return reflect.Zero(typ).Interface().(Data) }
}

func (r *Registry) idOf(typ reflect.Type) (ComponentID, error) {
	r.mu.RLock()
	id, ok := r.byType[typ]
	r.mu.RUnlock()
	if !ok {
		return 0, eris.Wrapf(ErrUnregisteredComponent, "type %s", typ)
	}
	return id, nil
}

// IDOfValue returns the id for the dynamic type of d.
func (r *Registry) IDOfValue(d Data) (ComponentID, error) {
	if d == nil {
		return 0, eris.Wrap(ErrNilComponent, "lookup")
	}
	return r.idOf(reflect.TypeOf(d))
}

func (r *Registry) ByName(name string) (ComponentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

func (r *Registry) Info(id ComponentID) (ComponentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.infos) {
		return ComponentInfo{}, false
	}
	return r.infos[id], true
}

// New returns a fresh zero instance of the component type.
func (r *Registry) New(id ComponentID) (Data, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.factories) {
		return nil, eris.Wrapf(ErrUnregisteredComponent, "%s", id)
	}
	return r.factories[id](), nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.infos)
}

// Components lists every registered type in id order.
func (r *Registry) Components() []ComponentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ComponentInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

// Metadata returns the key registry shared by the trigger caches of every
// manager built on r.
func (r *Registry) Metadata() *collection.MetadataRegistry {
	return r.meta
}

func (r *Registry) isRegistered(id ComponentID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(id) < len(r.infos)
}
