package ecs

import (
	"sync"

	"github.com/forgeecs/forge/internal/core/collection"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

type entityState uint8

const (
	stateDetached      entityState = iota // not yet handed to a manager
	statePendingAdd                       // queued, becomes live at the next add commit
	stateLive                             // visible to trigger caches
	statePendingRemove                    // queued, leaves caches at the next remove commit
	stateRemoved                          // terminal
)

func (s entityState) String() string {
	switch s {
	case stateDetached:
		return "detached"
	case statePendingAdd:
		return "pending-add"
	case stateLive:
		return "live"
	case statePendingRemove:
		return "pending-remove"
	case stateRemoved:
		return "removed"
	}
	return "unknown"
}

// slot is one component on one entity.
type slot struct {
	versioned  bool
	concurrent bool

	current  Data
	previous Data // versioned only
	pending  Data // versioned only: write buffer for the open window

	committed bool // visible to readers and filters
	staged    Data // value installed at the next add commit
	removing  bool // removal staged for the next add commit
}

func newSlot(info ComponentInfo, d Data) *slot {
	s := &slot{
		versioned:  info.Versioned,
		concurrent: info.Concurrent,
		current:    d,
		committed:  true,
	}
	if s.versioned {
		s.previous = d.Clone()
	}
	return s
}

// install replaces the slot's value with a freshly committed one.
func (s *slot) install(d Data) {
	s.current = d
	s.pending = nil
	s.committed = true
	s.staged = nil
	s.removing = false
	if s.versioned {
		s.previous = d.Clone()
	}
}

// Entity is an addressable bag of components. All methods are safe for
// concurrent use; structural changes on a live entity are staged until the
// owning manager's next add commit.
type Entity struct {
	id       uuid.UUID
	reg      *Registry
	template *Template

	mu           sync.Mutex
	slots        collection.SparseArray[*slot]
	committed    mask
	modified     mask // flagged since the frame that will dispatch them started
	lastModified mask // set dispatched by the most recent frame
	written      mask // unpublished writes
	state        entityState
	manager      *EntityManager

	// Concurrent components already resolved in frame resolvedFrame.
	resolved      mask
	resolvedFrame uint64

	queuedStructural bool
	queuedModified   bool
	queuedWrites     bool

	// Touched only by trigger caches during the commit phases.
	meta collection.MetadataContainer[int]
}

// NewEntity creates a detached entity with no components.
func NewEntity(reg *Registry) *Entity {
	return &Entity{
		id:  uuid.New(),
		reg: reg,
	}
}

func (e *Entity) ID() uuid.UUID { return e.id }

// Template returns the template e was instantiated from, or nil.
func (e *Entity) Template() *Template { return e.template }

func (e *Entity) Registry() *Registry { return e.reg }

// Metadata is the arena trigger caches use to store e's list positions.
func (e *Entity) Metadata() *collection.MetadataContainer[int] { return &e.meta }

func (e *Entity) String() string {
	if e.template != nil {
		return "Entity(" + e.id.String() + ", " + e.template.Name() + ")"
	}
	return "Entity(" + e.id.String() + ")"
}

// AddComponent attaches d. On a live entity the component becomes visible at
// the manager's next add commit.
func (e *Entity) AddComponent(d Data) error {
	id, err := e.reg.IDOfValue(d)
	if err != nil {
		return eris.Wrapf(err, "add component to %s", e)
	}
	info, _ := e.reg.Info(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateRemoved:
		return eris.Wrapf(ErrEntityRemoved, "add %s to %s", info, e)
	case stateDetached, statePendingAdd:
		if e.slots.Contains(int(id)) {
			return eris.Wrapf(ErrComponentExists, "add %s to %s", info, e)
		}
		e.slots.Set(int(id), newSlot(info, d))
		e.committed.set(id)
		return nil
	}

	s, ok := e.slots.TryGet(int(id))
	if ok && (s.staged != nil || (s.committed && !s.removing)) {
		return eris.Wrapf(ErrComponentExists, "add %s to %s", info, e)
	}
	if !ok {
		s = &slot{versioned: info.Versioned, concurrent: info.Concurrent}
		e.slots.Set(int(id), s)
	}
	s.staged = d
	e.queueStructuralLocked()
	return nil
}

// RemoveComponent detaches the component. On a live entity the removal is
// visible at the manager's next add commit.
func (e *Entity) RemoveComponent(id ComponentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateRemoved:
		return eris.Wrapf(ErrEntityRemoved, "remove %s from %s", id, e)
	case stateDetached, statePendingAdd:
		if !e.slots.Remove(int(id)) {
			return eris.Wrapf(ErrNoSuchComponent, "remove %s from %s", id, e)
		}
		e.committed.unset(id)
		e.modified.unset(id)
		e.written.unset(id)
		return nil
	}

	s, ok := e.slots.TryGet(int(id))
	if !ok {
		return eris.Wrapf(ErrNoSuchComponent, "remove %s from %s", id, e)
	}
	if s.staged != nil {
		s.staged = nil
		if !s.committed {
			e.slots.Remove(int(id))
		}
		return nil
	}
	if !s.committed || s.removing {
		return eris.Wrapf(ErrNoSuchComponent, "remove %s from %s", id, e)
	}
	s.removing = true
	e.queueStructuralLocked()
	return nil
}

// Has reports whether the component is part of e's committed set.
func (e *Entity) Has(id ComponentID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed.has(id)
}

// Components lists the committed component ids in ascending order.
func (e *Entity) Components() []ComponentID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed.ids()
}

// Current returns the published value of the component.
func (e *Entity) Current(id ComponentID) (Data, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.committedSlotLocked(id)
	if err != nil {
		return nil, err
	}
	return s.current, nil
}

// Previous returns the value from before the most recently published writes.
func (e *Entity) Previous(id ComponentID) (Data, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.committedSlotLocked(id)
	if err != nil {
		return nil, err
	}
	if !s.versioned {
		return nil, eris.Wrapf(ErrNotVersioned, "previous %s on %s", id, e)
	}
	return s.previous, nil
}

// Modify flags the component as modified and returns the instance to write.
//
// Before e goes live the current value is returned and the write becomes part
// of the initial state; concurrent components are resolved when e goes live.
// Afterwards, versioned components hand out a write
// buffer that is published by the manager; other components are written in
// place.
func (e *Entity) Modify(id ComponentID) (Data, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateRemoved {
		return nil, eris.Wrapf(ErrEntityRemoved, "modify %s on %s", id, e)
	}
	s, err := e.committedSlotLocked(id)
	if err != nil {
		return nil, err
	}
	if e.state == stateDetached || e.state == statePendingAdd {
		if s.concurrent {
			e.written.set(id)
		}
		return s.current, nil
	}

	out := s.current
	if s.versioned {
		if !e.written.has(id) {
			if s.pending == nil {
				s.pending = s.current.Clone()
			} else {
				s.pending.(Versioned).CopyFrom(s.current)
			}
		}
		out = s.pending
	}
	if s.versioned || s.concurrent {
		e.written.set(id)
		if !e.queuedWrites {
			e.queuedWrites = true
			e.manager.queueWrites(e)
		}
	}
	e.modified.set(id)
	if !e.queuedModified {
		e.queuedModified = true
		e.manager.queueModified(e)
	}
	return out, nil
}

// WasModified reports whether id was part of the modifications dispatched by
// the most recent frame.
func (e *Entity) WasModified(id ComponentID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastModified.has(id)
}

func (e *Entity) committedSlotLocked(id ComponentID) (*slot, error) {
	s, ok := e.slots.TryGet(int(id))
	if !ok || !s.committed {
		return nil, eris.Wrapf(ErrNoSuchComponent, "%s on %s", id, e)
	}
	return s, nil
}

func (e *Entity) queueStructuralLocked() {
	if !e.queuedStructural {
		e.queuedStructural = true
		e.manager.queueStructural(e)
	}
}

func (e *Entity) isLive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateLive
}

func (e *Entity) committedMask() mask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed
}

// attach moves a detached entity into m's add queue.
func (e *Entity) attach(m *EntityManager) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case stateDetached:
	case stateRemoved:
		return eris.Wrapf(ErrEntityRemoved, "add %s", e)
	default:
		return eris.Wrapf(ErrEntityAlreadyAdded, "%s is %s", e, e.state)
	}
	e.state = statePendingAdd
	e.manager = m
	m.queueAdd(e)
	return nil
}

// detach moves e into m's remove queue.
func (e *Entity) detach(m *EntityManager) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.manager != m && e.state != stateDetached {
		return eris.Wrapf(ErrEntityNotAdded, "%s belongs to another manager", e)
	}
	switch e.state {
	case stateDetached:
		return eris.Wrapf(ErrEntityNotAdded, "remove %s", e)
	case statePendingRemove, stateRemoved:
		return eris.Wrapf(ErrEntityAlreadyRemoved, "remove %s", e)
	}
	e.state = statePendingRemove
	m.queueRemove(e)
	return nil
}

// commitAdd makes a queued entity live during frame. Writes made before this
// point are folded into the initial state, resolving the concurrent
// components that were written.
func (e *Entity) commitAdd(frame uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != statePendingAdd {
		return false
	}
	e.resolved = mask{}
	e.resolvedFrame = frame
	for _, id := range e.written.ids() {
		if s, ok := e.slots.TryGet(int(id)); ok && s.concurrent {
			s.current.(Concurrent).ResolveConcurrentModifications()
			e.resolved.set(id)
		}
	}
	e.slots.Each(func(_ int, s *slot) {
		if s.versioned {
			s.previous.(Versioned).CopyFrom(s.current)
		}
	})
	e.modified = mask{}
	e.written = mask{}
	e.state = stateLive
	return true
}

// applyStaged commits staged structural changes and reports whether the
// committed set changed.
func (e *Entity) applyStaged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queuedStructural = false

	before := e.committed
	var drop []int
	e.slots.Each(func(i int, s *slot) {
		id := ComponentID(i)
		switch {
		case s.staged != nil:
			s.install(s.staged)
			e.committed.set(id)
			e.modified.unset(id)
			e.written.unset(id)
		case s.removing:
			drop = append(drop, i)
		}
	})
	for _, i := range drop {
		e.slots.Remove(i)
		e.committed.unset(ComponentID(i))
		e.modified.unset(ComponentID(i))
		e.written.unset(ComponentID(i))
	}
	return before != e.committed
}

// takeModified returns the modified set and starts a fresh one.
func (e *Entity) takeModified() mask {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.modified
	e.modified = mask{}
	e.lastModified = m
	e.queuedModified = false
	return m
}

// publish resolves concurrent writes and rotates versioned components. The
// entity lock keeps every reader and writer out while it runs. It returns the
// number of components published.
//
// A concurrent component is resolved at most once per frame. When closing
// the frame, writes to a component that was already resolved at its start
// stay pending and carry reports that e must be published again next frame.
func (e *Entity) publish(frame uint64, closing bool) (n int, carry bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queuedWrites = false
	if e.state == stateRemoved {
		e.written = mask{}
		return 0, false
	}
	if e.resolvedFrame != frame {
		e.resolved = mask{}
		e.resolvedFrame = frame
	}

	var carried mask
	for _, id := range e.written.ids() {
		s, ok := e.slots.TryGet(int(id))
		if !ok || !s.committed {
			continue
		}
		if s.concurrent {
			if closing && e.resolved.has(id) {
				carried.set(id)
				continue
			}
			e.resolved.set(id)
			target := s.current
			if s.versioned {
				target = s.pending
			}
			target.(Concurrent).ResolveConcurrentModifications()
		}
		if s.versioned {
			s.previous.(Versioned).CopyFrom(s.current)
			s.current, s.pending = s.pending, s.current
		}
		n++
	}
	e.written = carried
	e.queuedWrites = !carried.empty()
	return n, e.queuedWrites
}

func (e *Entity) markRemoved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = stateRemoved
	e.queuedStructural = false
	e.queuedModified = false
	e.modified = mask{}
}
