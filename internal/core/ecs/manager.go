package ecs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forgeecs/forge/internal/core/collection"
	"github.com/forgeecs/forge/internal/core/event"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TriggerID identifies a trigger registered with an EntityManager.
type TriggerID int

// FrameStats summarizes one UpdateWorld call.
type FrameStats struct {
	Frame     uint64
	Added     int
	Removed   int
	Modified  int
	Inputs    int
	Updates   int
	Published int
	Duration  time.Duration
}

type modifiedEntry struct {
	e       *Entity
	changed mask
}

// EntityManager owns the live entity set and the trigger caches, and advances
// them one frame at a time through UpdateWorld.
//
// Structural changes and component writes may be issued at any time, from any
// goroutine. Their effect on caches and callbacks is deferred to the commit
// phases of the next frame, so every callback of a phase sees one snapshot.
type EntityManager struct {
	reg *Registry
	log *zap.Logger

	writerLimit int

	// Mutated only by UpdateWorld.
	caches []*cache
	live   *collection.UnorderedList[*Entity]
	inputs *event.Bus[*Entity]

	updating atomic.Bool

	mu            sync.Mutex
	frame         uint64
	last          FrameStats
	triggers      []*cache
	pendingCaches []*cache
	byID          map[uuid.UUID]*Entity
	toAdd         []*Entity
	toRemove      []*Entity
	structural    []*Entity
	modified      []*Entity
	written       []*Entity
}

// Option configures an EntityManager.
type Option func(*EntityManager)

// WithWriterLimit caps how many RunWriters functions run at once. Zero means
// no limit.
func WithWriterLimit(n int) Option {
	return func(m *EntityManager) { m.writerLimit = n }
}

func NewEntityManager(reg *Registry, log *zap.Logger, opts ...Option) *EntityManager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &EntityManager{
		reg:    reg,
		log:    log,
		live:   collection.NewUnorderedList[*Entity](reg.Metadata().NewKey()),
		inputs: event.NewBus[*Entity](),
		byID:   make(map[uuid.UUID]*Entity, 256),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *EntityManager) Registry() *Registry { return m.reg }

// AddEntity queues e. It becomes live, and visible to triggers, at the next
// frame's add commit.
func (m *EntityManager) AddEntity(e *Entity) error {
	if e.reg != m.reg {
		return eris.Wrapf(ErrForeignRegistry, "add %s", e)
	}
	return e.attach(m)
}

// RemoveEntity queues e for removal at the next frame's remove commit.
func (m *EntityManager) RemoveEntity(e *Entity) error {
	return e.detach(m)
}

// AddTrigger registers t. Its cache is built against the live population at
// the start of the next frame.
func (m *EntityManager) AddTrigger(t Trigger) (TriggerID, error) {
	if t == nil {
		return 0, eris.Wrap(ErrNilTrigger, "add trigger")
	}
	ids := t.ComputeEntityFilter()
	for _, id := range ids {
		if !m.reg.isRegistered(id) {
			return 0, eris.Wrapf(ErrUnregisteredComponent, "trigger %T requires %s", t, id)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := TriggerID(len(m.triggers))
	c := newCache(id, t, NewFilter(ids...), m.reg.Metadata().NewKey())
	m.triggers = append(m.triggers, c)
	m.pendingCaches = append(m.pendingCaches, c)
	return id, nil
}

// CachedEntities returns a copy of the entities currently cached for trigger
// id. Like Entities, it must not race with UpdateWorld.
func (m *EntityManager) CachedEntities(id TriggerID) ([]*Entity, error) {
	m.mu.Lock()
	if int(id) < 0 || int(id) >= len(m.triggers) {
		m.mu.Unlock()
		return nil, eris.Wrapf(ErrUnknownTrigger, "trigger %d", id)
	}
	c := m.triggers[id]
	m.mu.Unlock()
	return append([]*Entity(nil), c.list.Items()...), nil
}

// Filter returns the filter built for trigger id.
func (m *EntityManager) Filter(id TriggerID) (Filter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(id) < 0 || int(id) >= len(m.triggers) {
		return Filter{}, eris.Wrapf(ErrUnknownTrigger, "trigger %d", id)
	}
	return m.triggers[id].filter, nil
}

// Entities returns a copy of the live entity set. Like Len, it must not race
// with UpdateWorld; call it between frames or from a callback.
func (m *EntityManager) Entities() []*Entity {
	return append([]*Entity(nil), m.live.Items()...)
}

// Len returns the number of live entities.
func (m *EntityManager) Len() int { return m.live.Len() }

// Entity looks up a queued or live entity by id.
func (m *EntityManager) Entity(id uuid.UUID) (*Entity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	return e, ok
}

// Frame returns the number of completed frames.
func (m *EntityManager) Frame() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

func (m *EntityManager) LastFrame() FrameStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// SubmitInput queues a global structured input for the next frame.
func (m *EntityManager) SubmitInput(in any) {
	m.inputs.Emit(in)
}

// SubmitEntityInput queues an input scoped to e for the next frame.
func (m *EntityManager) SubmitEntityInput(e *Entity, in any) {
	m.inputs.EmitTo(e, in)
}

// RunWriters runs fns concurrently and waits for all of them. Writers may call
// Modify on any entity; components that implement Concurrent are resolved
// once, after the writers finish, when the frame publishes its writes.
func (m *EntityManager) RunWriters(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if m.writerLimit > 0 {
		g.SetLimit(m.writerLimit)
	}
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "writer failed")
	}
	return nil
}

// Step adapts UpdateWorld to the frame runner.
func (m *EntityManager) Step(_ time.Duration) error {
	return m.UpdateWorld()
}

// UpdateWorld runs one frame:
//
//  1. publish writes issued since the last frame, activate new triggers,
//     commit staged component changes and queued entity adds
//  2. commit queued entity removals
//  3. dispatch modifications issued before this frame started
//  4. deliver structured input, then global pre-update
//  5. per-entity update
//  6. global post-update
//  7. resolve and publish writes issued during this frame; a concurrent
//     component already resolved in phase 1 is published next frame instead
//  8. close the frame; anything issued during 3-6 waits for the next one
//
// It returns ErrReentrantUpdate when a frame is already running.
func (m *EntityManager) UpdateWorld() error {
	if !m.updating.CompareAndSwap(false, true) {
		return eris.Wrapf(ErrReentrantUpdate, "frame %d", m.Frame())
	}
	defer m.updating.Store(false)

	start := time.Now()
	stats := FrameStats{Frame: m.Frame()}

	modified := m.takeModified()
	m.commitAdds(&stats)
	m.commitRemoves(&stats)
	m.dispatchModified(modified, &stats)
	m.preUpdate(&stats)
	m.update(&stats)
	m.postUpdate()
	stats.Published += m.publishWrites(stats.Frame, true)

	stats.Duration = time.Since(start)
	m.mu.Lock()
	m.frame++
	m.last = stats
	m.mu.Unlock()
	m.log.Debug("frame complete",
		zap.Uint64("frame", stats.Frame),
		zap.Int("live", m.live.Len()),
		zap.Int("added", stats.Added),
		zap.Int("removed", stats.Removed),
		zap.Int("modified", stats.Modified),
		zap.Int("inputs", stats.Inputs),
		zap.Int("updates", stats.Updates),
		zap.Int("published", stats.Published),
		zap.Duration("took", stats.Duration),
	)
	return nil
}

// takeModified snapshots the modifications issued before this frame. Anything
// flagged from here on belongs to the next frame.
func (m *EntityManager) takeModified() []modifiedEntry {
	m.mu.Lock()
	queued := m.modified
	m.modified = nil
	m.mu.Unlock()

	out := make([]modifiedEntry, 0, len(queued))
	for _, e := range queued {
		if changed := e.takeModified(); !changed.empty() {
			out = append(out, modifiedEntry{e: e, changed: changed})
		}
	}
	return out
}

// phase 1
func (m *EntityManager) commitAdds(stats *FrameStats) {
	stats.Published += m.publishWrites(stats.Frame, false)

	m.mu.Lock()
	activate := m.pendingCaches
	m.pendingCaches = nil
	structural := m.structural
	m.structural = nil
	adds := m.toAdd
	m.toAdd = nil
	m.mu.Unlock()

	for _, c := range activate {
		m.caches = append(m.caches, c)
		if c.d.inputType != nil {
			m.inputs.Subscribe(c.d.inputType, m.entityInputHandler(c))
		}
		if c.d.globalInputType != nil {
			m.inputs.Subscribe(c.d.globalInputType, m.globalInputHandler(c))
		}
		for _, e := range m.live.Items() {
			c.updateCache(e)
		}
	}

	for _, e := range structural {
		if !e.applyStaged() || !e.isLive() {
			continue
		}
		for _, c := range m.caches {
			c.updateCache(e)
		}
	}

	for _, e := range adds {
		if !e.commitAdd(stats.Frame) {
			continue
		}
		m.live.Add(e)
		m.mu.Lock()
		m.byID[e.id] = e
		m.mu.Unlock()
		for _, c := range m.caches {
			c.updateCache(e)
		}
		stats.Added++
	}
}

// phase 2
func (m *EntityManager) commitRemoves(stats *FrameStats) {
	m.mu.Lock()
	removes := m.toRemove
	m.toRemove = nil
	m.mu.Unlock()

	for _, e := range removes {
		if m.live.Contains(e) {
			for _, c := range m.caches {
				c.forceRemove(e)
			}
			m.live.Remove(e)
		}
		e.markRemoved()
		m.mu.Lock()
		delete(m.byID, e.id)
		m.mu.Unlock()
		stats.Removed++
	}
}

// phase 3
func (m *EntityManager) dispatchModified(modified []modifiedEntry, stats *FrameStats) {
	for _, me := range modified {
		if !me.e.isLive() {
			continue
		}
		stats.Modified++
		for _, c := range m.caches {
			if c.d.modified == nil || !c.filter.interested(me.changed) || !c.contains(me.e) {
				continue
			}
			c.d.modified(me.e)
		}
	}
}

// phase 4
func (m *EntityManager) preUpdate(stats *FrameStats) {
	m.inputs.SwapBuffers()
	stats.Inputs = m.inputs.DispatchAll()
	for _, c := range m.caches {
		if c.d.globalPre != nil {
			c.d.globalPre()
		}
	}
}

// phase 5
func (m *EntityManager) update(stats *FrameStats) {
	for _, c := range m.caches {
		if c.d.update == nil {
			continue
		}
		for _, e := range c.list.Items() {
			c.d.update(e)
			stats.Updates++
		}
	}
}

// phase 6
func (m *EntityManager) postUpdate() {
	for _, c := range m.caches {
		if c.d.globalPost != nil {
			c.d.globalPost()
		}
	}
}

// publishWrites resolves and rotates every entity written since the previous
// publication (phase 7, and the start of phase 1 for writes issued between
// frames). Entities with writes carried past closing are queued again.
func (m *EntityManager) publishWrites(frame uint64, closing bool) int {
	m.mu.Lock()
	written := m.written
	m.written = nil
	m.mu.Unlock()

	n := 0
	for _, e := range written {
		published, carry := e.publish(frame, closing)
		n += published
		if carry {
			m.queueWrites(e)
		}
	}
	return n
}

func (m *EntityManager) entityInputHandler(c *cache) func(event.Envelope[*Entity]) {
	return func(env event.Envelope[*Entity]) {
		if env.Scoped && c.contains(env.Target) {
			c.d.input(env.Payload, env.Target)
		}
	}
}

func (m *EntityManager) globalInputHandler(c *cache) func(event.Envelope[*Entity]) {
	return func(env event.Envelope[*Entity]) {
		if !env.Scoped {
			c.d.globalInput(env.Payload)
		}
	}
}

func (m *EntityManager) queueAdd(e *Entity) {
	m.mu.Lock()
	m.toAdd = append(m.toAdd, e)
	m.byID[e.id] = e
	m.mu.Unlock()
}

func (m *EntityManager) queueRemove(e *Entity) {
	m.mu.Lock()
	m.toRemove = append(m.toRemove, e)
	m.mu.Unlock()
}

func (m *EntityManager) queueStructural(e *Entity) {
	m.mu.Lock()
	m.structural = append(m.structural, e)
	m.mu.Unlock()
}

func (m *EntityManager) queueModified(e *Entity) {
	m.mu.Lock()
	m.modified = append(m.modified, e)
	m.mu.Unlock()
}

func (m *EntityManager) queueWrites(e *Entity) {
	m.mu.Lock()
	m.written = append(m.written, e)
	m.mu.Unlock()
}
