package component

import (
	"sync"

	"github.com/forgeecs/forge/internal/core/ecs"
)

// Position is versioned so movement code can diff against last frame.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p *Position) Clone() ecs.Data       { c := *p; return &c }
func (p *Position) CopyFrom(src ecs.Data) { *p = *src.(*Position) }

// Velocity is written in place.
type Velocity struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

func (v *Velocity) Clone() ecs.Data { c := *v; return &c }

// Label is a display name.
type Label struct {
	Name string `yaml:"name"`
}

func (l *Label) Clone() ecs.Data { c := *l; return &c }

// Health accepts damage and healing from several writers in one frame. The
// deltas are summed at resolution, so writer order does not matter.
type Health struct {
	Current int `yaml:"current"`
	Max     int `yaml:"max"`

	mu    sync.Mutex
	delta int
}

// Apply records a change; negative n is damage.
func (h *Health) Apply(n int) {
	h.mu.Lock()
	h.delta += n
	h.mu.Unlock()
}

func (h *Health) Dead() bool { return h.Current <= 0 }

func (h *Health) Clone() ecs.Data {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &Health{Current: h.Current, Max: h.Max, delta: h.delta}
}

func (h *Health) CopyFrom(src ecs.Data) {
	s := src.(*Health)
	h.Current, h.Max, h.delta = s.Current, s.Max, 0
}

func (h *Health) ResolveConcurrentModifications() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Current += h.delta
	h.delta = 0
	if h.Max > 0 && h.Current > h.Max {
		h.Current = h.Max
	}
	if h.Current < 0 {
		h.Current = 0
	}
}

// IDs holds the ids of the built-in components.
type IDs struct {
	Position ecs.ComponentID
	Velocity ecs.ComponentID
	Label    ecs.ComponentID
	Health   ecs.ComponentID
}

// Register adds the built-in components to reg under their YAML names.
func Register(reg *ecs.Registry) (IDs, error) {
	var ids IDs
	var err error
	if ids.Position, err = ecs.Register[*Position](reg, "position"); err != nil {
		return ids, err
	}
	if ids.Velocity, err = ecs.Register[*Velocity](reg, "velocity"); err != nil {
		return ids, err
	}
	if ids.Label, err = ecs.Register[*Label](reg, "label"); err != nil {
		return ids, err
	}
	if ids.Health, err = ecs.Register[*Health](reg, "health"); err != nil {
		return ids, err
	}
	return ids, nil
}
