package system

import (
	"github.com/forgeecs/forge/internal/component"
	"github.com/forgeecs/forge/internal/core/ecs"
)

// MovementTrigger integrates velocity into position once per frame.
type MovementTrigger struct {
	ids component.IDs
}

func NewMovementTrigger(ids component.IDs) *MovementTrigger {
	return &MovementTrigger{ids: ids}
}

func (t *MovementTrigger) ComputeEntityFilter() []ecs.ComponentID {
	return []ecs.ComponentID{t.ids.Position, t.ids.Velocity}
}

func (t *MovementTrigger) OnUpdate(e *ecs.Entity) {
	v, err := ecs.Get[*component.Velocity](e)
	if err != nil || (v.DX == 0 && v.DY == 0) {
		return
	}
	p, err := ecs.Modify[*component.Position](e)
	if err != nil {
		return
	}
	p.X += v.DX
	p.Y += v.DY
}
