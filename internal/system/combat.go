package system

import (
	"reflect"

	"github.com/forgeecs/forge/internal/component"
	"github.com/forgeecs/forge/internal/core/ecs"
	"go.uber.org/zap"
)

// Damage is entity-scoped input. A negative Amount heals.
type Damage struct {
	Amount int
	Source string
}

var damageType = reflect.TypeOf(Damage{})

// CombatTrigger applies Damage to the target's health. Several hits on one
// entity in a frame are summed when health resolves.
type CombatTrigger struct {
	health ecs.ComponentID
	log    *zap.Logger
}

func NewCombatTrigger(ids component.IDs, log *zap.Logger) *CombatTrigger {
	return &CombatTrigger{health: ids.Health, log: log}
}

func (t *CombatTrigger) ComputeEntityFilter() []ecs.ComponentID {
	return []ecs.ComponentID{t.health}
}

func (t *CombatTrigger) InputType() reflect.Type { return damageType }

func (t *CombatTrigger) OnInput(in any, e *ecs.Entity) {
	d := in.(Damage)
	h, err := ecs.Modify[*component.Health](e)
	if err != nil {
		t.log.Warn("damage dropped", zap.Stringer("entity", e), zap.Error(err))
		return
	}
	h.Apply(-d.Amount)
	t.log.Debug("damage",
		zap.Stringer("entity", e),
		zap.Int("amount", d.Amount),
		zap.String("source", d.Source),
	)
}
