package system

import (
	"errors"

	"github.com/forgeecs/forge/internal/component"
	"github.com/forgeecs/forge/internal/core/ecs"
	"go.uber.org/zap"
)

// CleanupTrigger removes entities whose health reaches zero. It reacts to the
// modification dispatch, so an entity dies one frame after the killing blow
// is published and leaves the world the frame after that.
type CleanupTrigger struct {
	mgr     *ecs.EntityManager
	health  ecs.ComponentID
	removed int
	log     *zap.Logger
}

func NewCleanupTrigger(mgr *ecs.EntityManager, ids component.IDs, log *zap.Logger) *CleanupTrigger {
	return &CleanupTrigger{mgr: mgr, health: ids.Health, log: log}
}

func (t *CleanupTrigger) ComputeEntityFilter() []ecs.ComponentID {
	return []ecs.ComponentID{t.health}
}

func (t *CleanupTrigger) OnModified(e *ecs.Entity) {
	h, err := ecs.Get[*component.Health](e)
	if err != nil || !h.Dead() {
		return
	}
	if err := t.mgr.RemoveEntity(e); err != nil {
		if !errors.Is(err, ecs.ErrEntityAlreadyRemoved) {
			t.log.Warn("remove dead entity", zap.Stringer("entity", e), zap.Error(err))
		}
		return
	}
	t.removed++
	t.log.Debug("entity died", zap.Stringer("entity", e))
}

// Removed returns how many entities this trigger has removed.
func (t *CleanupTrigger) Removed() int { return t.removed }
