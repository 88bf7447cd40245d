package system

import (
	"fmt"

	"github.com/forgeecs/forge/internal/component"
	"github.com/forgeecs/forge/internal/core/ecs"
	"go.uber.org/zap"
)

// Builtins are the Go triggers installed on every manager.
type Builtins struct {
	Movement *MovementTrigger
	Combat   *CombatTrigger
	Cleanup  *CleanupTrigger
	Spawn    *SpawnTrigger
}

// Install registers the built-in triggers with mgr. They take effect at the
// start of the next frame.
func Install(mgr *ecs.EntityManager, ids component.IDs, templates Templates, log *zap.Logger) (*Builtins, error) {
	b := &Builtins{
		Movement: NewMovementTrigger(ids),
		Combat:   NewCombatTrigger(ids, log),
		Cleanup:  NewCleanupTrigger(mgr, ids, log),
		Spawn:    NewSpawnTrigger(mgr, templates, log),
	}
	for _, t := range []ecs.Trigger{b.Movement, b.Combat, b.Cleanup, b.Spawn} {
		if _, err := mgr.AddTrigger(t); err != nil {
			return nil, fmt.Errorf("install %T: %w", t, err)
		}
	}
	return b, nil
}
