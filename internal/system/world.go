package system

import (
	"time"

	"github.com/forgeecs/forge/internal/core/ecs"
	coresys "github.com/forgeecs/forge/internal/core/system"
	"go.uber.org/zap"
)

// WorldSystem advances the entity manager one frame per tick. Phase 1 (World).
type WorldSystem struct {
	mgr *ecs.EntityManager
	log *zap.Logger
}

func NewWorldSystem(mgr *ecs.EntityManager, log *zap.Logger) *WorldSystem {
	return &WorldSystem{mgr: mgr, log: log}
}

func (s *WorldSystem) Phase() coresys.Phase { return coresys.PhaseWorld }

func (s *WorldSystem) Update(dt time.Duration) {
	if err := s.mgr.Step(dt); err != nil {
		s.log.Error("frame failed", zap.Uint64("frame", s.mgr.Frame()), zap.Error(err))
	}
}
