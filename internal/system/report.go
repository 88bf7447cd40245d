package system

import (
	"time"

	"github.com/forgeecs/forge/internal/core/ecs"
	coresys "github.com/forgeecs/forge/internal/core/system"
	"go.uber.org/zap"
)

// Totals accumulates frame statistics across ticks.
type Totals struct {
	Frames   uint64
	Added    int
	Removed  int
	Modified int
	Inputs   int
	Updates  int
	Busy     time.Duration
}

// ReportSystem folds each frame's stats into running totals and logs a
// summary every `every` ticks. Phase 2 (Report).
type ReportSystem struct {
	mgr    *ecs.EntityManager
	every  uint64
	totals Totals
	log    *zap.Logger
}

func NewReportSystem(mgr *ecs.EntityManager, every uint64, log *zap.Logger) *ReportSystem {
	return &ReportSystem{mgr: mgr, every: every, log: log}
}

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *ReportSystem) Update(_ time.Duration) {
	st := s.mgr.LastFrame()
	if s.mgr.Frame() == s.totals.Frames {
		return
	}
	s.totals.Frames = s.mgr.Frame()
	s.totals.Added += st.Added
	s.totals.Removed += st.Removed
	s.totals.Modified += st.Modified
	s.totals.Inputs += st.Inputs
	s.totals.Updates += st.Updates
	s.totals.Busy += st.Duration

	if s.every == 0 || s.totals.Frames%s.every != 0 {
		return
	}
	s.log.Info("world report",
		zap.Uint64("frame", st.Frame),
		zap.Int("live", s.mgr.Len()),
		zap.Int("added", s.totals.Added),
		zap.Int("removed", s.totals.Removed),
		zap.Int("modified", s.totals.Modified),
		zap.Int("inputs", s.totals.Inputs),
		zap.Int("updates", s.totals.Updates),
		zap.Duration("busy", s.totals.Busy),
	)
}

// Totals returns the running totals.
func (s *ReportSystem) Totals() Totals { return s.totals }
