package system

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Runner executes systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64
	log     *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		systems: make([]System, 0, 8),
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. Systems of the same phase keep their
// registration order.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks returns the number of completed Tick calls.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Run ticks at a fixed rate until ctx is done or maxTicks ticks have run.
// maxTicks of zero means no limit. A tick that overruns the period delays the
// next one; ticks are never run concurrently.
func (r *Runner) Run(ctx context.Context, rate time.Duration, maxTicks uint64) error {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	r.log.Info("runner started", zap.Duration("rate", rate), zap.Int("systems", len(r.systems)))
	last := time.Now()
	for maxTicks == 0 || r.ticks < maxTicks {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped", zap.Uint64("ticks", r.ticks), zap.Error(ctx.Err()))
			return nil
		case now := <-ticker.C:
			r.Tick(now.Sub(last))
			last = now
		}
	}
	r.log.Info("runner finished", zap.Uint64("ticks", r.ticks))
	return nil
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
