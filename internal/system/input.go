package system

import (
	"time"

	"github.com/forgeecs/forge/internal/core/ecs"
	coresys "github.com/forgeecs/forge/internal/core/system"
	"go.uber.org/zap"
)

type queuedInput struct {
	target  *ecs.Entity
	payload any
}

// InputSystem moves structured input from producers on other goroutines onto
// the manager's input bus, at most maxPerTick per tick. Phase 0 (Input).
type InputSystem struct {
	mgr        *ecs.EntityManager
	queue      chan queuedInput
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(mgr *ecs.EntityManager, capacity, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		mgr:        mgr,
		queue:      make(chan queuedInput, capacity),
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Submit queues a global input. It returns false when the queue is full.
func (s *InputSystem) Submit(in any) bool {
	return s.push(queuedInput{payload: in})
}

// SubmitTo queues an input scoped to e.
func (s *InputSystem) SubmitTo(e *ecs.Entity, in any) bool {
	return s.push(queuedInput{target: e, payload: in})
}

func (s *InputSystem) push(q queuedInput) bool {
	select {
	case s.queue <- q:
		return true
	default:
		return false
	}
}

// Pending returns the number of inputs not yet handed to the manager.
func (s *InputSystem) Pending() int { return len(s.queue) }

func (s *InputSystem) Update(_ time.Duration) {
	n := 0
	for n < s.maxPerTick {
		select {
		case q := <-s.queue:
			if q.target != nil {
				s.mgr.SubmitEntityInput(q.target, q.payload)
			} else {
				s.mgr.SubmitInput(q.payload)
			}
			n++
		default:
			goto done
		}
	}
done:
	if n > 0 {
		s.log.Debug("inputs forwarded", zap.Int("count", n), zap.Int("pending", len(s.queue)))
	}
}
