package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput  Phase = iota // 0: feed structured input for the coming frame
	PhaseWorld               // 1: advance the entity manager one frame
	PhaseReport              // 2: stats and housekeeping after the frame
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseWorld:
		return "world"
	case PhaseReport:
		return "report"
	}
	return "unknown"
}

// System is anything the Runner ticks.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
