package system

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	name  string
	phase Phase
	out   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.out = append(*r.out, r.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var out []string
	r := NewRunner(zaptest.NewLogger(t))
	r.Register(recorder{"report", PhaseReport, &out})
	r.Register(recorder{"world-a", PhaseWorld, &out})
	r.Register(recorder{"input", PhaseInput, &out})
	r.Register(recorder{"world-b", PhaseWorld, &out})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input", "world-a", "world-b", "report"}, out)
	assert.Equal(t, uint64(1), r.Ticks())

	out = nil
	r.TickPhase(PhaseWorld, time.Millisecond)
	assert.Equal(t, []string{"world-a", "world-b"}, out)
}

func TestRunnerRunStopsAtMaxTicks(t *testing.T) {
	var out []string
	r := NewRunner(zaptest.NewLogger(t))
	r.Register(recorder{"w", PhaseWorld, &out})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx, time.Millisecond, 3))
	assert.Len(t, out, 3)
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	r := NewRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx, time.Hour, 0))
	assert.Equal(t, uint64(0), r.Ticks())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "world", PhaseWorld.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
