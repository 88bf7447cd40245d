package system

import (
	"errors"
	"testing"

	"github.com/forgeecs/forge/internal/component"
	"github.com/forgeecs/forge/internal/core/ecs"
	coresys "github.com/forgeecs/forge/internal/core/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type templateMap map[string]*ecs.Template

func (m templateMap) Instantiate(name string) (*ecs.Entity, error) {
	t, ok := m[name]
	if !ok {
		return nil, errors.New("unknown template " + name)
	}
	return t.Instantiate(), nil
}

type world struct {
	ids      component.IDs
	mgr      *ecs.EntityManager
	builtins *Builtins
	input    *InputSystem
	report   *ReportSystem
	runner   *coresys.Runner
}

func newWorld(t *testing.T, log *zap.Logger) *world {
	t.Helper()
	reg := ecs.NewRegistry()
	ids, err := component.Register(reg)
	require.NoError(t, err)

	orc := ecs.NewTemplate(reg, 1, "orc")
	require.NoError(t, orc.AddDefault(&component.Position{}))
	require.NoError(t, orc.AddDefault(&component.Velocity{DX: 1}))
	require.NoError(t, orc.AddDefault(&component.Health{Current: 10, Max: 10}))

	mgr := ecs.NewEntityManager(reg, log)
	b, err := Install(mgr, ids, templateMap{"orc": orc}, log)
	require.NoError(t, err)

	w := &world{
		ids:      ids,
		mgr:      mgr,
		builtins: b,
		input:    NewInputSystem(mgr, 16, 16, log),
		report:   NewReportSystem(mgr, 2, log),
		runner:   coresys.NewRunner(log),
	}
	w.runner.Register(w.report)
	w.runner.Register(NewWorldSystem(mgr, log))
	w.runner.Register(w.input)
	return w
}

func (w *world) tick(n int) {
	for i := 0; i < n; i++ {
		w.runner.Tick(0)
	}
}

func TestSpawnMoveFightAndCleanup(t *testing.T) {
	w := newWorld(t, zaptest.NewLogger(t))
	w.tick(1)

	require.True(t, w.input.Submit(SpawnRequest{Template: "orc", Count: 2}))
	w.tick(2)
	require.Equal(t, 2, w.mgr.Len())
	assert.Equal(t, 2, w.builtins.Spawn.Spawned())

	ents := w.mgr.Entities()
	victim, survivor := ents[0], ents[1]
	p, err := ecs.Get[*component.Position](survivor)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.X)

	require.True(t, w.input.SubmitTo(victim, Damage{Amount: 6, Source: "a"}))
	require.True(t, w.input.SubmitTo(victim, Damage{Amount: 6, Source: "b"}))
	w.tick(1)
	h, err := ecs.Get[*component.Health](victim)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Current)
	assert.Equal(t, 2, w.mgr.Len())

	w.tick(2)
	assert.Equal(t, 1, w.mgr.Len())
	assert.Equal(t, 1, w.builtins.Cleanup.Removed())
	assert.Same(t, survivor, w.mgr.Entities()[0])

	p, _ = ecs.Get[*component.Position](survivor)
	assert.Equal(t, 4.0, p.X)
	h, _ = ecs.Get[*component.Health](survivor)
	assert.Equal(t, 10, h.Current)

	totals := w.report.Totals()
	assert.Equal(t, uint64(6), totals.Frames)
	assert.Equal(t, 2, totals.Added)
	assert.Equal(t, 1, totals.Removed)
	assert.Equal(t, 3, totals.Inputs)
}

func TestHealingDoesNotTriggerCleanup(t *testing.T) {
	w := newWorld(t, zaptest.NewLogger(t))
	w.tick(1)
	es, err := w.builtins.Spawn.Spawn("orc", 1)
	require.NoError(t, err)
	w.tick(1)

	e := es[0]
	w.input.SubmitTo(e, Damage{Amount: 4})
	w.tick(1)
	w.input.SubmitTo(e, Damage{Amount: -2})
	w.tick(3)

	h, err := ecs.Get[*component.Health](e)
	require.NoError(t, err)
	assert.Equal(t, 8, h.Current)
	assert.Equal(t, 1, w.mgr.Len())
	assert.Zero(t, w.builtins.Cleanup.Removed())
}

func TestSpawnUnknownTemplate(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := newWorld(t, zap.New(core))
	w.tick(1)

	_, err := w.builtins.Spawn.Spawn("dragon", 3)
	require.Error(t, err)

	w.input.Submit(SpawnRequest{Template: "dragon"})
	w.tick(2)
	assert.Zero(t, w.mgr.Len())
	assert.Equal(t, 1, logs.FilterMessage("spawn failed").Len())
}

func TestInputSystemLimits(t *testing.T) {
	reg := ecs.NewRegistry()
	mgr := ecs.NewEntityManager(reg, zaptest.NewLogger(t))
	s := NewInputSystem(mgr, 2, 1, zaptest.NewLogger(t))

	assert.True(t, s.Submit(SpawnRequest{}))
	assert.True(t, s.Submit(SpawnRequest{}))
	assert.False(t, s.Submit(SpawnRequest{}))
	assert.Equal(t, coresys.PhaseInput, s.Phase())

	s.Update(0)
	assert.Equal(t, 1, s.Pending())
	s.Update(0)
	assert.Zero(t, s.Pending())
}

func TestWorldSystemLogsFrameErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core)
	reg := ecs.NewRegistry()
	mgr := ecs.NewEntityManager(reg, log)
	ws := NewWorldSystem(mgr, log)

	_, err := mgr.AddTrigger(&ecs.TriggerFuncs{
		Name:            "nested",
		GlobalPreUpdate: func() { ws.Update(0) },
	})
	require.NoError(t, err)

	ws.Update(0)
	assert.Equal(t, uint64(1), mgr.Frame())
	entries := logs.FilterMessage("frame failed").All()
	require.Len(t, entries, 1)
}

func TestMovementSkipsStationary(t *testing.T) {
	reg := ecs.NewRegistry()
	ids, err := component.Register(reg)
	require.NoError(t, err)
	mgr := ecs.NewEntityManager(reg, zaptest.NewLogger(t))
	_, err = mgr.AddTrigger(NewMovementTrigger(ids))
	require.NoError(t, err)

	e := ecs.NewEntity(reg)
	require.NoError(t, e.AddComponent(&component.Position{X: 2}))
	require.NoError(t, e.AddComponent(&component.Velocity{}))
	require.NoError(t, mgr.AddEntity(e))
	require.NoError(t, mgr.UpdateWorld())
	require.NoError(t, mgr.UpdateWorld())

	assert.False(t, e.WasModified(ids.Position))
	p, _ := ecs.Get[*component.Position](e)
	assert.Equal(t, 2.0, p.X)
}
