package system

import (
	"reflect"

	"github.com/forgeecs/forge/internal/core/ecs"
	"go.uber.org/zap"
)

// Templates creates detached entities from named templates.
type Templates interface {
	Instantiate(name string) (*ecs.Entity, error)
}

// SpawnRequest is global input asking for Count entities of a template.
// Count below one spawns one.
type SpawnRequest struct {
	Template string
	Count    int
}

var spawnRequestType = reflect.TypeOf(SpawnRequest{})

// SpawnTrigger instantiates templates on request. Spawned entities go live at
// the next frame's add commit.
type SpawnTrigger struct {
	mgr       *ecs.EntityManager
	templates Templates
	spawned   int
	log       *zap.Logger
}

func NewSpawnTrigger(mgr *ecs.EntityManager, templates Templates, log *zap.Logger) *SpawnTrigger {
	return &SpawnTrigger{mgr: mgr, templates: templates, log: log}
}

// ComputeEntityFilter is empty; the trigger only takes global input.
func (t *SpawnTrigger) ComputeEntityFilter() []ecs.ComponentID { return nil }

func (t *SpawnTrigger) GlobalInputType() reflect.Type { return spawnRequestType }

func (t *SpawnTrigger) OnGlobalInput(in any) {
	req := in.(SpawnRequest)
	if _, err := t.Spawn(req.Template, req.Count); err != nil {
		t.log.Warn("spawn failed", zap.String("template", req.Template), zap.Error(err))
	}
}

// Spawn instantiates count entities of the named template and queues them.
func (t *SpawnTrigger) Spawn(name string, count int) ([]*ecs.Entity, error) {
	count = max(count, 1)
	out := make([]*ecs.Entity, 0, count)
	for i := 0; i < count; i++ {
		e, err := t.templates.Instantiate(name)
		if err != nil {
			return out, err
		}
		if err := t.mgr.AddEntity(e); err != nil {
			return out, err
		}
		out = append(out, e)
	}
	t.spawned += len(out)
	t.log.Debug("spawned", zap.String("template", name), zap.Int("count", len(out)))
	return out, nil
}

// Spawned returns how many entities this trigger has queued.
func (t *SpawnTrigger) Spawned() int { return t.spawned }
