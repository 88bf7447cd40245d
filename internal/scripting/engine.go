package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/forgeecs/forge/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Hook names accepted in a forge.trigger{} definition.
const (
	hookAdded        = "on_added"
	hookRemoved      = "on_removed"
	hookModified     = "on_modified"
	hookUpdate       = "on_update"
	hookPreUpdate    = "on_pre_update"
	hookPostUpdate   = "on_post_update"
	hookSignal       = "on_signal"
	hookGlobalSignal = "on_global_signal"
)

var hookNames = []string{
	hookAdded, hookRemoved, hookModified, hookUpdate,
	hookPreUpdate, hookPostUpdate, hookSignal, hookGlobalSignal,
}

// Signal is the structured input Lua triggers receive through on_signal
// (entity scoped) and on_global_signal.
type Signal struct {
	Name  string
	Value float64
}

var signalType = reflect.TypeOf(Signal{})

// Instantiator creates detached entities from named templates.
type Instantiator interface {
	Instantiate(name string) (*ecs.Entity, error)
}

type triggerDef struct {
	name     string
	requires []ecs.ComponentID
	hooks    map[string]*lua.LFunction
}

// Engine wraps a single gopher-lua VM whose scripts define triggers. The VM is
// guarded by a mutex; trigger callbacks run on the frame goroutine.
type Engine struct {
	mu        sync.Mutex
	vm        *lua.LState
	log       *zap.Logger
	mgr       *ecs.EntityManager
	reg       *ecs.Registry
	templates Instantiator
	defs      []*triggerDef
	byName    map[string]*triggerDef
}

// NewEngine creates a Lua engine bound to mgr and loads every script in
// scriptsDir. A missing directory loads nothing. templates may be nil, in
// which case forge.spawn always fails.
func NewEngine(scriptsDir string, mgr *ecs.EntityManager, templates Instantiator, log *zap.Logger) (*Engine, error) {
	e := newEngine(mgr, templates, log)
	if err := e.loadDir(scriptsDir); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	e.log.Info("lua scripts loaded", zap.String("dir", scriptsDir), zap.Int("triggers", len(e.defs)))
	return e, nil
}

func newEngine(mgr *ecs.EntityManager, templates Instantiator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		log:       log,
		mgr:       mgr,
		reg:       mgr.Registry(),
		templates: templates,
		byName:    make(map[string]*triggerDef),
	}
	e.openEntityType()
	e.openForge()
	return e
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		e.mu.Lock()
		err := e.vm.DoFile(path)
		e.mu.Unlock()
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Exec runs a chunk of Lua source in the engine's VM.
func (e *Engine) Exec(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.DoString(src)
}

// TriggerNames returns the defined triggers in definition order.
func (e *Engine) TriggerNames() []string {
	out := make([]string, len(e.defs))
	for i, d := range e.defs {
		out[i] = d.name
	}
	return out
}

// Triggers builds one ecs trigger per script definition, in definition order.
func (e *Engine) Triggers() []*ecs.TriggerFuncs {
	out := make([]*ecs.TriggerFuncs, 0, len(e.defs))
	for _, d := range e.defs {
		out = append(out, e.build(d))
	}
	return out
}

// Register adds every script trigger to the manager. Triggers take effect at
// the start of the next frame.
func (e *Engine) Register() ([]ecs.TriggerID, error) {
	ids := make([]ecs.TriggerID, 0, len(e.defs))
	for _, t := range e.Triggers() {
		id, err := e.mgr.AddTrigger(t)
		if err != nil {
			return ids, fmt.Errorf("register lua trigger %s: %w", t.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (e *Engine) build(d *triggerDef) *ecs.TriggerFuncs {
	t := &ecs.TriggerFuncs{Name: d.name, Requires: d.requires}
	entityHook := func(hook string) func(*ecs.Entity) {
		if _, ok := d.hooks[hook]; !ok {
			return nil
		}
		return func(ent *ecs.Entity) { e.call(d, hook, ent) }
	}
	globalHook := func(hook string) func() {
		if _, ok := d.hooks[hook]; !ok {
			return nil
		}
		return func() { e.call(d, hook, nil) }
	}

	t.Added = entityHook(hookAdded)
	t.Removed = entityHook(hookRemoved)
	t.Modified = entityHook(hookModified)
	t.Update = entityHook(hookUpdate)
	t.GlobalPreUpdate = globalHook(hookPreUpdate)
	t.GlobalPostUpdate = globalHook(hookPostUpdate)

	if _, ok := d.hooks[hookSignal]; ok {
		t.Input = signalType
		t.OnInput = func(in any, ent *ecs.Entity) {
			s := in.(Signal)
			e.call(d, hookSignal, ent, lua.LString(s.Name), lua.LNumber(s.Value))
		}
	}
	if _, ok := d.hooks[hookGlobalSignal]; ok {
		t.GlobalInput = signalType
		t.OnGlobalInput = func(in any) {
			s := in.(Signal)
			e.call(d, hookGlobalSignal, nil, lua.LString(s.Name), lua.LNumber(s.Value))
		}
	}
	return t
}

// call runs one hook, passing ent first when it is not nil. Script errors are
// logged and do not abort the frame.
func (e *Engine) call(d *triggerDef, hook string, ent *ecs.Entity, args ...lua.LValue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent != nil {
		args = append([]lua.LValue{e.wrap(ent)}, args...)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      d.hooks[hook],
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua trigger error",
			zap.String("trigger", d.name),
			zap.String("hook", hook),
			zap.Error(err),
		)
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
