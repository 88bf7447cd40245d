package scripting

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/forgeecs/forge/internal/core/ecs"
	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const entityTypeName = "forge.entity"

func (e *Engine) openEntityType() {
	mt := e.vm.NewTypeMetatable(entityTypeName)
	e.vm.SetField(mt, "__index", e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"id":               e.entityID,
		"template":         e.entityTemplate,
		"has":              e.entityHas,
		"components":       e.entityComponents,
		"get":              e.entityGet,
		"prev":             e.entityPrev,
		"set":              e.entitySet,
		"invoke":           e.entityInvoke,
		"modified":         e.entityModified,
		"add":              e.entityAdd,
		"remove_component": e.entityRemoveComponent,
	}))
	e.vm.SetField(mt, "__tostring", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkEntity(L, 1).String()))
		return 1
	}))
}

func (e *Engine) openForge() {
	mod := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"trigger": e.forgeTrigger,
		"spawn":   e.forgeSpawn,
		"remove":  e.forgeRemove,
		"find":    e.forgeFind,
		"signal":  e.forgeSignal,
		"frame":   e.forgeFrame,
		"count":   e.forgeCount,
		"log":     e.forgeLog,
	})
	e.vm.SetGlobal("forge", mod)
}

func (e *Engine) wrap(ent *ecs.Entity) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ent
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *lua.LState, n int) *ecs.Entity {
	ud := L.CheckUserData(n)
	if ent, ok := ud.Value.(*ecs.Entity); ok {
		return ent
	}
	L.ArgError(n, "entity expected")
	return nil
}

func (e *Engine) checkComponent(L *lua.LState, n int) ecs.ComponentID {
	name := L.CheckString(n)
	id, ok := e.reg.ByName(name)
	if !ok {
		L.ArgError(n, "unknown component "+name)
	}
	return id
}

// --- forge module ---

// forge.trigger{name=..., requires={...}, on_update=function(e) end, ...}
func (e *Engine) forgeTrigger(L *lua.LState) int {
	tbl := L.CheckTable(1)
	name := lua.LVAsString(tbl.RawGetString("name"))
	if name == "" {
		L.ArgError(1, "trigger needs a name")
	}
	if _, dup := e.byName[name]; dup {
		L.ArgError(1, "duplicate trigger "+name)
	}

	d := &triggerDef{name: name, hooks: make(map[string]*lua.LFunction)}
	if req, ok := tbl.RawGetString("requires").(*lua.LTable); ok {
		req.ForEach(func(_, v lua.LValue) {
			comp := lua.LVAsString(v)
			id, ok := e.reg.ByName(comp)
			if !ok {
				L.ArgError(1, fmt.Sprintf("trigger %s requires unknown component %s", name, comp))
			}
			d.requires = append(d.requires, id)
		})
	}
	for _, hook := range hookNames {
		switch fn := tbl.RawGetString(hook).(type) {
		case *lua.LFunction:
			d.hooks[hook] = fn
		case *lua.LNilType:
		default:
			L.ArgError(1, fmt.Sprintf("trigger %s: %s must be a function", name, hook))
		}
	}

	e.defs = append(e.defs, d)
	e.byName[name] = d
	return 0
}

// forge.spawn(template) -> entity | nil, err
func (e *Engine) forgeSpawn(L *lua.LState) int {
	name := L.CheckString(1)
	if e.templates == nil {
		L.Push(lua.LNil)
		L.Push(lua.LString("no templates loaded"))
		return 2
	}
	ent, err := e.templates.Instantiate(name)
	if err == nil {
		err = e.mgr.AddEntity(ent)
	}
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(e.wrap(ent))
	return 1
}

// forge.remove(e) -> true | false, err
func (e *Engine) forgeRemove(L *lua.LState) int {
	if err := e.mgr.RemoveEntity(checkEntity(L, 1)); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// forge.find(id) -> entity | nil
func (e *Engine) forgeFind(L *lua.LState) int {
	id, err := uuid.Parse(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	if ent, ok := e.mgr.Entity(id); ok {
		L.Push(e.wrap(ent))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// forge.signal(name, value [, e]) queues a Signal for the next frame.
func (e *Engine) forgeSignal(L *lua.LState) int {
	s := Signal{Name: L.CheckString(1), Value: float64(L.OptNumber(2, 0))}
	if L.GetTop() >= 3 {
		e.mgr.SubmitEntityInput(checkEntity(L, 3), s)
		return 0
	}
	e.mgr.SubmitInput(s)
	return 0
}

func (e *Engine) forgeFrame(L *lua.LState) int {
	L.Push(lua.LNumber(e.mgr.Frame()))
	return 1
}

func (e *Engine) forgeCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.mgr.Len()))
	return 1
}

func (e *Engine) forgeLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)), zap.Uint64("frame", e.mgr.Frame()))
	return 0
}

// --- entity methods ---

func (e *Engine) entityID(L *lua.LState) int {
	L.Push(lua.LString(checkEntity(L, 1).ID().String()))
	return 1
}

func (e *Engine) entityTemplate(L *lua.LState) int {
	if t := checkEntity(L, 1).Template(); t != nil {
		L.Push(lua.LString(t.Name()))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func (e *Engine) entityHas(L *lua.LState) int {
	ent := checkEntity(L, 1)
	L.Push(lua.LBool(ent.Has(e.checkComponent(L, 2))))
	return 1
}

func (e *Engine) entityComponents(L *lua.LState) int {
	ent := checkEntity(L, 1)
	out := L.NewTable()
	for _, id := range ent.Components() {
		if info, ok := e.reg.Info(id); ok {
			out.Append(lua.LString(info.Name))
		}
	}
	L.Push(out)
	return 1
}

// e:get(component, field) reads the current value; nil when absent.
func (e *Engine) entityGet(L *lua.LState) int {
	ent := checkEntity(L, 1)
	d, err := ent.Current(e.checkComponent(L, 2))
	return pushField(L, d, err)
}

// e:prev(component, field) reads last frame's value of a versioned component.
func (e *Engine) entityPrev(L *lua.LState) int {
	ent := checkEntity(L, 1)
	d, err := ent.Previous(e.checkComponent(L, 2))
	return pushField(L, d, err)
}

func pushField(L *lua.LState, d ecs.Data, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	name := L.CheckString(3)
	f, ok := fieldByName(d, name)
	if !ok {
		L.ArgError(3, "no field "+name)
	}
	L.Push(toLua(f))
	return 1
}

// e:set(component, field, value) writes through Modify.
func (e *Engine) entitySet(L *lua.LState) int {
	ent := checkEntity(L, 1)
	d, err := ent.Modify(e.checkComponent(L, 2))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	if err := setField(d, L.CheckString(3), L.CheckAny(4)); err != nil {
		L.ArgError(3, err.Error())
	}
	return 0
}

// e:invoke(component, method, args...) calls an exported method on the
// writable copy and returns its results.
func (e *Engine) entityInvoke(L *lua.LState) int {
	ent := checkEntity(L, 1)
	d, err := ent.Modify(e.checkComponent(L, 2))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	name := L.CheckString(3)
	m := reflect.ValueOf(d).MethodByName(name)
	if !m.IsValid() {
		L.ArgError(3, "no method "+name)
	}
	mt := m.Type()
	if mt.IsVariadic() || L.GetTop()-3 != mt.NumIn() {
		L.ArgError(3, fmt.Sprintf("%s takes %d arguments", name, mt.NumIn()))
	}
	in := make([]reflect.Value, mt.NumIn())
	for i := range in {
		v, err := fromLua(L.Get(4+i), mt.In(i))
		if err != nil {
			L.ArgError(4+i, err.Error())
		}
		in[i] = v
	}
	out := m.Call(in)
	for _, v := range out {
		L.Push(toLua(v))
	}
	return len(out)
}

func (e *Engine) entityModified(L *lua.LState) int {
	ent := checkEntity(L, 1)
	L.Push(lua.LBool(ent.WasModified(e.checkComponent(L, 2))))
	return 1
}

// e:add(component [, fields]) adds a new component instance.
func (e *Engine) entityAdd(L *lua.LState) int {
	ent := checkEntity(L, 1)
	d, err := e.reg.New(e.checkComponent(L, 2))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	if fields := L.OptTable(3, nil); fields != nil {
		var ferr error
		fields.ForEach(func(k, v lua.LValue) {
			if ferr == nil {
				ferr = setField(d, lua.LVAsString(k), v)
			}
		})
		if ferr != nil {
			L.ArgError(3, ferr.Error())
		}
	}
	if err := ent.AddComponent(d); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) entityRemoveComponent(L *lua.LState) int {
	ent := checkEntity(L, 1)
	if err := ent.RemoveComponent(e.checkComponent(L, 2)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// --- reflection helpers ---

// fieldByName finds an exported struct field by its yaml tag, falling back to
// a case-insensitive match on the Go name.
func fieldByName(d ecs.Data, name string) (reflect.Value, bool) {
	v := reflect.ValueOf(d)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if tag == name || strings.EqualFold(f.Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func setField(d ecs.Data, name string, lv lua.LValue) error {
	f, ok := fieldByName(d, name)
	if !ok {
		return fmt.Errorf("no field %s", name)
	}
	v, err := fromLua(lv, f.Type())
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	f.Set(v)
	return nil
}

func toLua(v reflect.Value) lua.LValue {
	switch v.Kind() {
	case reflect.Bool:
		return lua.LBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(v.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(v.Float())
	case reflect.String:
		return lua.LString(v.String())
	}
	return lua.LNil
}

func fromLua(lv lua.LValue, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		out.SetBool(lua.LVAsBool(lv))
		return out, nil
	case reflect.String:
		s, ok := lv.(lua.LString)
		if !ok {
			return out, fmt.Errorf("want string, got %s", lv.Type())
		}
		out.SetString(string(s))
		return out, nil
	}

	n, ok := lv.(lua.LNumber)
	if !ok {
		return out, fmt.Errorf("want number, got %s", lv.Type())
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 {
			return out, fmt.Errorf("want unsigned, got %v", n)
		}
		out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		out.SetFloat(float64(n))
	default:
		return out, fmt.Errorf("unsupported type %s", t)
	}
	return out, nil
}
