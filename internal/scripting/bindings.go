package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/geom"
	"github.com/l1jgo/rpgcore/internal/movement"
	"github.com/l1jgo/rpgcore/internal/state"
)

// Lua type names of the userdata handed to scripts.
const (
	typeEvent   = "EventObject"
	typeState   = "ObjectState"
	typePolygon = "Polygon"
	typeMover   = "MoveHandler"
)

func (e *Engine) registerTypes() {
	e.registerType(typeEvent, map[string]lua.LGFunction{
		"name":        evName,
		"id":          evID,
		"x":           evX,
		"y":           evY,
		"width":       evWidth,
		"height":      evHeight,
		"isPlayer":    evIsPlayer,
		"isGlobal":    evIsGlobal,
		"state":       e.evState,
		"property":    evProperty,
		"setProperty": evSetProperty,
		"visible":     evVisible,
		"setVisible":  evSetVisible,
		"blocking":    evBlocking,
		"setBlocking": evSetBlocking,
		"speed":       evSpeed,
		"setSpeed":    evSetSpeed,
		"rotation":    evRotation,
		"setRotation": evSetRotation,
		"tint":        evTint,
		"exec":        evExec,
		"addMove":     evAddMove,
		"setMove":     evSetMove,
		"jump":        evJump,
		"jumpTo":      evJumpTo,
		"sleep":       evSleep,
		"random":      evRandom,
		"polygon":     evPolygon,
		"moveTo":      evMoveTo,
		"lookAt":      evLookAt,
		"distanceTo":  evDistanceTo,
	})
	e.registerType(typeState, map[string]lua.LGFunction{
		"int":         stInt,
		"setInt":      stSetInt,
		"casInt":      stCasInt,
		"bool":        stBool,
		"setBool":     stSetBool,
		"float":       stFloat,
		"setFloat":    stSetFloat,
		"string":      stString,
		"setString":   stSetString,
		"child":       e.stChild,
		"changeCount": stChangeCount,
	})
	e.registerType(typePolygon, map[string]lua.LGFunction{
		"name":  polyName,
		"nodes": polyNodes,
		"node":  polyNode,
		"loop":  polyLoop,
	})
	e.registerType(typeMover, map[string]lua.LGFunction{
		"finished":  mvFinished,
		"reset":     mvReset,
		"setRewind": mvSetRewind,
	})
}

func (e *Engine) registerType(name string, methods map[string]lua.LGFunction) {
	mt := e.vm.NewTypeMetatable(name)
	e.vm.SetField(mt, "__index", e.vm.SetFuncs(e.vm.NewTable(), methods))
	e.vm.SetField(mt, "__eq", e.vm.NewFunction(udEqual))
	e.vm.SetField(mt, "__tostring", e.vm.NewFunction(udString))
}

func (e *Engine) registerGlobals() {
	e.vm.SetGlobal("log", e.vm.NewFunction(e.luaLog))
	e.vm.SetGlobal("globalState", e.vm.NewFunction(e.luaGlobalState))
	e.vm.SetGlobal("event", e.vm.NewFunction(e.luaEvent))
	e.vm.SetGlobal("changeMap", e.vm.NewFunction(e.luaChangeMap))
	e.vm.SetGlobal("fireCustom", e.vm.NewFunction(e.luaFireCustom))
	e.vm.SetGlobal("pressKey", e.vm.NewFunction(e.luaPressKey))
	e.vm.SetGlobal("releaseKey", e.vm.NewFunction(e.luaReleaseKey))
	e.vm.SetGlobal("keyDown", e.vm.NewFunction(e.luaKeyDown))
}

// --- conversion ---

func (e *Engine) newUD(v any, typ string) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = v
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(typ))
	return ud
}

// toLua converts a Go value handed to a script.
func (e *Engine) toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case *entity.EventObject:
		if x == nil {
			return lua.LNil
		}
		return e.newUD(x, typeEvent)
	case *entity.PolygonObject:
		if x == nil {
			return lua.LNil
		}
		return e.newUD(x.Polygon, typePolygon)
	case *geom.Polygon:
		if x == nil {
			return lua.LNil
		}
		return e.newUD(x, typePolygon)
	case *state.ObjectState:
		if x == nil {
			return lua.LNil
		}
		return e.newUD(x, typeState)
	case movement.Handler:
		return e.newUD(x, typeMover)
	}
	ud := e.vm.NewUserData()
	ud.Value = v
	return ud
}

func udEqual(L *lua.LState) int {
	a, _ := L.Get(1).(*lua.LUserData)
	b, _ := L.Get(2).(*lua.LUserData)
	L.Push(lua.LBool(a != nil && b != nil && a.Value == b.Value))
	return 1
}

func udString(L *lua.LState) int {
	ud := L.CheckUserData(1)
	switch v := ud.Value.(type) {
	case *entity.EventObject:
		L.Push(lua.LString(v.String()))
	case *geom.Polygon:
		L.Push(lua.LString(v.String()))
	default:
		L.Push(lua.LString(ud.Type().String()))
	}
	return 1
}

func checkEvent(L *lua.LState, n int) *entity.EventObject {
	ud := L.CheckUserData(n)
	if ev, ok := ud.Value.(*entity.EventObject); ok {
		return ev
	}
	L.ArgError(n, "EventObject expected")
	return nil
}

func checkState(L *lua.LState) *state.ObjectState {
	ud := L.CheckUserData(1)
	if st, ok := ud.Value.(*state.ObjectState); ok {
		return st
	}
	L.ArgError(1, "ObjectState expected")
	return nil
}

func checkPolygon(L *lua.LState) *geom.Polygon {
	ud := L.CheckUserData(1)
	if p, ok := ud.Value.(*geom.Polygon); ok {
		return p
	}
	L.ArgError(1, "Polygon expected")
	return nil
}

func checkMover(L *lua.LState) movement.Handler {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(movement.Handler); ok {
		return h
	}
	L.ArgError(1, "MoveHandler expected")
	return nil
}

// --- EventObject ---

func evName(L *lua.LState) int {
	L.Push(lua.LString(checkEvent(L, 1).Name))
	return 1
}

func evID(L *lua.LState) int {
	L.Push(lua.LNumber(checkEvent(L, 1).ID))
	return 1
}

func evX(L *lua.LState) int {
	L.Push(lua.LNumber(checkEvent(L, 1).X()))
	return 1
}

func evY(L *lua.LState) int {
	L.Push(lua.LNumber(checkEvent(L, 1).Y()))
	return 1
}

func evWidth(L *lua.LState) int {
	L.Push(lua.LNumber(checkEvent(L, 1).Width()))
	return 1
}

func evHeight(L *lua.LState) int {
	L.Push(lua.LNumber(checkEvent(L, 1).Height()))
	return 1
}

func evIsPlayer(L *lua.LState) int {
	L.Push(lua.LBool(checkEvent(L, 1).IsPlayer()))
	return 1
}

func evIsGlobal(L *lua.LState) int {
	L.Push(lua.LBool(checkEvent(L, 1).IsGlobal()))
	return 1
}

func (e *Engine) evState(L *lua.LState) int {
	ev := checkEvent(L, 1)
	if h := ev.EventHandler(); h != nil && h.State() != nil {
		L.Push(e.newUD(h.State(), typeState))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func evProperty(L *lua.LState) int {
	ev := checkEvent(L, 1)
	v, ok := ev.Properties[L.CheckString(2)]
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}

func evSetProperty(L *lua.LState) int {
	ev := checkEvent(L, 1)
	ev.Properties[L.CheckString(2)] = L.CheckString(3)
	return 0
}

func evVisible(L *lua.LState) int {
	L.Push(lua.LBool(checkEvent(L, 1).Visible))
	return 1
}

func evSetVisible(L *lua.LState) int {
	checkEvent(L, 1).SetVisible(L.ToBool(2))
	return 0
}

func evBlocking(L *lua.LState) int {
	L.Push(lua.LString(checkEvent(L, 1).Blocking.String()))
	return 1
}

func evSetBlocking(L *lua.LState) int {
	ev := checkEvent(L, 1)
	b, err := entity.ParseBlocking(L.CheckString(2))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	ev.Blocking = b
	return 0
}

func evSpeed(L *lua.LState) int {
	L.Push(lua.LString(checkEvent(L, 1).MoveSpeed().String()))
	return 1
}

func evSetSpeed(L *lua.LState) int {
	ev := checkEvent(L, 1)
	s, err := movement.ParseSpeed(L.CheckString(2))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	ev.SetMoveSpeed(s)
	return 0
}

func evRotation(L *lua.LState) int {
	L.Push(lua.LNumber(checkEvent(L, 1).Rotation()))
	return 1
}

func evSetRotation(L *lua.LState) int {
	checkEvent(L, 1).SetRotation(float64(L.CheckNumber(2)))
	return 0
}

func evTint(L *lua.LState) int {
	ev := checkEvent(L, 1)
	ev.SetColor(movement.Color{
		R: float64(L.CheckNumber(2)),
		G: float64(L.CheckNumber(3)),
		B: float64(L.CheckNumber(4)),
		A: float64(L.OptNumber(5, 1)),
	})
	return 0
}

// evExec interrupts the current movement with a handler expression such
// as "distance(10, E)".
func evExec(L *lua.LState) int {
	ev := checkEvent(L, 1)
	seg, err := movement.ParseSegment(L.CheckString(2))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	ev.ExecSegment(seg)
	return 0
}

// evSetMove replaces the movement handler, e.g. ev:setMove("keys(8)").
func evSetMove(L *lua.LState) int {
	ev := checkEvent(L, 1)
	seg, err := movement.ParseSegment(L.CheckString(2))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	ev.SetHandler(seg.Handler)
	return 0
}

// evAddMove appends to the authored move sequence, effective on Init.
func evAddMove(L *lua.LState) int {
	ev := checkEvent(L, 1)
	idx := L.CheckInt(2)
	seg, err := movement.ParseSegment(L.CheckString(3))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	ev.AddMoveSegment(idx, seg)
	return 0
}

func evJump(L *lua.LState) int {
	checkEvent(L, 1).Jump(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return 0
}

func evJumpTo(L *lua.LState) int {
	checkEvent(L, 1).JumpTo(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return 0
}

func evSleep(L *lua.LState) int {
	checkEvent(L, 1).Sleep(float64(L.CheckNumber(2)))
	return 0
}

func evRandom(L *lua.LState) int {
	ev := checkEvent(L, 1)
	if L.GetTop() >= 3 {
		ev.RandomFor(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)), L.OptInt(4, movement.DefaultSlackness))
		return 0
	}
	ev.Random()
	return 0
}

func evPolygon(L *lua.LState) int {
	checkEvent(L, 1).Polygon(L.CheckString(2), L.OptBool(3, false))
	return 0
}

func evMoveTo(L *lua.LState) int {
	checkEvent(L, 1).ForceMoveTo(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return 0
}

func evLookAt(L *lua.LState) int {
	checkEvent(L, 1).LookAt(checkEvent(L, 2))
	return 0
}

func evDistanceTo(L *lua.LState) int {
	ev := checkEvent(L, 1)
	L.Push(lua.LNumber(ev.ComputeDistance(checkEvent(L, 2))))
	return 1
}

// --- ObjectState ---

func stInt(L *lua.LState) int {
	L.Push(lua.LNumber(checkState(L).Int(L.CheckInt(2))))
	return 1
}

func stSetInt(L *lua.LState) int {
	checkState(L).SetInt(L.CheckInt(2), L.CheckInt(3))
	return 0
}

func stCasInt(L *lua.LState) int {
	st := checkState(L)
	L.Push(lua.LNumber(st.CompareAndSwapInt(L.CheckInt(2), L.CheckInt(3), L.CheckInt(4))))
	return 1
}

func stBool(L *lua.LState) int {
	L.Push(lua.LBool(checkState(L).Bool(L.CheckInt(2))))
	return 1
}

func stSetBool(L *lua.LState) int {
	checkState(L).SetBool(L.CheckInt(2), L.ToBool(3))
	return 0
}

func stFloat(L *lua.LState) int {
	L.Push(lua.LNumber(checkState(L).Float(L.CheckInt(2))))
	return 1
}

func stSetFloat(L *lua.LState) int {
	checkState(L).SetFloat(L.CheckInt(2), float64(L.CheckNumber(3)))
	return 0
}

func stString(L *lua.LState) int {
	L.Push(lua.LString(checkState(L).String(L.CheckInt(2))))
	return 1
}

func stSetString(L *lua.LState) int {
	checkState(L).SetString(L.CheckInt(2), L.OptString(3, ""))
	return 0
}

// stChild returns the child state, creating and storing it when missing so
// writes from the script persist.
func (e *Engine) stChild(L *lua.LState) int {
	st := checkState(L)
	i := L.CheckInt(2)
	if !st.HasChild(i) {
		st.SetChild(i, state.New())
	}
	L.Push(e.newUD(st.Child(i), typeState))
	return 1
}

func stChangeCount(L *lua.LState) int {
	L.Push(lua.LNumber(checkState(L).ChangeCount()))
	return 1
}

// --- Polygon ---

func polyName(L *lua.LState) int {
	L.Push(lua.LString(checkPolygon(L).Name))
	return 1
}

func polyNodes(L *lua.LState) int {
	L.Push(lua.LNumber(len(checkPolygon(L).Xs)))
	return 1
}

// polyNode returns the coordinates of node i, counted from 0.
func polyNode(L *lua.LState) int {
	p := checkPolygon(L)
	i := L.CheckInt(2)
	if i < 0 || i >= len(p.Xs) {
		L.ArgError(2, "node index out of range")
		return 0
	}
	L.Push(lua.LNumber(p.Xs[i]))
	L.Push(lua.LNumber(p.Ys[i]))
	return 2
}

func polyLoop(L *lua.LState) int {
	L.Push(lua.LBool(checkPolygon(L).Loop))
	return 1
}

// --- MoveHandler ---

func mvFinished(L *lua.LState) int {
	L.Push(lua.LBool(checkMover(L).Finished()))
	return 1
}

func mvReset(L *lua.LState) int {
	checkMover(L).Reset()
	return 0
}

func mvSetRewind(L *lua.LState) int {
	if p, ok := checkMover(L).(*movement.Polygon); ok {
		p.SetRewind(L.ToBool(2))
	}
	return 0
}

// --- globals ---

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func (e *Engine) luaGlobalState(L *lua.LState) int {
	if e.host == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.toLua(e.host.GlobalState()))
	return 1
}

func (e *Engine) luaEvent(L *lua.LState) int {
	if e.host == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.toLua(e.host.FindEvent(L.CheckString(1))))
	return 1
}

func (e *Engine) luaChangeMap(L *lua.LState) int {
	path := L.CheckString(1)
	if e.host == nil {
		L.RaiseError("changeMap(%q): no game bound", path)
		return 0
	}
	e.host.ChangeMap(path)
	return 0
}

func (e *Engine) luaFireCustom(L *lua.LState) int {
	if e.host == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(e.host.FireCustom(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func checkKey(L *lua.LState, n int) movement.Key {
	k, err := movement.ParseKey(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return k
}

func (e *Engine) luaPressKey(L *lua.LState) int {
	k := checkKey(L, 1)
	if e.host == nil {
		L.RaiseError("pressKey: no game bound")
		return 0
	}
	e.host.Keys().Press(k)
	return 0
}

func (e *Engine) luaReleaseKey(L *lua.LState) int {
	k := checkKey(L, 1)
	if e.host == nil {
		L.RaiseError("releaseKey: no game bound")
		return 0
	}
	e.host.Keys().Release(k)
	return 0
}

func (e *Engine) luaKeyDown(L *lua.LState) int {
	k := checkKey(L, 1)
	if e.host == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(e.host.Keys().Pressed(k)))
	return 1
}
