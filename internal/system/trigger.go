package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/core/event"
	coresys "github.com/l1jgo/rpgcore/internal/core/system"
	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/movement"
	"github.com/l1jgo/rpgcore/internal/state"
	"github.com/l1jgo/rpgcore/internal/world"
)

// EventTrigger moves the events of the active map, resolves collisions and
// calls the event handlers. Phase 2 (Update).
type EventTrigger struct {
	world   *world.State
	scripts *ScriptQueue
	bus     *event.Bus
	log     *zap.Logger

	frozen     bool
	actionDown bool
	// last seen change counter of the global state, -1 before the first frame
	lastGlobalChange int
}

func NewEventTrigger(ws *world.State, scripts *ScriptQueue, bus *event.Bus, log *zap.Logger) *EventTrigger {
	return &EventTrigger{
		world:            ws,
		scripts:          scripts,
		bus:              bus,
		log:              log,
		lastGlobalChange: -1,
	}
}

func (t *EventTrigger) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (t *EventTrigger) Update(dt time.Duration) {
	m := t.world.Current()
	if m == nil {
		return
	}
	t.Compute(m, dt.Seconds(), t.actionDown || movement.ActionPressed(t.world.Input()))
}

// SetActionKey holds the action key down independently of the key state,
// for hosts without a keyboard.
func (t *EventTrigger) SetActionKey(down bool) { t.actionDown = down }

// SetFrozen pauses or resumes all movement. Freezing tells every movement
// handler of the active map to drop held state.
func (t *EventTrigger) SetFrozen(frozen bool) {
	if frozen && !t.frozen {
		if m := t.world.Current(); m != nil {
			for _, ev := range m.Events() {
				ev.Handler().Freeze()
			}
		}
	}
	t.frozen = frozen
}

func (t *EventTrigger) Frozen() bool { return t.frozen }

// --- movement.Trigger ---

func (t *EventTrigger) PostScript(desc, script, fn string, params ...any) {
	t.scripts.Post(desc, script, fn, params...)
}

func (t *EventTrigger) ScriptQueueEmpty() bool { return t.scripts.Empty() }

func (t *EventTrigger) World() movement.World { return t.world }

// --- scripting.Host ---

func (t *EventTrigger) GlobalState() *state.ObjectState { return t.world.Global }

// FindEvent looks on the active map first, then in the global registry.
func (t *EventTrigger) FindEvent(name string) *entity.EventObject {
	if m := t.world.Current(); m != nil {
		if ev := m.Event(name); ev != nil {
			return ev
		}
	}
	return t.world.GlobalEvent(name)
}

// Keys is the host key state of the world.
func (t *EventTrigger) Keys() *movement.KeyState { return t.world.Keys() }

// ChangeMap requests a map transition at the end of the next frame.
func (t *EventTrigger) ChangeMap(path string) {
	t.log.Info("請求切換地圖", zap.String("map", path))
	event.Emit(t.bus, event.MapChangeRequested{Path: path})
}

// FireCustom calls the custom trigger hook of the event with id on the
// active map and reports whether it consumed the trigger.
func (t *EventTrigger) FireCustom(id, triggerID int) bool {
	m := t.world.Current()
	if m == nil {
		return false
	}
	ev := m.EventByID(id)
	if ev == nil || ev.EventHandler() == nil {
		return false
	}
	if !ev.EventHandler().OnCustomTrigger(triggerID) {
		return false
	}
	t.log.Debug("自訂觸發", zap.Int("event", id), zap.Int("trigger", triggerID))
	event.Emit(t.bus, event.CustomEventFired{EventID: id, TriggerID: triggerID})
	return true
}

// Compute runs one frame on m: moves, collisions, commits and callbacks.
func (t *EventTrigger) Compute(m *world.Map, dt float64, actionDown bool) {
	events := m.Events()
	polys := m.Polygons()

	for _, ev := range events {
		ev.ResetCollisions()
		if !t.frozen {
			ev.Handler().TryMove(ev, dt, t)
		}
	}
	if !t.frozen {
		for i, a := range events {
			if !a.Moving() {
				continue
			}
			for j, b := range events {
				if j <= i && b.Moving() {
					continue
				}
				if a == b {
					continue
				}
				if a.Intersects(b) {
					touch(a, b)
					if a.Blocking.Blocks(b.Blocking) && !(a.IsPlayer() && b.IsPlayer()) {
						resolve(a, b)
					}
				} else {
					untouch(a, b)
				}
			}
			if a.Moving() {
				collidePolygons(a, polys)
				a.CommitMove()
			}
		}
	}
	t.dispatch(m, events, polys, dt, actionDown)
}

// touch books the touch and push relations of an intersecting pair.
func touch(a, b *entity.EventObject) {
	if h := b.EventHandler(); h != nil && a.ConsumesEvent {
		if b.Touchable {
			a.AddCollision(h)
		}
		if b.Pushable {
			a.AddReachable(h)
		}
	}
	if h := a.EventHandler(); h != nil && b.ConsumesEvent {
		if a.Touchable {
			b.AddCollision(h)
		}
		if a.Pushable {
			b.AddReachable(h)
		}
	}
}

// untouch drops the relations of a pair that no longer intersects.
func untouch(a, b *entity.EventObject) {
	if h := b.EventHandler(); h != nil && a.ConsumesEvent {
		if b.Touchable {
			a.RemoveJustTouching(h)
		}
		if b.Pushable && !a.Reaches(b) {
			a.RemoveReachable(h)
		}
	}
	if h := a.EventHandler(); h != nil && b.ConsumesEvent {
		if a.Touchable {
			b.RemoveJustTouching(h)
		}
		if a.Pushable && !b.Reaches(a) {
			b.RemoveReachable(h)
		}
	}
}

// resolve settles a blocking pair. a stops; if b is moving and the two
// still overlap, b is rolled back instead and a checked again.
func resolve(a, b *entity.EventObject) {
	if !a.Moving() {
		// another event blocked a already
		block(b)
		return
	}
	a.HoldMove()
	if b.Moving() && a.Intersects(b) {
		a.ResumeMove()
		block(b)
		if a.Intersects(b) {
			block(a)
		}
		return
	}
	block(a)
}

func block(ev *entity.EventObject) {
	ev.CancelMove()
	ev.Handler().MoveBlocked(ev)
}

func collidePolygons(a *entity.EventObject, polys []*entity.PolygonObject) {
	for _, p := range polys {
		if !a.Moving() {
			return
		}
		if p.Touchable && a.ConsumesEvent {
			h := p.EventHandler()
			if a.IntersectsPolygon(p) {
				if h != nil {
					a.AddCollision(h)
				}
				if p.Blocking.Blocks(a.Blocking) {
					block(a)
				}
			} else if h != nil {
				a.RemoveJustTouching(h)
			}
		} else if p.Blocking.Blocks(a.Blocking) && a.IntersectsPolygon(p) {
			block(a)
		}
	}
}

// dispatch calls the handlers. A callback returning true ends the pass.
func (t *EventTrigger) dispatch(m *world.Map, events []*entity.EventObject, polys []*entity.PolygonObject, dt float64, actionDown bool) {
	global := t.world.Global
	globalChange := false
	if c := global.ChangeCount(); c != t.lastGlobalChange {
		t.lastGlobalChange = c
		globalChange = true
	}

	for _, ev := range events {
		if m.Disposed() {
			return
		}
		if h := ev.EventHandler(); h != nil {
			if h.OnTimer(dt) {
				return
			}
			if globalChange {
				h.OnStateChange(global)
			}
		}
		if !ev.ConsumesEvent {
			continue
		}
		for _, h := range ev.Collisions() {
			if ev.IsJustTouching(h) {
				continue
			}
			if h.OnTouch(ev) {
				ev.AddJustTouching(h)
				return
			}
		}
		if actionDown {
			for _, h := range ev.Reachable() {
				if h.OnPush(ev) {
					return
				}
			}
		}
	}
	for _, p := range polys {
		h := p.EventHandler()
		if h == nil {
			continue
		}
		if h.OnTimer(dt) {
			return
		}
		if globalChange {
			h.OnStateChange(global)
		}
	}
}
