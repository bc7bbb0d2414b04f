package entity

import (
	"fmt"

	"github.com/l1jgo/rpgcore/internal/movement"
)

// Unassigned marks an event that has not been put on a map yet.
const Unassigned = -1

// DefaultOutreach is how far an event reaches for push interactions.
const DefaultOutreach = 10

// EventObject is a map entity: a movable body plus identity, collision
// classification, scripted callbacks and the visual state scripts may change.
type EventObject struct {
	movement.Body

	ID   int
	Name string
	Type EventType
	Z    float64

	Blocking      BlockingBehavior
	Visible       bool
	Pushable      bool
	Touchable     bool
	ConsumesEvent bool
	// ReactOnGlobalChange is set when the event has onStateChange hooks.
	ReactOnGlobalChange bool
	Outreach            float64

	rotation       float64
	ScaleX, ScaleY float64
	offX, offY     float64
	color          movement.Color
	Anim           *Animation

	// Properties holds the $-prefixed custom properties verbatim.
	Properties map[string]string

	handler      EventHandler
	collision    []EventHandler
	justTouching []EventHandler
	reachable    []EventHandler
}

func New(name string, x, y, w, h float64) *EventObject {
	ev := &EventObject{
		ID:         Unassigned,
		Name:       name,
		Blocking:   BlockBuildingLow,
		Outreach:   DefaultOutreach,
		ScaleX:     1,
		ScaleY:     1,
		color:      movement.White,
		Properties: make(map[string]string),
	}
	ev.InitBody(x, y, w, h)
	return ev
}

func (e *EventObject) String() string {
	return fmt.Sprintf("event '%s' #%d", e.Name, e.ID)
}

func (e *EventObject) EventHandler() EventHandler { return e.handler }

func (e *EventObject) SetEventHandler(h EventHandler) { e.handler = h }

// IsGlobal reports whether the event outlives its map. Unnamed events are
// always local.
func (e *EventObject) IsGlobal() bool {
	return e.Name != "" && (e.Type == TypeGlobal || e.Type == TypePlayer)
}

func (e *EventObject) IsPlayer() bool { return e.Type == TypePlayer }

// Intersects compares touch bounds including pending moves.
func (e *EventObject) Intersects(o *EventObject) bool {
	return e.Body.Intersects(&o.Body)
}

// IntersectsPolygon tests the touch bound against every polygon segment.
func (e *EventObject) IntersectsPolygon(p *PolygonObject) bool {
	return p.IntersectsRect(e.SoftBounds())
}

// Reaches is Intersects with both bounds grown by Outreach.
func (e *EventObject) Reaches(o *EventObject) bool {
	a := e.SoftBounds()
	b := o.SoftBounds()
	r := e.Outreach
	return a.X < b.X+b.W+r && a.X+a.W+r > b.X &&
		a.Y < b.Y+b.H+r && a.Y+a.H+r > b.Y
}

// Init builds the move sequence and fires onLoad.
func (e *EventObject) Init() {
	e.Body.Init()
	if e.handler != nil {
		e.handler.Init()
		e.handler.OnLoad()
	}
}

// Dispose releases the handlers. The event must not be used afterwards.
func (e *EventObject) Dispose() {
	if e.handler != nil {
		e.handler.Dispose()
		e.handler = nil
	}
	if c, ok := e.Handler().(interface{ Clear() }); ok {
		c.Clear()
	}
	e.SetHandler(nil)
	e.Visible = false
	e.Pushable = false
	e.Touchable = false
	e.CancelMove()
	e.Anim = nil
	e.collision = nil
	e.justTouching = nil
	e.reachable = nil
}

// movement.Movable overrides so walking drives the animation.

func (e *EventObject) OfferMoveDir(dir movement.Direction, dt float64) float64 {
	d := e.Body.OfferMoveDir(dir, dt)
	if e.Anim != nil {
		dx, dy := e.PendingMove()
		e.Anim.MoveDir(dx, dy, dir, dt)
	}
	return d
}

func (e *EventObject) Stop() {
	if e.Anim != nil {
		e.Anim.Stop()
	}
}

func (e *EventObject) Offset() (float64, float64) { return e.offX, e.offY }
func (e *EventObject) SetOffset(x, y float64)     { e.offX, e.offY = x, y }
func (e *EventObject) SetVisible(v bool)          { e.Visible = v }
func (e *EventObject) Rotation() float64          { return e.rotation }
func (e *EventObject) SetRotation(deg float64)    { e.rotation = deg }
func (e *EventObject) Color() movement.Color      { return e.color }
func (e *EventObject) SetColor(c movement.Color)  { e.color = c }

// IsVisible satisfies movement.Shower.
func (e *EventObject) IsVisible() bool { return e.Visible }

// Animate plays one animation row. Events without animation finish at once.
func (e *EventObject) Animate(row int, dt float64) bool {
	if e.Anim == nil {
		return true
	}
	return e.Anim.Play(row, dt)
}

func (e *EventObject) AnimateMove(dx, dy, dt float64) {
	if e.Anim != nil {
		e.Anim.Move(dx, dy, dt)
	}
}

// LookAt turns the resting animation towards o.
func (e *EventObject) LookAt(o *EventObject) {
	if e.Anim != nil && e.Visible && o.Visible {
		e.Anim.Move(o.X()-e.X(), o.Y()-e.Y(), 0)
	}
}

// Collision bookkeeping, driven by the event trigger.

func (e *EventObject) Collisions() []EventHandler   { return e.collision }
func (e *EventObject) JustTouching() []EventHandler { return e.justTouching }
func (e *EventObject) Reachable() []EventHandler    { return e.reachable }

func (e *EventObject) AddCollision(h EventHandler) { e.collision = append(e.collision, h) }

func (e *EventObject) ResetCollisions() {
	clear(e.collision)
	e.collision = e.collision[:0]
}

func (e *EventObject) AddJustTouching(h EventHandler) {
	e.justTouching = append(e.justTouching, h)
}

func (e *EventObject) IsJustTouching(h EventHandler) bool { return contains(e.justTouching, h) }

func (e *EventObject) RemoveJustTouching(h EventHandler) {
	e.justTouching = remove(e.justTouching, h)
}

// AddReachable adds h unless it is already reachable.
func (e *EventObject) AddReachable(h EventHandler) {
	if !contains(e.reachable, h) {
		e.reachable = append(e.reachable, h)
	}
}

func (e *EventObject) RemoveReachable(h EventHandler) {
	e.reachable = remove(e.reachable, h)
}

// ClearCollision forgets all touch and push bookkeeping.
func (e *EventObject) ClearCollision() {
	e.ResetCollisions()
	e.justTouching = e.justTouching[:0]
	e.reachable = e.reachable[:0]
}

func contains(list []EventHandler, h EventHandler) bool {
	for _, x := range list {
		if x == h {
			return true
		}
	}
	return false
}

func remove(list []EventHandler, h EventHandler) []EventHandler {
	for i, x := range list {
		if x == h {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

var _ movement.Movable = (*EventObject)(nil)
var _ movement.Offsetter = (*EventObject)(nil)
var _ movement.Shower = (*EventObject)(nil)
var _ movement.Rotator = (*EventObject)(nil)
var _ movement.Tinter = (*EventObject)(nil)
var _ movement.Animator = (*EventObject)(nil)
