package movement

import (
	"math"
	"sort"

	"github.com/l1jgo/rpgcore/internal/geom"
)

// Body is the plain Movable: a touch bound, a speed and the owned handler.
// Types embedding Body must pass themselves, not the Body, to the handler
// so their Stop and optional interfaces are seen.
type Body struct {
	bound geom.Rect
	soft  geom.Rect
	dx    float64
	dy    float64
	moves bool

	speed   Speed
	handler Handler

	sequence      map[int]*Segment
	moveLoop      bool
	resetPosition bool
}

func NewBody(x, y, w, h float64) *Body {
	b := &Body{}
	b.InitBody(x, y, w, h)
	return b
}

// InitBody sets up an embedded Body.
func (b *Body) InitBody(x, y, w, h float64) {
	b.bound = geom.Rect{X: x, Y: y, W: w, H: h}
	b.soft = b.bound
	b.handler = Idle()
}

func (b *Body) Bounds() geom.Rect { return b.bound }

// SoftBounds returns the bound after the pending move, or the committed
// bound when nothing is pending.
func (b *Body) SoftBounds() geom.Rect {
	if b.moves {
		return b.soft
	}
	return b.bound
}

func (b *Body) X() float64       { return b.bound.X }
func (b *Body) Y() float64       { return b.bound.Y }
func (b *Body) Width() float64   { return b.bound.W }
func (b *Body) Height() float64  { return b.bound.H }
func (b *Body) CenterX() float64 { return b.bound.CenterX() }
func (b *Body) CenterY() float64 { return b.bound.CenterY() }

// SetPosition moves the committed bound without the offer protocol. Used
// while building a map, never from a handler.
func (b *Body) SetPosition(x, y float64) {
	b.bound.X, b.bound.Y = x, y
	b.soft = b.bound
	b.moves = false
}

func (b *Body) SetSize(w, h float64) {
	b.bound.W, b.bound.H = w, h
	b.soft.W, b.soft.H = w, h
}

func (b *Body) MoveSpeed() Speed { return b.speed }

func (b *Body) SetMoveSpeed(s Speed) { b.speed = s }

func (b *Body) OfferMove(dx, dy float64) {
	b.dx, b.dy = dx, dy
	b.soft = b.bound.Translate(dx, dy)
	b.moves = true
}

func (b *Body) OfferMoveDir(dir Direction, dt float64) float64 {
	d := b.speed.Stretch(dt)
	dx, dy := dir.Scale(d)
	b.OfferMove(dx, dy)
	return d
}

func (b *Body) OfferMoveTo(x, y float64) {
	b.OfferMove(x-b.bound.X, y-b.bound.Y)
}

// PendingMove returns the staged displacement.
func (b *Body) PendingMove() (dx, dy float64) {
	if !b.moves {
		return 0, 0
	}
	return b.dx, b.dy
}

func (b *Body) CommitMove() bool {
	if !b.moves {
		return false
	}
	b.bound = b.soft
	b.dx, b.dy = 0, 0
	b.moves = false
	return true
}

// MustCommit is CommitMove for callers that know an offer is pending.
func (b *Body) MustCommit() {
	if !b.CommitMove() {
		panic("movement: commit without a pending move")
	}
}

// CancelMove drops the pending offer.
func (b *Body) CancelMove() {
	b.soft = b.bound
	b.dx, b.dy = 0, 0
	b.moves = false
}

func (b *Body) Moving() bool { return b.moves }

// HoldMove parks the pending offer: the body answers collision queries with
// its committed bound until ResumeMove.
func (b *Body) HoldMove() { b.moves = false }

// ResumeMove re-activates an offer parked by HoldMove.
func (b *Body) ResumeMove() {
	if b.soft != b.bound {
		b.moves = true
	}
}

func (b *Body) Stop() {}

// ForceMoveTo offers and commits in one step.
func (b *Body) ForceMoveTo(x, y float64) {
	b.OfferMoveTo(x, y)
	b.CommitMove()
}

// Intersects compares soft bounds, so pending moves are taken into account.
func (b *Body) Intersects(o *Body) bool {
	return b.SoftBounds().Intersects(o.SoftBounds())
}

// ComputeDistance returns the distance between both origins.
func (b *Body) ComputeDistance(o Movable) float64 {
	return b.DistanceTo(o.X(), o.Y())
}

func (b *Body) DistanceTo(x, y float64) float64 {
	return math.Hypot(x-b.bound.X, y-b.bound.Y)
}

func (b *Body) Handler() Handler { return b.handler }

// SetHandler replaces the handler. nil installs Idle.
func (b *Body) SetHandler(h Handler) {
	if h == nil {
		h = Idle()
	}
	b.handler = h
}

func (b *Body) SetMoveLoop(loop bool)           { b.moveLoop = loop }
func (b *Body) MoveLoop() bool                  { return b.moveLoop }
func (b *Body) SetMoveResetPosition(reset bool) { b.resetPosition = reset }
func (b *Body) MoveResetPosition() bool         { return b.resetPosition }

// AddMoveSegment registers a segment of the authored move sequence. Segments
// run in index order once Init is called.
func (b *Body) AddMoveSegment(index int, seg *Segment) {
	if seg == nil {
		return
	}
	if b.sequence == nil {
		b.sequence = make(map[int]*Segment)
	}
	b.sequence[index] = seg
}

// AddMoveHandler is AddMoveSegment(index, Once(h)).
func (b *Body) AddMoveHandler(index int, h Handler) {
	if h != nil {
		b.AddMoveSegment(index, Once(h))
	}
}

// Init turns the authored move sequence into a Combined handler. The
// current handler, if any, runs first.
func (b *Body) Init() {
	if len(b.sequence) == 0 {
		return
	}
	keys := make([]int, 0, len(b.sequence))
	for k := range b.sequence {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	c := NewCombined(b.moveLoop, b.resetPosition)
	if b.handler != Idle() {
		c.AddToExecute(b.handler)
	}
	for _, k := range keys {
		c.AddSegment(b.sequence[k])
	}
	b.handler = c
	b.sequence = nil
}

// Exec interrupts the current handler to run h once.
func (b *Body) Exec(h Handler) {
	if h != nil {
		b.ExecSegment(Once(h))
	}
}

// ExecSegment runs seg once ahead of everything else. A non-Combined
// handler is wrapped so it resumes afterwards.
func (b *Body) ExecSegment(seg *Segment) {
	if seg == nil {
		return
	}
	if c, ok := b.handler.(*Combined); ok {
		c.ExecOnce(seg)
		return
	}
	c := NewCombined(b.moveLoop, b.resetPosition)
	c.ExecOnce(seg)
	if b.handler != Idle() {
		c.AddToExecute(b.handler)
	}
	b.handler = c
}

// Jump hops by the given distance.
func (b *Body) Jump(dx, dy float64) { b.JumpTo(b.bound.X+dx, b.bound.Y+dy) }

func (b *Body) JumpTo(x, y float64) { b.Exec(JumpPooled(x, y)) }

// Random wanders for 1 to 5 seconds.
func (b *Body) Random() {
	b.RandomFor(DefaultRandomMinSeconds, DefaultRandomMaxSeconds, DefaultSlackness)
}

func (b *Body) RandomFor(minSec, maxSec float64, slackness int) {
	b.ExecSegment(ForRandom(RandomPooled(slackness), minSec, maxSec))
}

func (b *Body) Sleep(seconds float64) { b.ExecSegment(For(Idle(), seconds)) }

func (b *Body) Polygon(name string, rewind bool) {
	b.Exec(NewPolygonByName(name, rewind, true))
}
