package movement

import (
	"math/rand/v2"

	"github.com/l1jgo/rpgcore/internal/geom"
)

// Movable is anything a Handler can drive. Moves are two-phase: handlers
// offer a displacement, and only the dispatch loop commits it after
// collision resolution.
type Movable interface {
	Bounds() geom.Rect
	X() float64
	Y() float64
	Width() float64
	Height() float64

	MoveSpeed() Speed
	SetMoveSpeed(Speed)

	// OfferMove stages a displacement. A later offer replaces an earlier one.
	OfferMove(dx, dy float64)
	// OfferMoveDir stages a move of speed*dt towards dir and returns the
	// distance offered.
	OfferMoveDir(dir Direction, dt float64) float64
	OfferMoveTo(x, y float64)
	// CommitMove applies the staged displacement. It reports false when
	// nothing was staged.
	CommitMove() bool
	Moving() bool

	// Stop ends any running walk animation.
	Stop()
}

// Offsetter is implemented by movables with a visual offset that is drawn
// on top of the committed position.
type Offsetter interface {
	Offset() (x, y float64)
	SetOffset(x, y float64)
}

type Shower interface {
	IsVisible() bool
	SetVisible(bool)
}

type Rotator interface {
	Rotation() float64
	SetRotation(deg float64)
}

type Tinter interface {
	Color() Color
	SetColor(Color)
}

// Animator is implemented by movables with a frame animation.
type Animator interface {
	// Animate advances the animation in row and reports whether a full
	// cycle completed.
	Animate(row int, dt float64) bool
	// AnimateMove advances the walk animation for a displacement.
	AnimateMove(dx, dy, dt float64)
}

// Color is an RGBA tint with channels in [0, 1].
type Color struct {
	R, G, B, A float64
}

var White = Color{1, 1, 1, 1}

// Trigger is the part of the dispatch loop visible to handlers.
type Trigger interface {
	// PostScript queues a script for execution outside the current handler
	// call. With fn empty the script is evaluated, otherwise fn is invoked
	// with params after evaluating the script.
	PostScript(desc, script, fn string, params ...any)
	ScriptQueueEmpty() bool
	World() World
}

// World exposes the shared state handlers may read or change.
type World interface {
	Tint() Color
	SetTint(Color)
	MagneticEnabled() bool
	Rand() *rand.Rand
	FindPolygon(name string) *geom.Polygon
	// Input is the host key state, nil when the host has no keyboard.
	Input() Input
}

// randIntN draws from the first available source: the handler's own
// generator, the world's, or the global one.
func randIntN(own *rand.Rand, t Trigger, n int) int {
	if n <= 0 {
		return 0
	}
	if own != nil {
		return own.IntN(n)
	}
	if t != nil && t.World() != nil {
		if r := t.World().Rand(); r != nil {
			return r.IntN(n)
		}
	}
	return rand.IntN(n)
}
