package movement

import "github.com/l1jgo/rpgcore/internal/geom"

// Side selects where an ellipse starts.
type Side int

const (
	Bottom Side = iota
	Top
	Left
	Right
)

// Corner selects where a rectangle walk starts.
type Corner int

const (
	BottomLeft Corner = iota
	BottomRight
	TopLeft
	TopRight
)

// NewEllipse places the movable on one side of r and circles the ellipse
// inscribed in r. Like every shape it stays off the segment pool.
func NewEllipse(r geom.Rect, start Side, angle AngleSpec, rotateTexture, fixedSpeed bool, drift Vec) *Combined {
	c := NewCombined(false, false)
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	switch start {
	case Bottom:
		c.AddSegment(NewOnce(NewSetXY(cx, r.Y)))
	case Top:
		c.AddSegment(NewOnce(NewSetXY(cx, r.Y+r.H)))
	case Left:
		c.AddSegment(NewOnce(NewSetXY(r.X, cy)))
	case Right:
		c.AddSegment(NewOnce(NewSetXY(r.X+r.W, cy)))
	}
	stretch := Vec{1, 1}
	if r.H != 0 {
		stretch.X = r.W / r.H
	}
	c.AddSegment(NewOnce(NewArcFull(Vec{cx, cy}, angle, rotateTexture, fixedSpeed, stretch, drift)))
	return c
}

// NewDefaultEllipse starts at the bottom and loops clockwise.
func NewDefaultEllipse(r geom.Rect) *Combined {
	return NewEllipse(r, Bottom, LoopClockwise, false, false, Vec{})
}

var rectLegs = map[Corner][2][4]Direction{
	// clockwise, counter-clockwise
	BottomLeft:  {{N, E, S, W}, {E, N, W, S}},
	BottomRight: {{W, N, E, S}, {N, W, S, E}},
	TopLeft:     {{E, S, W, N}, {S, E, N, W}},
	TopRight:    {{S, W, N, E}, {W, S, E, N}},
}

// NewRectangle walks once around the edge of r.
func NewRectangle(r geom.Rect, start Corner, clockwise bool) *Combined {
	c := NewCombined(false, false)
	switch start {
	case BottomLeft:
		c.AddSegment(NewOnce(NewSetXY(r.X, r.Y)))
	case BottomRight:
		c.AddSegment(NewOnce(NewSetXY(r.X+r.W, r.Y)))
	case TopLeft:
		c.AddSegment(NewOnce(NewSetXY(r.X, r.Y+r.H)))
	case TopRight:
		c.AddSegment(NewOnce(NewSetXY(r.X+r.W, r.Y+r.H)))
	}
	way := 1
	if clockwise {
		way = 0
	}
	for _, dir := range rectLegs[start][way] {
		d := r.W
		if dir == N || dir == S {
			d = r.H
		}
		c.AddSegment(NewOnce(NewDistance(d, dir)))
	}
	return c
}

func rectOf(v []float64) geom.Rect {
	return geom.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}
}
