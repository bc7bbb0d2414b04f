package geom

import "math"

// Rect is an axis-aligned rectangle. X/Y is the lower-left corner in map space.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Intersects reports whether the interiors of r and o overlap.
// Rectangles that only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Grow returns r enlarged by n on every side.
func (r Rect) Grow(n float64) Rect {
	return Rect{X: r.X - n, Y: r.Y - n, W: r.W + 2*n, H: r.H + 2*n}
}

// Distance returns the euclidean distance between the origins of r and o.
func (r Rect) Distance(o Rect) float64 {
	return math.Hypot(o.X-r.X, o.Y-r.Y)
}

const (
	outLeft = 1 << iota
	outTop
	outRight
	outBottom
)

func (r Rect) outcode(x, y float64) int {
	code := 0
	if r.W <= 0 {
		code |= outLeft | outRight
	} else if x < r.X {
		code |= outLeft
	} else if x > r.X+r.W {
		code |= outRight
	}
	if r.H <= 0 {
		code |= outTop | outBottom
	} else if y < r.Y {
		code |= outTop
	} else if y > r.Y+r.H {
		code |= outBottom
	}
	return code
}

// IntersectsLine reports whether the segment (x1,y1)-(x2,y2) crosses r.
// Clips the first endpoint towards r until it is inside or both endpoints share
// an outside half-plane.
func (r Rect) IntersectsLine(x1, y1, x2, y2 float64) bool {
	out2 := r.outcode(x2, y2)
	if out2 == 0 {
		return true
	}
	for {
		out1 := r.outcode(x1, y1)
		if out1 == 0 {
			return true
		}
		if out1&out2 != 0 {
			return false
		}
		if out1&(outLeft|outRight) != 0 {
			x := r.X
			if out1&outRight != 0 {
				x += r.W
			}
			y1 = y1 + (x-x1)*(y2-y1)/(x2-x1)
			x1 = x
		} else {
			y := r.Y
			if out1&outBottom != 0 {
				y += r.H
			}
			x1 = x1 + (y-y1)*(x2-x1)/(y2-y1)
			y1 = y
		}
	}
}
