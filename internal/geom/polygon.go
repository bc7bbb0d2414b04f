package geom

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidPolygon = errors.New("invalid polygon")

// walkState is the position of a walker along the polygon path.
type walkState struct {
	index    int
	distance float64
	x, y     float64
	relX     float64
	relY     float64
	finished bool
}

// Polygon is a named polyline on the map. Besides its vertices it carries a
// walk cursor so a movement handler can travel along it, with one step of undo
// for blocked moves.
type Polygon struct {
	Name string
	Loop bool

	Xs, Ys                 []float64
	MinX, MinY, MaxX, MaxY float64

	// NodeScripts[i] is executed when a walker reaches vertex i.
	NodeScripts []string

	segX, segY, segLen []float64

	cur, old walkState
}

// NewPolygon builds a polygon from parallel coordinate slices. At least two
// vertices are required.
func NewPolygon(name string, xs, ys []float64, loop bool) (*Polygon, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %q has %d x and %d y coordinates", ErrInvalidPolygon, name, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: %q needs at least 2 nodes", ErrInvalidPolygon, name)
	}
	n := len(xs)
	p := &Polygon{
		Name:        name,
		Loop:        loop,
		Xs:          append([]float64(nil), xs...),
		Ys:          append([]float64(nil), ys...),
		NodeScripts: make([]string, n),
		segX:        make([]float64, n-1),
		segY:        make([]float64, n-1),
		segLen:      make([]float64, n-1),
	}
	p.MinX, p.MaxX = xs[0], xs[0]
	p.MinY, p.MaxY = ys[0], ys[0]
	for i := 0; i < n; i++ {
		p.MinX = math.Min(p.MinX, xs[i])
		p.MaxX = math.Max(p.MaxX, xs[i])
		p.MinY = math.Min(p.MinY, ys[i])
		p.MaxY = math.Max(p.MaxY, ys[i])
		if i < n-1 {
			dx := xs[i+1] - xs[i]
			dy := ys[i+1] - ys[i]
			p.segX[i] = dx
			p.segY[i] = dy
			p.segLen[i] = math.Hypot(dx, dy)
		}
	}
	p.Start(false)
	return p, nil
}

// SetNodeScript registers a script for vertex node. On a looping polygon the
// first node script doubles as the last one unless that is set explicitly.
func (p *Polygon) SetNodeScript(node int, script string) {
	if node < 0 || node >= len(p.NodeScripts) {
		return
	}
	p.NodeScripts[node] = script
	last := len(p.NodeScripts) - 1
	if node == 0 && p.Loop && p.NodeScripts[last] == "" {
		p.NodeScripts[last] = script
	}
}

func (p *Polygon) SegmentCount() int { return len(p.segLen) }

func (p *Polygon) SegmentLen(i int) float64 { return p.segLen[i] }

// Pos returns the current walk position.
func (p *Polygon) Pos() (x, y float64) { return p.cur.x, p.cur.y }

// Rel returns the displacement produced by the last MoveAlong.
func (p *Polygon) Rel() (dx, dy float64) { return p.cur.relX, p.cur.relY }

// Finished reports whether a non-looping walk reached its end.
func (p *Polygon) Finished() bool { return p.cur.finished && !p.Loop }

// Start places the walker at the first node, or at the last one for rewind.
func (p *Polygon) Start(rewind bool) {
	if rewind {
		i := len(p.segLen) - 1
		p.cur.index = i
		p.cur.distance = p.segLen[i]
		p.cur.x = p.Xs[i] + p.segX[i]
		p.cur.y = p.Ys[i] + p.segY[i]
	} else {
		p.cur.index = 0
		p.cur.distance = 0
		p.cur.x = p.Xs[0]
		p.cur.y = p.Ys[0]
	}
	p.cur.relX, p.cur.relY = 0, 0
	p.cur.finished = false
	p.old = p.cur
}

// MoveAlong advances the walker by distance (negative walks backwards) and
// returns the node script passed on the way, if any. With crop the walker
// stops exactly on a node that carries a script.
func (p *Polygon) MoveAlong(distance float64, crop bool) string {
	if p.Finished() {
		return ""
	}
	p.old = p.cur
	exec := p.advance(distance, crop)
	i := p.cur.index
	x := p.Xs[i]
	y := p.Ys[i]
	if p.segLen[i] > 0 {
		x += p.segX[i] * p.cur.distance / p.segLen[i]
		y += p.segY[i] * p.cur.distance / p.segLen[i]
	}
	p.cur.relX = x - p.cur.x
	p.cur.relY = y - p.cur.y
	p.cur.x = x
	p.cur.y = y
	return exec
}

func (p *Polygon) advance(distance float64, crop bool) string {
	last := len(p.segLen) - 1
	p.cur.distance += distance
	segLen := p.segLen[p.cur.index]

	switch {
	case p.cur.distance <= 0 && distance < 0:
		exec := p.NodeScripts[p.cur.index]
		p.cur.index--
		if p.cur.index < 0 {
			if !p.Loop || crop {
				if !p.cur.finished {
					p.cur.finished = true
					p.cur.index = 0
					p.cur.distance = 0
					return exec
				}
				crop = false
				exec = ""
			}
			p.cur.index = last
			p.cur.finished = false
		}
		if crop && exec != "" {
			p.cur.distance = p.segLen[p.cur.index]
		} else {
			p.cur.distance += p.segLen[p.cur.index]
		}
		return exec

	case p.cur.distance >= segLen && distance > 0:
		p.cur.index++
		exec := p.NodeScripts[p.cur.index]
		if p.cur.index > last {
			if !p.Loop || crop {
				if !p.cur.finished {
					p.cur.finished = true
					p.cur.index = last
					p.cur.distance = segLen
					return exec
				}
				crop = false
				exec = ""
			}
			p.cur.index = 0
			p.cur.finished = false
		}
		if crop && exec != "" {
			p.cur.distance = 0
		} else {
			p.cur.distance -= segLen
		}
		return exec
	}
	return ""
}

// Undo reverts the last MoveAlong.
func (p *Polygon) Undo() { p.cur = p.old }

// Clone returns a copy with its own walk cursor. Vertex data is shared.
func (p *Polygon) Clone() *Polygon {
	c := *p
	return &c
}

// Translate shifts all vertices by (dx, dy).
func (p *Polygon) Translate(dx, dy float64) {
	for i := range p.Xs {
		p.Xs[i] += dx
		p.Ys[i] += dy
	}
	p.MinX += dx
	p.MaxX += dx
	p.MinY += dy
	p.MaxY += dy
}

// IntersectsRect reports whether any polygon edge crosses r.
func (p *Polygon) IntersectsRect(r Rect) bool {
	end := len(p.Xs) - 1
	x2, y2 := p.Xs[end], p.Ys[end]
	for i := end - 1; i >= 0; i-- {
		x1, y1 := p.Xs[i], p.Ys[i]
		if r.IntersectsLine(x1, y1, x2, y2) {
			return true
		}
		x2, y2 = x1, y1
	}
	return false
}

func (p *Polygon) String() string {
	return fmt.Sprintf("polygon %q #nodes=%d (1st node=%g/%g)", p.Name, len(p.Xs), p.Xs[0], p.Ys[0])
}
