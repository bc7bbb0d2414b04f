package movement

import "github.com/l1jgo/rpgcore/internal/geom"

// NodeCallback is the script function invoked for polygon node scripts.
const NodeCallback = "onNode"

// Polygon walks along a map polygon at the movable's speed. Scripts
// attached to nodes are posted to the trigger as they are passed; with
// Crop the walk stops at each such node until the script queue drained.
type Polygon struct {
	base
	Name   string
	Rewind bool
	Crop   bool

	poly         *geom.Polygon
	changed      bool
	moveFinished bool
	waitScript   bool
	nodeScript   string
}

// NewPolygonByName resolves the polygon through the world on the first tick.
func NewPolygonByName(name string, rewind, crop bool) *Polygon {
	return &Polygon{Name: name, Rewind: rewind, Crop: crop}
}

func NewPolygonMove(p *geom.Polygon, rewind, crop bool) *Polygon {
	h := &Polygon{Rewind: rewind, Crop: crop}
	h.SetPolygon(p)
	return h
}

// SetPolygon walks a copy of p from the start on the next tick.
func (h *Polygon) SetPolygon(p *geom.Polygon) {
	h.poly = p.Clone()
	h.Name = p.Name
	h.changed = true
}

// SetRewind changes the walking direction, restarting a completed walk.
func (h *Polygon) SetRewind(rewind bool) {
	h.Rewind = rewind
	if h.moveFinished {
		h.changed = true
	}
}

// Current returns the walked polygon, nil until resolved.
func (h *Polygon) Current() *geom.Polygon { return h.poly }

func (h *Polygon) resolve(t Trigger) bool {
	if h.Name == "" || t == nil || t.World() == nil {
		return false
	}
	p := t.World().FindPolygon(h.Name)
	if p == nil {
		return false
	}
	h.SetPolygon(p)
	return true
}

func (h *Polygon) TryMove(m Movable, dt float64, t Trigger) {
	if h.poly == nil && !h.resolve(t) {
		return
	}
	if h.finished {
		m.Stop()
		return
	}
	if h.nodeScript != "" {
		if t != nil {
			t.PostScript("Polygon("+h.poly.Name+")", h.nodeScript, NodeCallback, m, h.poly, h)
		}
		h.nodeScript = ""
		if h.Crop {
			h.waitScript = true
		}
	}
	if h.waitScript && t != nil && !t.ScriptQueueEmpty() {
		m.Stop()
		return
	}
	if h.changed {
		h.Reset()
	}
	if h.moveFinished {
		m.Stop()
		h.finished = true
		return
	}
	d := m.MoveSpeed().Stretch(dt)
	if d <= 0 {
		return
	}
	h.waitScript = false
	if h.Rewind {
		d = -d
	}
	h.nodeScript = h.poly.MoveAlong(d, h.Crop)
	dx, dy := h.poly.Rel()
	m.OfferMove(dx, dy)
	if a, ok := m.(Animator); ok {
		a.AnimateMove(dx, dy, dt)
	}
	h.moveFinished = h.poly.Finished()
}

func (h *Polygon) MoveBlocked(m Movable) {
	if h.poly != nil {
		h.poly.Undo()
	}
	h.nodeScript = ""
	m.Stop()
}

func (h *Polygon) Reset() {
	h.base.Reset()
	h.changed = false
	h.moveFinished = false
	h.waitScript = false
	h.nodeScript = ""
	if h.poly != nil {
		h.poly.Start(h.Rewind)
	}
}
